package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/chewxy/math32"
)

type orbitControllerImpl struct {
	mu *sync.Mutex

	target [3]float32

	radius    float32
	azimuth   float32
	elevation float32

	minRadius, maxRadius       float32
	minElevation, maxElevation float32

	mouseSensitivity float32
	zoomFactor       float32

	interacting bool
}

// OrbitController places a camera on a sphere around a target point and turns mouse drags
// into azimuth and elevation changes. While a drag is in progress the controller reports
// Interacting, which the camera exposes as Animating.
type OrbitController interface {
	// Position returns the world-space eye position derived from the spherical coordinates.
	//
	// Returns:
	//   - [3]float32: the eye position
	Position() [3]float32

	// Target returns the orbit pivot.
	Target() [3]float32

	// SetTarget moves the orbit pivot.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetTarget(x, y, z float32)

	// Radius returns the distance from the eye to the target.
	Radius() float32

	// SetRadius sets the orbit radius, clamped to the configured bounds.
	//
	// Parameters:
	//   - radius: new distance from target
	SetRadius(radius float32)

	// Azimuth returns the horizontal angle around the Y axis in radians (0 = +Z).
	Azimuth() float32

	// Elevation returns the vertical angle from the horizontal plane in radians.
	Elevation() float32

	// BeginInteraction marks the start of a drag.
	BeginInteraction()

	// Rotate applies a drag delta in pixels. Positive dx orbits right, positive dy orbits up.
	//
	// Parameters:
	//   - dx, dy: cursor movement since the previous call
	Rotate(dx, dy float32)

	// EndInteraction marks the end of a drag.
	EndInteraction()

	// Interacting reports whether a drag is in progress.
	Interacting() bool

	// Dolly scales the orbit radius by zoomFactor^-delta. Positive delta moves closer.
	//
	// Parameters:
	//   - delta: wheel steps
	Dolly(delta float32)
}

var _ OrbitController = &orbitControllerImpl{}

// NewOrbitController creates an orbit controller looking at the origin from +Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - OrbitController: the newly created controller
func NewOrbitController(options ...OrbitControllerOption) OrbitController {
	oc := &orbitControllerImpl{
		mu:               &sync.Mutex{},
		radius:           5,
		minRadius:        0.5,
		maxRadius:        100,
		minElevation:     -math32.Pi/2 + 0.05,
		maxElevation:     math32.Pi/2 - 0.05,
		mouseSensitivity: 0.01,
		zoomFactor:       1.1,
	}
	for _, option := range options {
		option(oc)
	}
	oc.radius = common.Clamp(oc.radius, oc.minRadius, oc.maxRadius)
	oc.elevation = common.Clamp(oc.elevation, oc.minElevation, oc.maxElevation)
	return oc
}

func (oc *orbitControllerImpl) Position() [3]float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	cosElev, sinElev := math32.Cos(oc.elevation), math32.Sin(oc.elevation)
	cosAzim, sinAzim := math32.Cos(oc.azimuth), math32.Sin(oc.azimuth)
	return [3]float32{
		oc.target[0] + oc.radius*cosElev*sinAzim,
		oc.target[1] + oc.radius*sinElev,
		oc.target[2] + oc.radius*cosElev*cosAzim,
	}
}

func (oc *orbitControllerImpl) Target() [3]float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.target
}

func (oc *orbitControllerImpl) SetTarget(x, y, z float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.target = [3]float32{x, y, z}
}

func (oc *orbitControllerImpl) Radius() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.radius
}

func (oc *orbitControllerImpl) SetRadius(radius float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.radius = common.Clamp(radius, oc.minRadius, oc.maxRadius)
}

func (oc *orbitControllerImpl) Azimuth() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.azimuth
}

func (oc *orbitControllerImpl) Elevation() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.elevation
}

func (oc *orbitControllerImpl) BeginInteraction() {
	oc.mu.Lock()
	oc.interacting = true
	oc.mu.Unlock()
}

func (oc *orbitControllerImpl) Rotate(dx, dy float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.azimuth += dx * oc.mouseSensitivity
	oc.elevation = common.Clamp(oc.elevation+dy*oc.mouseSensitivity, oc.minElevation, oc.maxElevation)
}

func (oc *orbitControllerImpl) EndInteraction() {
	oc.mu.Lock()
	oc.interacting = false
	oc.mu.Unlock()
}

func (oc *orbitControllerImpl) Interacting() bool {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.interacting
}

func (oc *orbitControllerImpl) Dolly(delta float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.radius = common.Clamp(oc.radius*math32.Pow(oc.zoomFactor, -delta), oc.minRadius, oc.maxRadius)
}
