package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/model"
)

// Pickable is the capability the picking subsystem needs from a scene object.
type Pickable interface {
	// ID returns the scene-assigned identifier. 0 means the object has not been added to a scene.
	ID() uint64

	// CellCount returns the number of cells of the object's geometry.
	CellCount() int

	// PointCount returns the number of points of the object's geometry.
	PointCount() int
}

type gameObject struct {
	id      atomic.Uint64
	visible atomic.Bool
	picking atomic.Bool

	name      string
	mdl       model.Model
	rep       model.Representation
	pointSize float32

	mu       sync.RWMutex
	color    common.Color
	position [3]float32
	rotation [3]float32
	scale    [3]float32

	// glyph instances, empty for a plain object
	instanceOffsets [][3]float32
	instanceScales  []float32
}

// GameObject is a pickable scene entity: a Model drawn with a representation, a display color,
// a transform, and optionally a list of glyph instances that each repeat the model at an offset.
type GameObject interface {
	Pickable

	// SetID sets the object's identifier. Called by the scene on Add.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// Name returns the object's display name.
	Name() string

	// Model returns the geometry drawn by this object.
	//
	// Returns:
	//   - model.Model: the associated model, never nil
	Model() model.Model

	// Representation returns how the model's cells are rasterized.
	Representation() model.Representation

	// PointSize returns the side length, in pixels, of rasterized points.
	PointSize() float32

	// Color returns the display color. Picking passes never read it.
	Color() common.Color

	// SetColor sets the display color.
	//
	// Parameters:
	//   - c: the new color
	SetColor(c common.Color)

	// Visible reports whether the object is drawn at all.
	Visible() bool

	// SetVisible shows or hides the object.
	//
	// Parameters:
	//   - visible: true to draw the object
	SetVisible(visible bool)

	// PickingEnabled reports whether the object takes part in picking passes.
	PickingEnabled() bool

	// SetPickingEnabled includes or excludes the object from picking passes.
	//
	// Parameters:
	//   - enabled: true to make the object pickable
	SetPickingEnabled(enabled bool)

	// Position returns the world-space translation.
	Position() [3]float32

	// SetPosition sets the world-space translation.
	//
	// Parameters:
	//   - x, y, z: the new position
	SetPosition(x, y, z float32)

	// Rotation returns the Euler rotation in radians.
	Rotation() [3]float32

	// SetRotation sets the Euler rotation in radians.
	//
	// Parameters:
	//   - rx, ry, rz: the new rotation angles
	SetRotation(rx, ry, rz float32)

	// Scale returns the per-axis scale factors.
	Scale() [3]float32

	// SetScale sets the per-axis scale factors.
	//
	// Parameters:
	//   - sx, sy, sz: the new scale factors
	SetScale(sx, sy, sz float32)

	// InstanceCount returns the number of drawn copies of the model. Plain objects have one.
	//
	// Returns:
	//   - int: the instance count, at least 1
	InstanceCount() int

	// InstanceMatrix returns the column-major model-to-world matrix of one instance.
	//
	// Parameters:
	//   - instance: the instance index in [0, InstanceCount())
	//
	// Returns:
	//   - []float32: a fresh 16 element matrix
	InstanceMatrix(instance int) []float32

	// InstanceScale returns the uniform glyph scale of one instance. Plain objects return 1.
	//
	// Parameters:
	//   - instance: the instance index
	//
	// Returns:
	//   - float32: the instance scale
	InstanceScale(instance int) float32

	// SetInstanceScale sets the uniform glyph scale of one instance. Out of range indices are ignored.
	//
	// Parameters:
	//   - instance: the instance index
	//   - s: the new uniform scale
	SetInstanceScale(instance int, s float32)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new GameObject configured with the given options.
// A model is required; building without one panics.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		name:      "object",
		pointSize: 1,
		color:     common.ColorWhite,
		scale:     [3]float32{1, 1, 1},
	}
	obj.visible.Store(true)
	obj.picking.Store(true)
	for _, option := range options {
		option(obj)
	}
	if obj.mdl == nil {
		panic("game_object: a model is required")
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id.Load()
}

func (g *gameObject) SetID(id uint64) {
	g.id.Store(id)
}

func (g *gameObject) CellCount() int {
	return g.mdl.CellCount()
}

func (g *gameObject) PointCount() int {
	return g.mdl.PointCount()
}

func (g *gameObject) Name() string {
	return g.name
}

func (g *gameObject) Model() model.Model {
	return g.mdl
}

func (g *gameObject) Representation() model.Representation {
	return g.rep
}

func (g *gameObject) PointSize() float32 {
	return g.pointSize
}

func (g *gameObject) Color() common.Color {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.color
}

func (g *gameObject) SetColor(c common.Color) {
	g.mu.Lock()
	g.color = c
	g.mu.Unlock()
}

func (g *gameObject) Visible() bool {
	return g.visible.Load()
}

func (g *gameObject) SetVisible(visible bool) {
	g.visible.Store(visible)
}

func (g *gameObject) PickingEnabled() bool {
	return g.picking.Load()
}

func (g *gameObject) SetPickingEnabled(enabled bool) {
	g.picking.Store(enabled)
}

func (g *gameObject) Position() [3]float32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.position
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.mu.Lock()
	g.position = [3]float32{x, y, z}
	g.mu.Unlock()
}

func (g *gameObject) Rotation() [3]float32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rotation
}

func (g *gameObject) SetRotation(rx, ry, rz float32) {
	g.mu.Lock()
	g.rotation = [3]float32{rx, ry, rz}
	g.mu.Unlock()
}

func (g *gameObject) Scale() [3]float32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scale
}

func (g *gameObject) SetScale(sx, sy, sz float32) {
	g.mu.Lock()
	g.scale = [3]float32{sx, sy, sz}
	g.mu.Unlock()
}

func (g *gameObject) InstanceCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return max(len(g.instanceOffsets), 1)
}

func (g *gameObject) InstanceMatrix(instance int) []float32 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]float32, 16)
	common.BuildModelMatrix(out, g.position, g.rotation, g.scale)
	if instance < 0 || instance >= len(g.instanceOffsets) {
		return out
	}

	local := make([]float32, 16)
	s := g.instanceScales[instance]
	common.BuildModelMatrix(local, g.instanceOffsets[instance], [3]float32{}, [3]float32{s, s, s})
	common.Mul4(out, out, local)
	return out
}

func (g *gameObject) InstanceScale(instance int) float32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if instance < 0 || instance >= len(g.instanceScales) {
		return 1
	}
	return g.instanceScales[instance]
}

func (g *gameObject) SetInstanceScale(instance int, s float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if instance < 0 || instance >= len(g.instanceScales) {
		return
	}
	g.instanceScales[instance] = s
}
