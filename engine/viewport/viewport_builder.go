package viewport

import (
	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
)

// ViewportBuilderOption is a functional option for configuring a Viewport.
type ViewportBuilderOption func(*viewportImpl)

// WithCamera sets the viewport's camera.
//
// Parameters:
//   - cam: the camera to attach
//
// Returns:
//   - ViewportBuilderOption: option function to apply
func WithCamera(cam camera.Camera) ViewportBuilderOption {
	return func(v *viewportImpl) {
		v.cam = cam
	}
}

// WithScene sets the scene drawn into the viewport.
//
// Parameters:
//   - scn: the scene to attach
//
// Returns:
//   - ViewportBuilderOption: option function to apply
func WithScene(scn scene.Scene) ViewportBuilderOption {
	return func(v *viewportImpl) {
		v.scn = scn
	}
}

// WithBackground sets the display clear color.
//
// Parameters:
//   - c: the background color
//
// Returns:
//   - ViewportBuilderOption: option function to apply
func WithBackground(c common.Color) ViewportBuilderOption {
	return func(v *viewportImpl) {
		v.background = c
	}
}
