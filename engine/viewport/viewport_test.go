package viewport

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/stretchr/testify/assert"
)

func TestRenderGeneration(t *testing.T) {
	vp := NewViewport(0, common.NewRect(0, 0, 99, 49), WithCamera(camera.NewCamera()))
	assert.Equal(t, 100, vp.Width())
	assert.Equal(t, 50, vp.Height())
	assert.InDelta(t, 2, vp.Camera().Aspect(), 1e-6)
	assert.False(t, vp.Rendered())

	gen := vp.Generation()
	vp.MarkRendered(gen)
	assert.True(t, vp.Rendered())
	assert.True(t, vp.Pickable())

	vp.Resize(common.NewRect(0, 0, 49, 49))
	assert.False(t, vp.Rendered())
	assert.Equal(t, gen+1, vp.Generation())
	assert.InDelta(t, 1, vp.Camera().Aspect(), 1e-6)

	vp.MarkRendered(gen)
	assert.False(t, vp.Rendered(), "a frame from an older generation does not count")
}

func TestPickableWhileAnimating(t *testing.T) {
	ctrl := camera.NewOrbitController()
	vp := NewViewport(3, common.NewRect(0, 0, 9, 9), WithCamera(camera.NewCamera(camera.WithController(ctrl))))
	vp.MarkRendered(vp.Generation())

	ctrl.BeginInteraction()
	assert.False(t, vp.Pickable())
	ctrl.EndInteraction()
	assert.True(t, vp.Pickable())
}

func TestNewViewportRequiresCamera(t *testing.T) {
	assert.Panics(t, func() { NewViewport(0, common.NewRect(0, 0, 1, 1)) })
	assert.Panics(t, func() {
		NewViewport(0, common.NewRect(5, 0, 1, 1), WithCamera(camera.NewCamera()))
	})
}
