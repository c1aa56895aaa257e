package renderer

import (
	"context"
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/camera"
	"github.com/Carmen-Shannon/oxy-pick/engine/game_object"
	"github.com/Carmen-Shannon/oxy-pick/engine/model"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/Carmen-Shannon/oxy-pick/engine/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cubeViewport returns a 64x64 viewport looking down -Z at a unit cube centered on the origin.
func cubeViewport(t *testing.T) (viewport.Viewport, game_object.GameObject) {
	t.Helper()
	cube := game_object.NewGameObject(
		game_object.WithName("cube"),
		game_object.WithModel(model.NewCube("cube", 1)),
		game_object.WithColor(common.Color{1, 0, 0, 1}),
	)
	scn := scene.NewScene("test", scene.WithObjects(cube))
	cam := camera.NewCamera(camera.WithController(camera.NewOrbitController(camera.WithRadius(5))))
	vp := viewport.NewViewport(0, common.NewRect(0, 0, 63, 63), viewport.WithCamera(cam), viewport.WithScene(scn))
	return vp, cube
}

func newSoftwareRenderer(t *testing.T) Renderer {
	t.Helper()
	r, err := NewRenderer(BackendTypeSoftware, nil)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func pixelValue(t *testing.T, target Target, x, y int) uint32 {
	t.Helper()
	px, err := target.ReadRegion(context.Background(), common.NewRect(x, y, x, y))
	require.NoError(t, err)
	return UnpackValue(px)
}

func TestRenderMarksViewportRendered(t *testing.T) {
	r := newSoftwareRenderer(t)
	vp, _ := cubeViewport(t)
	assert.False(t, vp.Rendered())

	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.Render(context.Background(), vp))
	r.EndFrame()
	r.Present()
	assert.True(t, vp.Rendered())

	display, err := r.DisplayBuffer(context.Background(), vp)
	require.NoError(t, err)
	center, err := display.ReadRegion(context.Background(), common.NewRect(32, 32, 32, 32))
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 0, 0, 255}, center)

	corner, err := display.ReadRegion(context.Background(), common.NewRect(0, 0, 0, 0))
	require.NoError(t, err)
	bg := common.ColorBackground.RGBA8()
	assert.Equal(t, bg[:], corner)
}

func TestRenderOffscreenObjectPass(t *testing.T) {
	r := newSoftwareRenderer(t)
	vp, cube := cubeViewport(t)
	enc := Encoding{
		Quantity:     QuantityObject,
		Draws:        []EncodedDraw{{Object: cube, Code: 7}},
		ViewProj:     vp.Camera().ViewProjectionMatrix(),
		CaptureDepth: true,
	}

	target, err := r.RenderOffscreen(context.Background(), vp, enc)
	require.NoError(t, err)
	assert.Equal(t, 64, target.Width())
	assert.Equal(t, TargetFormatRGBA8, target.Format())
	assert.Equal(t, uint32(7), pixelValue(t, target, 32, 32))
	assert.Equal(t, uint32(0), pixelValue(t, target, 0, 0))
	assert.Equal(t, uint32(0), pixelValue(t, target, 63, 63))

	depth, err := r.DepthBuffer(context.Background(), vp)
	require.NoError(t, err)
	assert.Equal(t, TargetFormatDepth32, depth.Format())
	data, err := depth.ReadRegion(context.Background(), common.NewRect(32, 32, 32, 32))
	require.NoError(t, err)
	z := DepthAt(data, 0)
	assert.Greater(t, z, float32(0))
	assert.Less(t, z, float32(1))

	data, err = depth.ReadRegion(context.Background(), common.NewRect(0, 0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, float32(1), DepthAt(data, 0))
}

func TestRenderOffscreenAttributePasses(t *testing.T) {
	r := newSoftwareRenderer(t)
	vp, cube := cubeViewport(t)
	base := Encoding{
		Draws:    []EncodedDraw{{Object: cube, Code: 1}},
		ViewProj: vp.Camera().ViewProjectionMatrix(),
	}

	cells := base
	cells.Quantity = QuantityAttributeLow
	cells.Attribute = AttributeCell
	target, err := r.RenderOffscreen(context.Background(), vp, cells)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), pixelValue(t, target, 32, 32), "the camera faces the +z quad, cell 1")

	points := base
	points.Quantity = QuantityAttributeLow
	points.Attribute = AttributePoint
	points.Slot = 1
	target, err = r.RenderOffscreen(context.Background(), vp, points)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), pixelValue(t, target, 43, 41), "nearest corner of the +z quad is point 6")

	high := base
	high.Quantity = QuantityAttributeHigh
	high.Slot = 2
	target, err = r.RenderOffscreen(context.Background(), vp, high)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), pixelValue(t, target, 32, 32))
}

func TestRenderOffscreenLeavesDisplayColors(t *testing.T) {
	r := newSoftwareRenderer(t)
	vp, cube := cubeViewport(t)
	before := cube.Color()

	_, err := r.RenderOffscreen(context.Background(), vp, Encoding{
		Quantity: QuantityObject,
		Draws:    []EncodedDraw{{Object: cube, Code: 3}},
		ViewProj: vp.Camera().ViewProjectionMatrix(),
	})
	require.NoError(t, err)
	assert.Equal(t, before, cube.Color())
}

func TestDepthBufferBeforeCapture(t *testing.T) {
	r := newSoftwareRenderer(t)
	vp, _ := cubeViewport(t)
	_, err := r.DepthBuffer(context.Background(), vp)
	assert.Error(t, err)
}

func TestPackValueRoundTrip(t *testing.T) {
	// A round trip over the whole code space also proves no two values share a pixel.
	for v := uint32(0); v <= MaxEncodedValue; v++ {
		px := PackValue(v)
		if px[3] != 255 || UnpackValue(px[:]) != v {
			t.Fatalf("value %d packs to %v and unpacks to %d", v, px, UnpackValue(px[:]))
		}
	}
	px := PackValue(MaxEncodedValue + 1)
	assert.Equal(t, uint32(0), UnpackValue(px[:]), "bits above 23 are dropped")
}

func TestEncodingValue(t *testing.T) {
	const id = 1<<24 + 5
	tests := []struct {
		name string
		enc  Encoding
		want uint32
	}{
		{"object", Encoding{Quantity: QuantityObject}, 9},
		{"composite", Encoding{Quantity: QuantityComposite}, 2},
		{"cell low", Encoding{Quantity: QuantityAttributeLow, Attribute: AttributeCell}, 5},
		{"cell high", Encoding{Quantity: QuantityAttributeHigh, Attribute: AttributeCell}, 1},
		{"point low", Encoding{Quantity: QuantityAttributeLow, Attribute: AttributePoint}, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.enc.Value(9, 2, id, 11))
		})
	}
}

func TestDrawUniformLayout(t *testing.T) {
	u := GPUDrawUniform{Code: 4, Quantity: QuantityAttributeLow, Attribute: AttributePoint, Instance: 3}
	common.Identity(u.Model[:])
	buf := marshalDraws([]GPUDrawUniform{u, u})
	assert.Len(t, buf, 2*drawUniformStride)
	assert.Equal(t, byte(4), buf[80])
	assert.Equal(t, byte(2), buf[84])
	assert.Equal(t, byte(1), buf[88])
	assert.Equal(t, byte(3), buf[drawUniformStride+92])
}
