package game_object

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameObjectDefaults(t *testing.T) {
	obj := NewGameObject(WithModel(model.NewCube("cube", 1)))

	assert.Zero(t, obj.ID())
	assert.True(t, obj.Visible())
	assert.True(t, obj.PickingEnabled())
	assert.Equal(t, common.ColorWhite, obj.Color())
	assert.Equal(t, [3]float32{1, 1, 1}, obj.Scale())
	assert.Equal(t, 1, obj.InstanceCount())
	assert.Equal(t, 6, obj.CellCount())
	assert.Equal(t, 8, obj.PointCount())
}

func TestNewGameObjectRequiresModel(t *testing.T) {
	assert.Panics(t, func() { NewGameObject(WithName("empty")) })
}

func TestGlyphInstances(t *testing.T) {
	src := model.NewModel(model.WithPoints([][3]float32{{0, 0, 0}, {2, 0, 0}, {0, 3, 0}}))
	glyph := NewGameObject(
		WithModel(model.NewCube("cube", 1)),
		WithGlyphSource(src, 0.5),
		WithPosition(0, 0, -1),
	)
	require.Equal(t, 3, glyph.InstanceCount())

	m := glyph.InstanceMatrix(1)
	p := common.TransformPoint(m, 1, 0, 0)
	assert.InDeltaSlice(t, []float32{2.5, 0, -1, 1}, p[:], 1e-6)

	glyph.SetInstanceScale(1, 0.7)
	assert.Equal(t, float32(0.7), glyph.InstanceScale(1))
	assert.Equal(t, float32(0.5), glyph.InstanceScale(0))

	glyph.SetInstanceScale(9, 2)
	assert.Equal(t, float32(1), glyph.InstanceScale(9))
}

func TestPointWorldPosition(t *testing.T) {
	obj := NewGameObject(WithModel(model.NewCube("cube", 2)), WithPosition(1, 2, 3))

	pos, ok := PointWorldPosition(obj, 0, 6)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float32{2, 3, 4}, pos[:], 1e-6)

	_, ok = PointWorldPosition(obj, 0, 8)
	assert.False(t, ok)
}

func TestNearestCellPoint(t *testing.T) {
	obj := NewGameObject(WithModel(model.NewCube("cube", 2)), WithPosition(0, 0, -5), WithScale(2, 2, 2))

	// +z face (cell 1) spans points 4..7 at local z=1, world z=-3.
	world, id, ok := NearestCellPoint(obj, 0, 1, [3]float32{1.5, 1.8, -3})
	require.True(t, ok)
	assert.Equal(t, uint32(6), id)
	assert.InDeltaSlice(t, []float32{2, 2, -3}, world[:], 1e-5)

	_, _, ok = NearestCellPoint(obj, 0, 6, [3]float32{})
	assert.False(t, ok)
}
