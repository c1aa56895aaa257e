package selector

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/game_object"
	"github.com/Carmen-Shannon/oxy-pick/engine/model"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pick/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packed(values ...uint32) []byte {
	out := make([]byte, 0, len(values)*renderer.BytesPerPixel)
	for _, v := range values {
		px := renderer.PackValue(v)
		out = append(out, px[:]...)
	}
	return out
}

func depths(values ...float32) []byte {
	out := make([]byte, len(values)*renderer.BytesPerPixel)
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*renderer.BytesPerPixel:], math.Float32bits(v))
	}
	return out
}

func sceneObjects(t *testing.T, n int) []game_object.GameObject {
	t.Helper()
	objects := make([]game_object.GameObject, n)
	for i := range objects {
		objects[i] = game_object.NewGameObject(game_object.WithModel(model.NewCube("cube", 1)))
	}
	scene.NewScene("decode", scene.WithObjects(objects...))
	return objects
}

func TestDecodeCombinesAttributeHalves(t *testing.T) {
	objects := sceneObjects(t, 1)
	raw := &RawPixels{
		Region: common.NewRect(0, 0, 1, 0),
		batches: []rawBatch{{
			objects:  objects,
			object:   packed(1, 0),
			attrLow:  packed(5, 0),
			attrHigh: packed(2, 0),
		}},
	}

	hits := Decode(raw, raw.Region, AssociationCells)
	require.Len(t, hits, 1)
	assert.Equal(t, uint64(2<<24|5), hits[0].AttributeID)
	assert.Equal(t, objects[0].ID(), hits[0].ObjectID)
	assert.Equal(t, 0, hits[0].X)

	hits = Decode(raw, raw.Region, AssociationNone)
	require.Len(t, hits, 1)
	assert.False(t, hits[0].HasAttributeID)
}

func TestDecodeLargeAttributeRoundTrip(t *testing.T) {
	objects := sceneObjects(t, 1)
	for _, id := range []uint64{0, 1, renderer.MaxEncodedValue, renderer.MaxEncodedValue + 1, 1<<40 + 12345} {
		raw := &RawPixels{
			Region: common.NewRect(0, 0, 0, 0),
			batches: []rawBatch{{
				objects:  objects,
				object:   packed(1),
				attrLow:  packed(uint32(id & renderer.MaxEncodedValue)),
				attrHigh: packed(uint32(id >> 24)),
			}},
		}
		hits := Decode(raw, raw.Region, AssociationPoints)
		require.Len(t, hits, 1)
		assert.Equal(t, id, hits[0].AttributeID)
	}
}

func TestDecodeDeduplicatesAndKeepsNearestPixel(t *testing.T) {
	objects := sceneObjects(t, 2)
	raw := &RawPixels{
		Region: common.NewRect(0, 0, 3, 0),
		Depth:  true,
		batches: []rawBatch{{
			objects: objects,
			object:  packed(2, 1, 1, 0),
			depth:   depths(0.2, 0.6, 0.5, 1),
		}},
	}

	hits := Decode(raw, raw.Region, AssociationNone)
	require.Len(t, hits, 2)
	assert.Equal(t, objects[1].ID(), hits[0].ObjectID)
	assert.Equal(t, objects[0].ID(), hits[1].ObjectID)
	assert.Equal(t, float32(0.5), hits[1].Depth)
	assert.Equal(t, 2, hits[1].X, "the hit reports the pixel of its minimum depth")
}

func TestDecodeScanOrderWithoutDepth(t *testing.T) {
	objects := sceneObjects(t, 3)
	// 2x2 region: bottom row (3, 1), top row (2, 0).
	raw := &RawPixels{
		Region: common.NewRect(0, 0, 1, 1),
		batches: []rawBatch{{
			objects: objects,
			object:  packed(3, 1, 2, 0),
		}},
	}

	hits := Decode(raw, raw.Region, AssociationNone)
	ids := make([]uint64, len(hits))
	for i, h := range hits {
		ids[i] = h.ObjectID
	}
	assert.Equal(t, []uint64{objects[2].ID(), objects[0].ID(), objects[1].ID()}, ids)
	assert.Equal(t, 1, hits[2].Y)
}

func TestDecodeOrdersByUnexposedDepth(t *testing.T) {
	objects := sceneObjects(t, 2)
	raw := &RawPixels{
		Region: common.NewRect(0, 0, 1, 0),
		batches: []rawBatch{{
			objects: objects,
			object:  packed(1, 2),
			depth:   depths(0.8, 0.3),
		}},
	}

	hits := Decode(raw, raw.Region, AssociationNone)
	require.Len(t, hits, 2)
	assert.Equal(t, objects[1].ID(), hits[0].ObjectID, "depth orders hits even when it is not exposed")
	for _, h := range hits {
		assert.False(t, h.HasDepth)
		assert.Zero(t, h.Depth)
	}
}

func TestDecodeNearestBatchWins(t *testing.T) {
	objects := sceneObjects(t, 3)
	raw := &RawPixels{
		Region: common.NewRect(0, 0, 1, 0),
		Depth:  true,
		batches: []rawBatch{
			{objects: objects[:2], object: packed(1, 2), depth: depths(0.7, 0.4)},
			{objects: objects[2:], object: packed(1, 1), depth: depths(0.3, 0.4)},
		},
	}

	hits := Decode(raw, raw.Region, AssociationNone)
	require.Len(t, hits, 2)
	assert.Equal(t, objects[2].ID(), hits[0].ObjectID, "pixel 0: second batch is nearer")
	assert.Equal(t, objects[1].ID(), hits[1].ObjectID, "pixel 1: tie keeps the first batch")
}

func TestDecodeBackgroundAndSubRegion(t *testing.T) {
	objects := sceneObjects(t, 1)
	raw := &RawPixels{
		Region:  common.NewRect(10, 10, 12, 10),
		batches: []rawBatch{{objects: objects, object: packed(0, 0, 1)}},
	}

	empty := Decode(raw, common.NewRect(10, 10, 11, 10), AssociationNone)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	hits := Decode(raw, common.NewRect(12, 10, 12, 10), AssociationNone)
	require.Len(t, hits, 1)
	assert.Equal(t, 12, hits[0].X)
	assert.Equal(t, 10, hits[0].Y)
}

func TestPlanBatches(t *testing.T) {
	objects := sceneObjects(t, 5)

	assert.Len(t, planBatches(objects, renderer.MaxEncodedValue), 1)
	assert.Len(t, planBatches(nil, 4), 1, "an empty scene still encodes one batch")

	batches := planBatches(objects, 2)
	require.Len(t, batches, 3)
	assert.Len(t, batches[2], 1)
	assert.Same(t, objects[2], batches[1][0])
}

func TestFieldAssociationText(t *testing.T) {
	tests := []struct {
		text string
		want FieldAssociation
	}{
		{"cells", AssociationCells},
		{"POINTS", AssociationPoints},
		{"none", AssociationNone},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var got FieldAssociation
			require.NoError(t, got.UnmarshalText([]byte(tt.text)))
			assert.Equal(t, tt.want, got)
		})
	}

	var bad FieldAssociation
	assert.Error(t, bad.UnmarshalText([]byte("faces")))
}
