package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadBuffer holds four VEC3 positions of a unit quad followed by six ushort indices.
func quadBuffer(indices []uint16) []byte {
	var buf bytes.Buffer
	for _, p := range [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}} {
		_ = binary.Write(&buf, binary.LittleEndian, p)
	}
	_ = binary.Write(&buf, binary.LittleEndian, indices)
	return buf.Bytes()
}

// quadDocument describes quadBuffer as one mesh placed by one node.
func quadDocument(t *testing.T, uri string, byteLength, indexCount int, mode int, node map[string]any) []byte {
	t.Helper()
	node["mesh"] = 0
	doc := map[string]any{
		"asset":  map[string]any{"version": "2.0"},
		"scene":  0,
		"scenes": []any{map[string]any{"nodes": []int{0}}},
		"nodes":  []any{node},
		"meshes": []any{map[string]any{
			"name": "quad",
			"primitives": []any{map[string]any{
				"attributes": map[string]int{"POSITION": 0},
				"indices":    1,
				"mode":       mode,
			}},
		}},
		"accessors": []any{
			map[string]any{"bufferView": 0, "componentType": gltfComponentTypeFloat, "count": 4, "type": "VEC3"},
			map[string]any{"bufferView": 1, "componentType": gltfComponentTypeUnsignedShort, "count": indexCount, "type": "SCALAR"},
		},
		"bufferViews": []any{
			map[string]any{"buffer": 0, "byteOffset": 0, "byteLength": 48},
			map[string]any{"buffer": 0, "byteOffset": 48, "byteLength": indexCount * 2},
		},
	}
	buffer := map[string]any{"byteLength": byteLength}
	if uri != "" {
		buffer["uri"] = uri
	}
	doc["buffers"] = []any{buffer}
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return out
}

func embeddedQuad(t *testing.T, node map[string]any) []byte {
	data := quadBuffer([]uint16{0, 1, 2, 0, 2, 3})
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(data)
	return quadDocument(t, uri, len(data), 6, gltfModeTriangles, node)
}

func glb(jsonChunk, bin []byte) []byte {
	pad := func(b []byte, with byte) []byte {
		for len(b)%4 != 0 {
			b = append(b, with)
		}
		return b
	}
	jsonChunk, bin = pad(jsonChunk, ' '), pad(bin, 0)
	var out bytes.Buffer
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBHeader{
		Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(12 + 8 + len(jsonChunk) + 8 + len(bin)),
	})
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonChunk)), ChunkType: gltfGLBChunkJSON})
	out.Write(jsonChunk)
	_ = binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN})
	out.Write(bin)
	return out.Bytes()
}

func TestLoadReaderEmbeddedTriangles(t *testing.T) {
	l := NewLoader()
	m, err := l.LoadReader("quad", bytes.NewReader(embeddedQuad(t, map[string]any{"translation": []float32{2, 0, 0}})))
	require.NoError(t, err)

	assert.Equal(t, "quad", m.Name())
	assert.Equal(t, 4, m.PointCount())
	require.Equal(t, 2, m.CellCount())
	assert.Equal(t, model.CellPolygon, m.Cell(0).Kind)
	assert.Equal(t, []uint32{0, 2, 3}, m.Cell(1).Points)
	assert.Equal(t, [3]float32{3, 1, 0}, m.Point(2), "node translation is applied")
	assert.Same(t, m, l.Get("quad"))
}

func TestLoadReaderNodeRotationAndScale(t *testing.T) {
	// 90 degrees about +Z maps +X to +Y.
	half := float32(0.70710677)
	node := map[string]any{"rotation": []float32{0, 0, half, half}, "scale": []float32{2, 2, 2}}
	m, err := NewLoader().LoadReader("rotated", bytes.NewReader(embeddedQuad(t, node)))
	require.NoError(t, err)
	p := m.Point(1)
	assert.InDelta(t, 0, p[0], 1e-5)
	assert.InDelta(t, 2, p[1], 1e-5)
}

func TestLoadReaderGLB(t *testing.T) {
	data := quadBuffer([]uint16{0, 1, 2, 3})
	doc := quadDocument(t, "", len(data), 4, gltfModeLineStrip, map[string]any{})

	m, err := NewLoader().LoadReader("strip", bytes.NewReader(glb(doc, data)))
	require.NoError(t, err)
	require.Equal(t, 1, m.CellCount())
	assert.Equal(t, model.CellLine, m.Cell(0).Kind)
	assert.Equal(t, []uint32{0, 1, 2, 3}, m.Cell(0).Points)
}

func TestLoadExternalBufferIsCached(t *testing.T) {
	dir := t.TempDir()
	data := quadBuffer([]uint16{0, 1, 2, 0, 2, 3})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quad.bin"), data, 0o644))
	path := filepath.Join(dir, "panel.gltf")
	require.NoError(t, os.WriteFile(path, quadDocument(t, "quad.bin", len(data), 6, gltfModeTriangleFan, map[string]any{}), 0o644))

	l := NewLoader()
	m, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "panel", m.Name())
	assert.Equal(t, 4, m.CellCount(), "a fan over six indices yields four triangles")

	again, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, m, again)
	assert.Len(t, l.Models(), 1)
}

func TestLoadMeshNameFilter(t *testing.T) {
	_, err := NewLoader(WithMeshName("other")).LoadReader("quad", bytes.NewReader(embeddedQuad(t, map[string]any{})))
	assert.ErrorIs(t, err, errNoGeometry)

	cube := model.NewCube("cube", 1)
	l := NewLoader(WithModel("cube", cube))
	assert.Same(t, cube, l.Get("cube"))
}

func TestLoadErrors(t *testing.T) {
	l := NewLoader()

	_, err := l.LoadReader("version", bytes.NewReader([]byte(`{"asset":{"version":"1.0"}}`)))
	assert.ErrorIs(t, err, errInvalidGLTFVersion)

	data := quadBuffer([]uint16{0, 1, 9, 0, 2, 3})
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(data)
	_, err = l.LoadReader("range", bytes.NewReader(quadDocument(t, uri, len(data), 6, gltfModeTriangles, map[string]any{})))
	assert.ErrorContains(t, err, "index 9 exceeds 4 positions")

	short := quadBuffer(nil)
	uri = "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(short)
	_, err = l.LoadReader("short", bytes.NewReader(quadDocument(t, uri, len(short), 6, gltfModeTriangles, map[string]any{})))
	assert.ErrorIs(t, err, errOutOfBounds)

	_, err = l.LoadReader("external", bytes.NewReader(quadDocument(t, "quad.bin", 60, 6, gltfModeTriangles, map[string]any{})))
	assert.ErrorContains(t, err, "needs a file path")

	_, err = l.Load(filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)
	assert.Empty(t, l.Models())
}
