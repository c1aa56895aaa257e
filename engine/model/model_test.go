package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multiPrimitive() Model {
	// Same layout as a mixed actor: one vertex, one line, one triangle.
	return NewModel(
		WithName("multi"),
		WithPoints([][3]float32{{1, 0.75, 0}, {2, 1, 0}, {2, 0.75, 0}, {1.5, 1, 0}, {1, 0.5, 0}, {2, 0.5, 0}}),
		WithPolygons([]uint32{3, 4, 5}),
		WithLines([]uint32{1, 2}),
		WithVertices(0),
	)
}

func TestNewModelCellOrder(t *testing.T) {
	m := multiPrimitive()
	require.Equal(t, 3, m.CellCount())
	assert.Equal(t, 6, m.PointCount())

	assert.Equal(t, CellVertex, m.Cell(0).Kind)
	assert.Equal(t, CellLine, m.Cell(1).Kind)
	assert.Equal(t, CellPolygon, m.Cell(2).Kind)
	assert.Equal(t, []uint32{3, 4, 5}, m.Cell(2).Points)
}

func TestNewModelBounds(t *testing.T) {
	m := NewCube("cube", 2)
	lo, hi := m.Bounds()
	assert.Equal(t, [3]float32{-1, -1, -1}, lo)
	assert.Equal(t, [3]float32{1, 1, 1}, hi)
	assert.Equal(t, [3]float32{0, 0, 0}, m.Center())
	assert.InDelta(t, math.Sqrt(3), m.BoundingRadius(), 1e-5)
}

func TestNewModelPanicsOnBadCells(t *testing.T) {
	assert.Panics(t, func() {
		NewModel(WithPoints([][3]float32{{0, 0, 0}}), WithTriangles([]uint32{0, 1, 2}))
	})
	assert.Panics(t, func() {
		NewModel(WithPoints([][3]float32{{0, 0, 0}, {1, 0, 0}}), WithLines([]uint32{0}))
	})
}

func TestTessellate(t *testing.T) {
	m := multiPrimitive()

	surface := Tessellate(m, RepresentationSurface)
	require.Len(t, surface, 3)
	assert.Equal(t, TopologyPoint, surface[0].Topology)
	assert.Equal(t, TopologySegment, surface[1].Topology)
	assert.Equal(t, Primitive{Topology: TopologyTriangle, Cell: 2, Points: [3]uint32{3, 4, 5}}, surface[2])

	wire := Tessellate(m, RepresentationWireframe)
	require.Len(t, wire, 5)
	for _, p := range wire[2:] {
		assert.Equal(t, TopologySegment, p.Topology)
		assert.Equal(t, uint32(2), p.Cell)
	}

	points := Tessellate(m, RepresentationPoints)
	require.Len(t, points, 6)
	assert.Equal(t, uint32(1), points[1].Cell)
	assert.Equal(t, uint32(2), points[2].Points[0])
}

func TestTessellatePolygonFan(t *testing.T) {
	cube := NewCube("cube", 1)
	prims := Tessellate(cube, RepresentationSurface)
	require.Len(t, prims, 12)
	assert.Equal(t, uint32(0), prims[0].Cell)
	assert.Equal(t, uint32(0), prims[1].Cell)
	assert.Equal(t, uint32(5), prims[11].Cell)
}

func TestNearestVertex(t *testing.T) {
	assert.Equal(t, 0, NearestVertex([3]float32{0.4, 0.3, 0.3}, 3))
	assert.Equal(t, 2, NearestVertex([3]float32{0.2, 0.3, 0.5}, 3))
	assert.Equal(t, 0, NearestVertex([3]float32{0.5, 0.5, 0}, 2), "ties resolve to the lowest index")
	assert.Equal(t, 1, NearestVertex([3]float32{0.25, 0.75, 0.9}, 2), "weights past arity are ignored")
}

func TestBuildPickVertices(t *testing.T) {
	m := multiPrimitive()
	prims := Tessellate(m, RepresentationSurface)

	data, n := BuildPickVertices(m, prims, TopologyTriangle)
	require.Equal(t, 3, n)
	require.Len(t, data, 3*40)

	// Second vertex of the triangle: point 4, barycentric (0,1,0), cell 2.
	v := data[40:80]
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(v[0:])))
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(v[4:])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(v[16:])))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(v[24:]))
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(v[32:]))

	_, n = BuildPickVertices(NewCube("c", 1), Tessellate(NewCube("c", 1), RepresentationSurface), TopologyPoint)
	assert.Zero(t, n)
}

func TestSources(t *testing.T) {
	s := NewSphere("sphere", 0.5, 30, 30)
	assert.Equal(t, 2+29*30, s.PointCount())
	assert.Equal(t, 2*30*29, s.CellCount())
	assert.InDelta(t, 0.5, s.BoundingRadius(), 1e-4)

	c := NewCone("cone", 0.5, 1, 20)
	assert.Equal(t, 21, c.CellCount())
	assert.Len(t, c.Cell(20).Points, 20)

	cyl := NewCylinder("cyl", 0.4, 0.6, 10)
	assert.Equal(t, 20, cyl.PointCount())
	assert.Equal(t, 12, cyl.CellCount())
}
