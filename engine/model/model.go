package model

import (
	"fmt"

	"github.com/chewxy/math32"
)

type model struct {
	name   string
	points [][3]float32

	// cells are ordered vertices first, then lines, then polygons; a cell's ID is its index.
	cells []Cell

	pendingVerts []Cell
	pendingLines []Cell
	pendingPolys []Cell

	boundsMin, boundsMax [3]float32
	center               [3]float32
	boundingRadius       float32
}

// Model is immutable pickable geometry: a list of points and the cells that connect them.
// Cell IDs are dense in [0, CellCount()) and point IDs in [0, PointCount()).
type Model interface {
	// Name returns the model's identifier.
	Name() string

	// PointCount returns the number of points in the model.
	//
	// Returns:
	//   - int: the number of points
	PointCount() int

	// CellCount returns the number of cells in the model.
	//
	// Returns:
	//   - int: the number of cells
	CellCount() int

	// Point returns the model-space position of a point.
	//
	// Parameters:
	//   - id: the point index
	//
	// Returns:
	//   - [3]float32: the point position in model space
	Point(id uint32) [3]float32

	// Cell returns a cell by ID. The returned Points slice must not be modified.
	//
	// Parameters:
	//   - id: the cell index
	//
	// Returns:
	//   - Cell: the cell
	Cell(id uint32) Cell

	// Cells returns every cell in ID order. The slice must not be modified.
	Cells() []Cell

	// Bounds returns the axis-aligned bounding box in model space.
	//
	// Returns:
	//   - min, max: the box corners
	Bounds() (min, max [3]float32)

	// Center returns the center of the bounding box in model space.
	Center() [3]float32

	// BoundingRadius returns the radius of the sphere around Center enclosing every point.
	BoundingRadius() float32
}

var _ Model = &model{}

// NewModel creates a Model from the given options. Cells referencing points outside the
// point list, or carrying fewer points than their kind requires, are programmer errors and
// cause a panic.
//
// Parameters:
//   - options: functional options providing points and cells
//
// Returns:
//   - Model: the assembled model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{name: "model"}
	for _, opt := range options {
		opt(m)
	}

	m.cells = make([]Cell, 0, len(m.pendingVerts)+len(m.pendingLines)+len(m.pendingPolys))
	m.cells = append(m.cells, m.pendingVerts...)
	m.cells = append(m.cells, m.pendingLines...)
	m.cells = append(m.cells, m.pendingPolys...)
	m.pendingVerts, m.pendingLines, m.pendingPolys = nil, nil, nil

	for i, c := range m.cells {
		if len(c.Points) < c.Kind.MinPoints() {
			panic(fmt.Sprintf("model %q: %s cell %d has %d points", m.name, c.Kind, i, len(c.Points)))
		}
		for _, p := range c.Points {
			if int(p) >= len(m.points) {
				panic(fmt.Sprintf("model %q: cell %d references point %d of %d", m.name, i, p, len(m.points)))
			}
		}
	}

	m.computeBounds()
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) PointCount() int {
	return len(m.points)
}

func (m *model) CellCount() int {
	return len(m.cells)
}

func (m *model) Point(id uint32) [3]float32 {
	return m.points[id]
}

func (m *model) Cell(id uint32) Cell {
	return m.cells[id]
}

func (m *model) Cells() []Cell {
	return m.cells
}

func (m *model) Bounds() (min, max [3]float32) {
	return m.boundsMin, m.boundsMax
}

func (m *model) Center() [3]float32 {
	return m.center
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) computeBounds() {
	if len(m.points) == 0 {
		return
	}
	m.boundsMin, m.boundsMax = m.points[0], m.points[0]
	for _, p := range m.points[1:] {
		for i := 0; i < 3; i++ {
			m.boundsMin[i] = math32.Min(m.boundsMin[i], p[i])
			m.boundsMax[i] = math32.Max(m.boundsMax[i], p[i])
		}
	}
	for i := 0; i < 3; i++ {
		m.center[i] = (m.boundsMin[i] + m.boundsMax[i]) / 2
	}
	for _, p := range m.points {
		dx, dy, dz := p[0]-m.center[0], p[1]-m.center[1], p[2]-m.center[2]
		m.boundingRadius = math32.Max(m.boundingRadius, math32.Sqrt(dx*dx+dy*dy+dz*dz))
	}
}
