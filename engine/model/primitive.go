package model

// Representation selects how a model's cells are tessellated into drawable primitives.
type Representation int

const (
	// RepresentationSurface fills polygons, draws polylines as segments and vertices as points.
	RepresentationSurface Representation = iota
	// RepresentationWireframe draws polygon outlines and polylines as segments, vertices as points.
	RepresentationWireframe
	// RepresentationPoints draws every point referenced by every cell.
	RepresentationPoints
)

func (r Representation) String() string {
	switch r {
	case RepresentationWireframe:
		return "wireframe"
	case RepresentationPoints:
		return "points"
	default:
		return "surface"
	}
}

// Topology is the rasterized shape of a single Primitive.
type Topology int

const (
	TopologyPoint Topology = iota + 1
	TopologySegment
	TopologyTriangle
)

func (t Topology) String() string {
	switch t {
	case TopologyPoint:
		return "point"
	case TopologySegment:
		return "segment"
	case TopologyTriangle:
		return "triangle"
	default:
		return "unknown"
	}
}

// Arity returns the number of points of a primitive with this topology.
func (t Topology) Arity() int {
	return int(t)
}

// Primitive is one rasterizable element produced from a cell. Cell is the owning cell ID and
// Points holds the first Arity() point IDs of the primitive.
type Primitive struct {
	Topology Topology
	Cell     uint32
	Points   [3]uint32
}

// Tessellate expands the cells of a model into primitives for the given representation.
// Primitives come out in cell order, so draw order (and depth ties) is stable.
//
// Parameters:
//   - m: the model to tessellate
//   - rep: the representation to tessellate for
//
// Returns:
//   - []Primitive: the primitives in cell order
func Tessellate(m Model, rep Representation) []Primitive {
	var prims []Primitive
	for id, c := range m.Cells() {
		cell := uint32(id)
		if rep == RepresentationPoints {
			for _, p := range c.Points {
				prims = append(prims, Primitive{Topology: TopologyPoint, Cell: cell, Points: [3]uint32{p}})
			}
			continue
		}

		switch c.Kind {
		case CellVertex:
			for _, p := range c.Points {
				prims = append(prims, Primitive{Topology: TopologyPoint, Cell: cell, Points: [3]uint32{p}})
			}
		case CellLine:
			prims = appendSegments(prims, cell, c.Points, false)
		case CellPolygon:
			if rep == RepresentationWireframe {
				prims = appendSegments(prims, cell, c.Points, true)
				continue
			}
			for i := 1; i+1 < len(c.Points); i++ {
				prims = append(prims, Primitive{
					Topology: TopologyTriangle,
					Cell:     cell,
					Points:   [3]uint32{c.Points[0], c.Points[i], c.Points[i+1]},
				})
			}
		}
	}
	return prims
}

func appendSegments(prims []Primitive, cell uint32, pts []uint32, closed bool) []Primitive {
	for i := 0; i+1 < len(pts); i++ {
		prims = append(prims, Primitive{Topology: TopologySegment, Cell: cell, Points: [3]uint32{pts[i], pts[i+1]}})
	}
	if closed && len(pts) > 2 {
		prims = append(prims, Primitive{Topology: TopologySegment, Cell: cell, Points: [3]uint32{pts[len(pts)-1], pts[0]}})
	}
	return prims
}

// NearestVertex returns the index (0..arity-1) of the primitive vertex with the largest
// barycentric weight. Ties resolve to the lowest index.
//
// Parameters:
//   - bary: the barycentric weights of a fragment
//   - arity: the number of vertices of the primitive
//
// Returns:
//   - int: the winning vertex index
func NearestVertex(bary [3]float32, arity int) int {
	best := 0
	for i := 1; i < arity; i++ {
		if bary[i] > bary[best] {
			best = i
		}
	}
	return best
}
