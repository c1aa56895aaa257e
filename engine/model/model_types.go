package model

// CellKind identifies the primitive type of a cell.
type CellKind int

const (
	// CellVertex is a single point (or poly-vertex) cell, rasterized as points.
	CellVertex CellKind = iota
	// CellLine is a polyline of two or more points, rasterized as connected segments.
	CellLine
	// CellPolygon is a convex polygon of three or more points, rasterized as a triangle fan.
	CellPolygon
)

func (k CellKind) String() string {
	switch k {
	case CellVertex:
		return "vertex"
	case CellLine:
		return "line"
	case CellPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// MinPoints returns the smallest number of points a cell of this kind may reference.
func (k CellKind) MinPoints() int {
	switch k {
	case CellLine:
		return 2
	case CellPolygon:
		return 3
	default:
		return 1
	}
}

// Cell is one topological element of a Model. Points index into the model's point list.
type Cell struct {
	Kind   CellKind
	Points []uint32
}
