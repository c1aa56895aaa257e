package model

// ModelBuilderOption is a functional option applied to a model during NewModel.
type ModelBuilderOption func(*model)

// WithName sets the model's identifier.
//
// Parameters:
//   - name: the model name
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithPoints sets the model-space point positions. The slice is copied.
//
// Parameters:
//   - points: the point positions
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithPoints(points [][3]float32) ModelBuilderOption {
	return func(m *model) {
		m.points = append([][3]float32(nil), points...)
	}
}

// WithVertices adds one vertex cell per given point ID.
//
// Parameters:
//   - ids: the point IDs to turn into vertex cells
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithVertices(ids ...uint32) ModelBuilderOption {
	return func(m *model) {
		for _, id := range ids {
			m.pendingVerts = append(m.pendingVerts, Cell{Kind: CellVertex, Points: []uint32{id}})
		}
	}
}

// WithLines adds polyline cells, each a list of two or more point IDs.
//
// Parameters:
//   - lines: the polylines
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithLines(lines ...[]uint32) ModelBuilderOption {
	return func(m *model) {
		for _, l := range lines {
			m.pendingLines = append(m.pendingLines, Cell{Kind: CellLine, Points: append([]uint32(nil), l...)})
		}
	}
}

// WithPolygons adds convex polygon cells, each a list of three or more point IDs.
//
// Parameters:
//   - polys: the polygons
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithPolygons(polys ...[]uint32) ModelBuilderOption {
	return func(m *model) {
		for _, p := range polys {
			m.pendingPolys = append(m.pendingPolys, Cell{Kind: CellPolygon, Points: append([]uint32(nil), p...)})
		}
	}
}

// WithTriangles adds one triangle cell per consecutive triple of the flat index list.
// A trailing partial triple is ignored.
//
// Parameters:
//   - indices: flat triangle indices
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithTriangles(indices []uint32) ModelBuilderOption {
	return func(m *model) {
		for i := 0; i+2 < len(indices); i += 3 {
			m.pendingPolys = append(m.pendingPolys, Cell{
				Kind:   CellPolygon,
				Points: []uint32{indices[i], indices[i+1], indices[i+2]},
			})
		}
	}
}
