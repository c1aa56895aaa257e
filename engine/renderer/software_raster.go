package renderer

import (
	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/model"
	"github.com/chewxy/math32"
)

// fragment is a covered pixel produced by the rasterizer.
type fragment struct {
	x, y  int
	z     float32
	cell  uint32
	point uint32 // nearest primitive vertex
}

// screenVertex is a projected vertex in viewport pixel space (bottom-left origin, pixel
// centers at +0.5) with NDC depth.
type screenVertex struct {
	x, y, z float32
	ok      bool // false when the vertex is behind the eye
}

// project maps the model points of one instance into screen space.
func project(mvp []float32, m model.Model, width, height int) []screenVertex {
	out := make([]screenVertex, m.PointCount())
	for i := range out {
		p := m.Point(uint32(i))
		c := common.TransformPoint(mvp, p[0], p[1], p[2])
		if c[3] <= 1e-6 {
			continue
		}
		out[i] = screenVertex{
			x:  (c[0]/c[3] + 1) * 0.5 * float32(width),
			y:  (c[1]/c[3] + 1) * 0.5 * float32(height),
			z:  c[2] / c[3],
			ok: true,
		}
	}
	return out
}

// rasterizer walks primitives and emits the fragments that pass clipping. Depth testing is
// left to the caller so display and encode passes share the coverage rules.
type rasterizer struct {
	width, height int
	pointSize     int
	emit          func(f fragment)

	cell uint32 // owning cell of the primitive being rasterized
}

func (r *rasterizer) primitive(p model.Primitive, verts []screenVertex) {
	r.cell = p.Cell
	switch p.Topology {
	case model.TopologyTriangle:
		r.triangle(p, verts[p.Points[0]], verts[p.Points[1]], verts[p.Points[2]])
	case model.TopologySegment:
		r.segment(p, verts[p.Points[0]], verts[p.Points[1]])
	case model.TopologyPoint:
		r.point(p.Points[0], verts[p.Points[0]])
	}
}

func (r *rasterizer) triangle(p model.Primitive, a, b, c screenVertex) {
	if !a.ok || !b.ok || !c.ok {
		return
	}
	area := edge(a, b, c.x, c.y)
	if area == 0 {
		return
	}

	minX := max(int(math32.Floor(min(a.x, b.x, c.x))), 0)
	maxX := min(int(math32.Ceil(max(a.x, b.x, c.x))), r.width-1)
	minY := max(int(math32.Floor(min(a.y, b.y, c.y))), 0)
	maxY := min(int(math32.Ceil(max(a.y, b.y, c.y))), r.height-1)

	inv := 1 / area
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(b, c, px, py) * inv
			w1 := edge(c, a, px, py) * inv
			w2 := edge(a, b, px, py) * inv
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			r.fragment(x, y, w0*a.z+w1*b.z+w2*c.z, p.Points, [3]float32{w0, w1, w2}, 3)
		}
	}
}

func (r *rasterizer) segment(p model.Primitive, a, b screenVertex) {
	if !a.ok || !b.ok {
		return
	}
	dx, dy := b.x-a.x, b.y-a.y
	steps := int(math32.Ceil(max(math32.Abs(dx), math32.Abs(dy))))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float32(i) / float32(steps)
		x := int(math32.Floor(a.x + dx*t))
		y := int(math32.Floor(a.y + dy*t))
		if x < 0 || y < 0 || x >= r.width || y >= r.height {
			continue
		}
		r.fragment(x, y, a.z+(b.z-a.z)*t, p.Points, [3]float32{1 - t, t, 0}, 2)
	}
}

func (r *rasterizer) point(id uint32, v screenVertex) {
	if !v.ok {
		return
	}
	size := max(r.pointSize, 1)
	x0 := int(math32.Floor(v.x - float32(size)/2 + 0.5))
	y0 := int(math32.Floor(v.y - float32(size)/2 + 0.5))
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			if x < 0 || y < 0 || x >= r.width || y >= r.height {
				continue
			}
			r.fragment(x, y, v.z, [3]uint32{id}, [3]float32{1}, 1)
		}
	}
}

func (r *rasterizer) fragment(x, y int, z float32, points [3]uint32, bary [3]float32, arity int) {
	if z < 0 || z > 1 {
		return
	}
	r.emit(fragment{x: x, y: y, z: z, cell: r.cell, point: points[model.NearestVertex(bary, arity)]})
}

// edge is the signed doubled area of (a, b, p).
func edge(a, b screenVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}
