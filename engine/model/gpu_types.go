package model

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUPickVertex is the non-indexed vertex layout streamed to the ID encoding pipelines.
// Every primitive is expanded into its own vertices so the flat attributes can carry the
// owning cell and the primitive's point IDs.
type GPUPickVertex struct {
	Position    [3]float32 // offset  0: model-space position (12 bytes)
	Barycentric [3]float32 // offset 12: one-hot weight of this vertex within its primitive (12 bytes)
	Cell        uint32     // offset 24: owning cell ID (4 bytes)
	Points      [3]uint32  // offset 28: point IDs of the primitive (12 bytes)
}

// Size returns the byte size of one vertex (40).
func (g *GPUPickVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal encodes the vertex as little-endian bytes matching the WGSL vertex input.
func (g *GPUPickVertex) Marshal() []byte {
	buf := make([]byte, 40)
	g.MarshalTo(buf)
	return buf
}

// MarshalTo encodes the vertex into buf, which must hold at least 40 bytes.
func (g *GPUPickVertex) MarshalTo(buf []byte) {
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Position[i]))
		binary.LittleEndian.PutUint32(buf[12+i*4:], math.Float32bits(g.Barycentric[i]))
		binary.LittleEndian.PutUint32(buf[28+i*4:], g.Points[i])
	}
	binary.LittleEndian.PutUint32(buf[24:], g.Cell)
}

// BuildPickVertices expands primitives of a single topology into a vertex stream.
// Primitives of other topologies are skipped.
//
// Parameters:
//   - m: the model providing point positions
//   - prims: the primitives to expand
//   - topology: the topology to keep
//
// Returns:
//   - []byte: marshaled vertex data
//   - int: number of vertices written
func BuildPickVertices(m Model, prims []Primitive, topology Topology) ([]byte, int) {
	n := 0
	for _, p := range prims {
		if p.Topology == topology {
			n += topology.Arity()
		}
	}
	if n == 0 {
		return nil, 0
	}

	var v GPUPickVertex
	stride := v.Size()
	out := make([]byte, n*stride)
	off := 0
	for _, p := range prims {
		if p.Topology != topology {
			continue
		}
		for k := 0; k < topology.Arity(); k++ {
			v = GPUPickVertex{
				Position: m.Point(p.Points[k]),
				Cell:     p.Cell,
				Points:   p.Points,
			}
			v.Barycentric[k] = 1
			v.MarshalTo(out[off:])
			off += stride
		}
	}
	return out, n
}
