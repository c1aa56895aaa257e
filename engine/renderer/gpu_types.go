package renderer

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-pick/common"
)

const (
	// drawUniformSize is the byte size of one GPUDrawUniform.
	drawUniformSize = 96

	// drawUniformStride is the dynamic offset step between draws. WebGPU requires dynamic
	// uniform offsets to be aligned to minUniformBufferOffsetAlignment (256 by default).
	drawUniformStride = 256
)

// GPUDrawUniform is the per-draw uniform of pick.wgsl. One is written per object instance.
type GPUDrawUniform struct {
	Model     [16]float32  // offset  0: instance model matrix (64 bytes)
	Color     common.Color // offset 64: display color (16 bytes)
	Code      uint32       // offset 80: batch-local object code
	Quantity  Quantity     // offset 84: which value fs_encode writes
	Attribute Attribute    // offset 88: cell or point IDs
	Instance  uint32       // offset 92: glyph instance index
}

// Size returns the byte size of the uniform (96).
func (g *GPUDrawUniform) Size() int {
	return drawUniformSize
}

// MarshalTo encodes the uniform into buf, which must hold at least Size bytes.
func (g *GPUDrawUniform) MarshalTo(buf []byte) {
	for i, v := range g.Model {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	for i, v := range g.Color {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[80:], g.Code)
	binary.LittleEndian.PutUint32(buf[84:], uint32(g.Quantity))
	binary.LittleEndian.PutUint32(buf[88:], uint32(g.Attribute))
	binary.LittleEndian.PutUint32(buf[92:], g.Instance)
}

// marshalDraws packs uniforms at drawUniformStride intervals for a dynamic-offset buffer.
func marshalDraws(draws []GPUDrawUniform) []byte {
	out := make([]byte, len(draws)*drawUniformStride)
	for i := range draws {
		draws[i].MarshalTo(out[i*drawUniformStride:])
	}
	return out
}

// drawUniforms flattens items into one uniform per instance, in draw order.
func drawUniforms(items []DrawItem, enc Encoding) []GPUDrawUniform {
	n := 0
	for _, item := range items {
		n += len(item.Instances)
	}
	out := make([]GPUDrawUniform, 0, n)
	for _, item := range items {
		for i, m := range item.Instances {
			u := GPUDrawUniform{
				Color:     item.Color,
				Code:      item.Code,
				Quantity:  enc.Quantity,
				Attribute: enc.Attribute,
				Instance:  uint32(i),
			}
			copy(u.Model[:], m)
			out = append(out, u)
		}
	}
	return out
}
