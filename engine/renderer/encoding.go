package renderer

import (
	"github.com/Carmen-Shannon/oxy-pick/engine/game_object"
)

// MaxEncodedValue is the largest value a single pass can write into the RGB channels.
const MaxEncodedValue = 1<<24 - 1

// Quantity selects what an offscreen encoding pass writes into each covered pixel.
type Quantity uint32

const (
	// QuantityObject writes the batch-local object code. Code 0 is reserved for background.
	QuantityObject Quantity = iota
	// QuantityComposite writes the glyph instance index.
	QuantityComposite
	// QuantityAttributeLow writes the low 24 bits of the cell or point ID.
	QuantityAttributeLow
	// QuantityAttributeHigh writes the bits of the cell or point ID above the low 24.
	QuantityAttributeHigh
)

func (q Quantity) String() string {
	switch q {
	case QuantityObject:
		return "object"
	case QuantityComposite:
		return "composite"
	case QuantityAttributeLow:
		return "attribute_low24"
	case QuantityAttributeHigh:
		return "attribute_high24"
	default:
		return "unknown"
	}
}

// Attribute selects which ID the attribute quantities encode.
type Attribute uint32

const (
	// AttributeCell encodes the ID of the cell that owns the fragment.
	AttributeCell Attribute = iota
	// AttributePoint encodes the ID of the primitive vertex nearest to the fragment.
	AttributePoint
)

// EncodedDraw pairs an object with the code it is drawn with in one batch.
type EncodedDraw struct {
	Object game_object.GameObject
	Code   uint32
}

// Encoding describes one offscreen ID pass. Every pass of a batch carries the same Draws in
// the same order and the same ViewProj, so the depth test picks identical winners in each.
// Display colors are never consulted.
type Encoding struct {
	Quantity     Quantity
	Attribute    Attribute
	Draws        []EncodedDraw
	ViewProj     [16]float32
	CaptureDepth bool

	// Slot keys the offscreen target so the targets of several passes can coexist until
	// they are read back. Encoding a slot again overwrites it.
	Slot int
}

// Value returns the 24-bit value written for a fragment.
//
// Parameters:
//   - code: the object code of the draw
//   - instance: the glyph instance index
//   - cell: the owning cell ID
//   - point: the nearest primitive vertex's point ID
//
// Returns:
//   - uint32: the value to pack, at most MaxEncodedValue
func (e Encoding) Value(code uint32, instance int, cell, point uint32) uint32 {
	id := cell
	if e.Attribute == AttributePoint {
		id = point
	}
	switch e.Quantity {
	case QuantityObject:
		return code & MaxEncodedValue
	case QuantityComposite:
		return uint32(instance) & MaxEncodedValue
	case QuantityAttributeHigh:
		return id >> 24
	default:
		return id & MaxEncodedValue
	}
}

// PackValue stores a 24-bit value as an RGBA8 pixel: R holds bits 0-7, G bits 8-15, B bits
// 16-23 and A is always 255. Bits above 23 are dropped.
//
// Parameters:
//   - v: the value to pack
//
// Returns:
//   - [4]byte: the RGBA8 pixel
func PackValue(v uint32) [4]byte {
	return [4]byte{byte(v), byte(v >> 8), byte(v >> 16), 255}
}

// UnpackValue reverses PackValue. The alpha channel is ignored.
//
// Parameters:
//   - px: at least 3 bytes of an RGBA8 pixel
//
// Returns:
//   - uint32: the 24-bit value
func UnpackValue(px []byte) uint32 {
	return uint32(px[0]) | uint32(px[1])<<8 | uint32(px[2])<<16
}
