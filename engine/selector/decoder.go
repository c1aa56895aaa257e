package selector

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/renderer"
)

type hitKey struct {
	object    uint64
	composite int
	attribute uint64
}

// candidate is the winner of one batch at one pixel.
type candidate struct {
	batch *rawBatch
	code  uint32
	depth float32
}

// Decode turns the pixels of a region into hits. Background pixels are skipped. When several
// batches cover a pixel the nearest depth wins. Identical (object, composite, attribute)
// triples are merged keeping their minimum depth. Hits come out nearest first whenever every
// batch carries depth, or in scan order (rows bottom to top, left to right) otherwise.
//
// Parameters:
//   - raw: the captured pixels
//   - region: the rectangle to decode, clipped to raw.Region
//   - association: AssociationNone drops attribute IDs; other modes report what was encoded
//
// Returns:
//   - []*Hit: the ordered hits, empty (never nil) when every pixel is background
func Decode(raw *RawPixels, region common.Rect, association FieldAssociation) []*Hit {
	hits := []*Hit{}
	clip := common.Rect{
		X0: max(region.X0, raw.Region.X0),
		Y0: max(region.Y0, raw.Region.Y0),
		X1: min(region.X1, raw.Region.X1),
		Y1: min(region.Y1, raw.Region.Y1),
	}
	if clip.Inverted() {
		return hits
	}

	index := make(map[hitKey]*Hit)
	rowPixels := raw.Region.Width()
	for y := clip.Y0; y <= clip.Y1; y++ {
		for x := clip.X0; x <= clip.X1; x++ {
			i := (y-raw.Region.Y0)*rowPixels + (x - raw.Region.X0)
			best, ok := raw.winner(i)
			if !ok {
				continue
			}
			hit, ok := raw.hitAt(best, i, x, y, association)
			if !ok {
				continue
			}

			key := hitKey{object: hit.ObjectID, composite: hit.CompositeID, attribute: hit.AttributeID}
			if prev, seen := index[key]; seen {
				if hit.Depth < prev.Depth {
					prev.Depth, prev.X, prev.Y = hit.Depth, x, y
				}
				continue
			}
			index[key] = hit
			hits = append(hits, hit)
		}
	}

	if raw.ordered() {
		slices.SortStableFunc(hits, func(a, b *Hit) int {
			switch {
			case a.Depth < b.Depth:
				return -1
			case a.Depth > b.Depth:
				return 1
			default:
				return 0
			}
		})
	}
	if !raw.Depth {
		for _, h := range hits {
			h.Depth = 0
		}
	}
	return hits
}

// ordered reports whether every batch carries depth to sort by.
func (raw *RawPixels) ordered() bool {
	for i := range raw.batches {
		if raw.batches[i].depth == nil {
			return false
		}
	}
	return len(raw.batches) > 0
}

// winner picks the nearest non-background batch at pixel i.
func (raw *RawPixels) winner(i int) (candidate, bool) {
	var best candidate
	found := false
	off := i * renderer.BytesPerPixel
	for b := range raw.batches {
		batch := &raw.batches[b]
		code := renderer.UnpackValue(batch.object[off:])
		if code == 0 {
			continue
		}
		var depth float32
		if batch.depth != nil {
			depth = renderer.DepthAt(batch.depth, i)
		}
		// Ties keep the earlier batch, matching the draw-order tie rule within a pass.
		if !found || depth < best.depth {
			best = candidate{batch: batch, code: code, depth: depth}
			found = true
		}
	}
	return best, found
}

func (raw *RawPixels) hitAt(c candidate, i, x, y int, association FieldAssociation) (*Hit, bool) {
	if int(c.code) > len(c.batch.objects) {
		return nil, false
	}
	obj := c.batch.objects[c.code-1]
	off := i * renderer.BytesPerPixel
	hit := &Hit{
		Object:      obj,
		ObjectID:    obj.ID(),
		Depth:       c.depth,
		HasDepth:    raw.Depth,
		X:           x,
		Y:           y,
		invViewProj: raw.invViewProj,
		width:       raw.width,
		height:      raw.height,
		world:       &worldCache{},
	}
	if c.batch.composite != nil && obj.InstanceCount() > 1 {
		hit.CompositeID = int(renderer.UnpackValue(c.batch.composite[off:]))
		hit.HasCompositeID = true
	}
	if association != AssociationNone && c.batch.attrLow != nil {
		id := uint64(renderer.UnpackValue(c.batch.attrLow[off:]))
		if c.batch.attrHigh != nil {
			id |= uint64(renderer.UnpackValue(c.batch.attrHigh[off:])) << 24
		}
		hit.AttributeID = id
		hit.HasAttributeID = true
	}
	return hit, true
}
