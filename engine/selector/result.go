package selector

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/game_object"
)

// Hit is one decoded (object, composite, attribute) triple of a pick region. A Selection
// hands out copies, so changing a Hit never affects other holders of the same pick.
type Hit struct {
	// Object is the picked object and ObjectID its scene ID at encode time.
	Object   game_object.GameObject
	ObjectID uint64

	// CompositeID is the glyph instance index. HasCompositeID is false for objects drawn once.
	CompositeID    int
	HasCompositeID bool

	// AttributeID is the cell or point ID selected by the association. HasAttributeID is
	// false with AssociationNone.
	AttributeID    uint64
	HasAttributeID bool

	// Depth is the nearest NDC depth in [0, 1] among the pixels of this hit. HasDepth is
	// false and Depth zero when z values were not requested for a single batch pick.
	Depth    float32
	HasDepth bool

	// X and Y are the viewport-local pixel (bottom-left origin) where Depth was found.
	X, Y int

	invViewProj   [16]float32
	width, height int

	// world is shared by every copy of the hit.
	world *worldCache
}

type worldCache struct {
	once sync.Once
	pos  [3]float32
	ok   bool
}

// WorldPosition unprojects the hit pixel and depth through the inverse view-projection the
// viewport had when it was encoded. The result is computed on first call and cached.
//
// Returns:
//   - [3]float32: the world-space position
//   - bool: false when depth was not captured or the pixel maps to infinity
func (h Hit) WorldPosition() ([3]float32, bool) {
	if !h.HasDepth {
		return [3]float32{}, false
	}
	if h.world == nil {
		return common.Unproject(h.invViewProj[:], h.X, h.Y, h.Depth, h.width, h.height)
	}
	h.world.once.Do(func() {
		h.world.pos, h.world.ok = common.Unproject(h.invViewProj[:], h.X, h.Y, h.Depth, h.width, h.height)
	})
	return h.world.pos, h.world.ok
}

// Selection is the immutable outcome of one pick.
type Selection struct {
	viewportID  int
	region      common.Rect
	association FieldAssociation
	hits        []*Hit
}

// ViewportID returns the picked viewport.
func (s *Selection) ViewportID() int {
	return s.viewportID
}

// Region returns the picked rectangle.
func (s *Selection) Region() common.Rect {
	return s.region
}

// Association returns the field association the pick was encoded with.
func (s *Selection) Association() FieldAssociation {
	return s.association
}

// Len returns the number of hits.
func (s *Selection) Len() int {
	return len(s.hits)
}

// Empty reports whether nothing was under the region.
func (s *Selection) Empty() bool {
	return len(s.hits) == 0
}

// Hits returns copies of the hits nearest first.
//
// Returns:
//   - []Hit: the ordered hits
func (s *Selection) Hits() []Hit {
	out := make([]Hit, len(s.hits))
	for i, h := range s.hits {
		out[i] = *h
	}
	return out
}

// Nearest returns the first hit.
//
// Returns:
//   - Hit: a copy of the nearest hit
//   - bool: false when the selection is empty
func (s *Selection) Nearest() (Hit, bool) {
	if len(s.hits) == 0 {
		return Hit{}, false
	}
	return *s.hits[0], true
}
