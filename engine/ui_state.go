package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pick/engine/game_object"
	"github.com/Carmen-Shannon/oxy-pick/engine/selector"
)

// UIState is what the last processed pick left on screen: the highlighted object and the
// snapped cursor position. A zero UIState means nothing is under the cursor.
type UIState struct {
	// Seq is the sequence number of the pick that produced this state.
	Seq uint64

	Viewport int
	Object   game_object.GameObject
	ObjectID uint64

	CompositeID    int
	HasCompositeID bool

	AttributeID    uint64
	HasAttributeID bool
	Association    selector.FieldAssociation

	// Position is the cursor position: the picked point in POINTS mode, the cell point
	// nearest to the hit in CELLS mode, the raw hit otherwise.
	Position    [3]float32
	HasPosition bool
}

// Empty reports whether no object is highlighted.
func (s UIState) Empty() bool {
	return s.Object == nil
}

// AssociationLabel names what AttributeID refers to, or "" when there is none.
func (s UIState) AssociationLabel() string {
	if !s.HasAttributeID {
		return ""
	}
	if s.Association == selector.AssociationPoints {
		return "Point"
	}
	return "Cell"
}

func (s UIState) String() string {
	if s.Empty() {
		return "nothing picked"
	}
	out := fmt.Sprintf("viewport %d prop %d (%s)", s.Viewport, s.ObjectID, s.Object.Name())
	if s.HasCompositeID {
		out += fmt.Sprintf(" composite %d", s.CompositeID)
	}
	if label := s.AssociationLabel(); label != "" {
		out += fmt.Sprintf(" %s %d", label, s.AttributeID)
	}
	if s.HasPosition {
		out += fmt.Sprintf(" at (%.3f, %.3f, %.3f)", s.Position[0], s.Position[1], s.Position[2])
	}
	return out
}

// stateFromHit builds the UI state of the nearest hit and snaps the cursor.
func stateFromHit(seq uint64, viewportID int, association selector.FieldAssociation, hit selector.Hit) UIState {
	state := UIState{
		Seq:            seq,
		Viewport:       viewportID,
		Object:         hit.Object,
		ObjectID:       hit.ObjectID,
		CompositeID:    hit.CompositeID,
		HasCompositeID: hit.HasCompositeID,
		AttributeID:    hit.AttributeID,
		HasAttributeID: hit.HasAttributeID,
		Association:    association,
	}

	world, hasWorld := hit.WorldPosition()
	state.Position, state.HasPosition = world, hasWorld
	if !hit.HasAttributeID {
		return state
	}
	instance := hit.CompositeID
	switch association {
	case selector.AssociationPoints:
		if p, ok := game_object.PointWorldPosition(hit.Object, instance, uint32(hit.AttributeID)); ok {
			state.Position, state.HasPosition = p, true
		}
	case selector.AssociationCells:
		if !hasWorld {
			break
		}
		if p, _, ok := game_object.NearestCellPoint(hit.Object, instance, uint32(hit.AttributeID), world); ok {
			state.Position = p
		}
	}
	return state
}
