package selector

import (
	"fmt"
	"strings"
)

// FieldAssociation selects what the attribute ID of a Hit refers to.
type FieldAssociation int

const (
	// AssociationCells reports the ID of the picked cell. This is the default.
	AssociationCells FieldAssociation = iota
	// AssociationPoints reports the ID of the point nearest to the picked fragment.
	AssociationPoints
	// AssociationNone reports objects only, skipping the attribute passes.
	AssociationNone
)

func (a FieldAssociation) String() string {
	switch a {
	case AssociationPoints:
		return "points"
	case AssociationNone:
		return "none"
	default:
		return "cells"
	}
}

// ParseFieldAssociation converts "cells", "points" or "none" (any case) into a FieldAssociation.
//
// Parameters:
//   - s: the association name
//
// Returns:
//   - FieldAssociation: the parsed mode
//   - error: an error for unknown names
func ParseFieldAssociation(s string) (FieldAssociation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cells", "cell", "":
		return AssociationCells, nil
	case "points", "point":
		return AssociationPoints, nil
	case "none":
		return AssociationNone, nil
	default:
		return AssociationCells, fmt.Errorf("unknown field association %q", s)
	}
}

// UnmarshalText lets a FieldAssociation be read from TOML and other text formats.
func (a *FieldAssociation) UnmarshalText(text []byte) error {
	v, err := ParseFieldAssociation(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// MarshalText writes the association name.
func (a FieldAssociation) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
