package types

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hangarops/hangar-backend/pkg/enums"
)

// SubjectRef identifies the aircraft or external component a work order is
// performed on. Exactly one kind is carried, so "both" and "neither" cannot be
// represented.
type SubjectRef struct {
	Kind enums.SubjectKind `json:"kind"`
	ID   uuid.UUID         `json:"id"`
}

// AircraftSubject builds a subject reference for an aircraft.
func AircraftSubject(id uuid.UUID) SubjectRef {
	return SubjectRef{Kind: enums.SubjectKindAircraft, ID: id}
}

// ComponentSubject builds a subject reference for an external component.
func ComponentSubject(id uuid.UUID) SubjectRef {
	return SubjectRef{Kind: enums.SubjectKindComponent, ID: id}
}

// Validate checks the reference is well formed (existence is checked elsewhere).
func (s SubjectRef) Validate() error {
	if !s.Kind.IsValid() {
		return fmt.Errorf("invalid subject kind %q", s.Kind)
	}
	if s.ID == uuid.Nil {
		return fmt.Errorf("subject id is required")
	}
	return nil
}

// IsAircraft reports whether the subject is an aircraft.
func (s SubjectRef) IsAircraft() bool {
	return s.Kind == enums.SubjectKindAircraft
}

// String implements fmt.Stringer.
func (s SubjectRef) String() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.ID)
}
