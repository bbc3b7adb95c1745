package types

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ClosureSnapshot freezes the subject and owner attributes at the moment a
// work order leaves OPEN. It is written once and never re-derived.
type ClosureSnapshot struct {
	Subject    SubjectRef         `json:"subject"`
	Aircraft   *AircraftSnapshot  `json:"aircraft,omitempty"`
	Component  *ComponentSnapshot `json:"component,omitempty"`
	Owners     []OwnerSnapshot    `json:"owners"`
	CapturedAt time.Time          `json:"captured_at"`
}

// AircraftSnapshot copies the aircraft registry row.
type AircraftSnapshot struct {
	Registration string  `json:"registration"`
	Manufacturer string  `json:"manufacturer"`
	Model        string  `json:"model"`
	SerialNumber string  `json:"serial_number"`
	BaseAirport  *string `json:"base_airport,omitempty"`
}

// ComponentSnapshot copies the external component registry row.
type ComponentSnapshot struct {
	PartNumber   string  `json:"part_number"`
	SerialNumber string  `json:"serial_number"`
	Description  string  `json:"description"`
	Manufacturer *string `json:"manufacturer,omitempty"`
}

// OwnerSnapshot copies one owner as listed on the subject at closure time.
type OwnerSnapshot struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   *string   `json:"email,omitempty"`
	Phone   *string   `json:"phone,omitempty"`
	Address *string   `json:"address,omitempty"`
}

// Value serializes the snapshot to JSON.
func (s *ClosureSnapshot) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes JSONB into the snapshot.
func (s *ClosureSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = ClosureSnapshot{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, s)
}
