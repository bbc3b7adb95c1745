package models

import (
	"time"

	"github.com/google/uuid"
)

// Employee is a technician or certifier that can be staffed on work orders.
type Employee struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	FirstName     string     `gorm:"column:first_name;not null"`
	LastName      string     `gorm:"column:last_name;not null"`
	Email         *string    `gorm:"column:email"`
	LicenseNumber *string    `gorm:"column:license_number"`
	ArchivedAt    *time.Time `gorm:"column:archived_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Tool is a shop tool; calibration expiry is tracked for the notifier.
type Tool struct {
	ID                   uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name                 string     `gorm:"column:name;not null"`
	SerialNumber         *string    `gorm:"column:serial_number"`
	CalibrationExpiresAt *time.Time `gorm:"column:calibration_expires_at"`
	ArchivedAt           *time.Time `gorm:"column:archived_at"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

type Aircraft struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Registration string     `gorm:"column:registration;not null;uniqueIndex"`
	Manufacturer string     `gorm:"column:manufacturer;not null"`
	Model        string     `gorm:"column:model;not null"`
	SerialNumber string     `gorm:"column:serial_number;not null"`
	BaseAirport  *string    `gorm:"column:base_airport"`
	ArchivedAt   *time.Time `gorm:"column:archived_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Aircraft) TableName() string { return "aircraft" }

type Owner struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name       string     `gorm:"column:name;not null"`
	Email      *string    `gorm:"column:email"`
	Phone      *string    `gorm:"column:phone"`
	Address    *string    `gorm:"column:address"`
	ArchivedAt *time.Time `gorm:"column:archived_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// AircraftOwner is the current ownership list of an aircraft.
type AircraftOwner struct {
	AircraftID uuid.UUID `gorm:"column:aircraft_id;type:uuid;primaryKey"`
	OwnerID    uuid.UUID `gorm:"column:owner_id;type:uuid;primaryKey;index"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (AircraftOwner) TableName() string { return "aircraft_owners" }

// ExternalComponent is a part brought in by a customer for repair.
type ExternalComponent struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	PartNumber   string     `gorm:"column:part_number;not null"`
	SerialNumber string     `gorm:"column:serial_number;not null"`
	Description  string     `gorm:"column:description;not null"`
	Manufacturer *string    `gorm:"column:manufacturer"`
	OwnerID      *uuid.UUID `gorm:"column:owner_id;type:uuid;index"`
	ArchivedAt   *time.Time `gorm:"column:archived_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
