package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hangarops/hangar-backend/pkg/enums"
)

// WorkLogEntry records hours an employee spent on a work order.
type WorkLogEntry struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	EmployeeID  uuid.UUID           `gorm:"column:employee_id;type:uuid;not null;index"`
	WorkDate    time.Time           `gorm:"column:work_date;type:date;not null"`
	Hours       decimal.Decimal     `gorm:"column:hours;type:numeric(6,2);not null"`
	Role        enums.PersonnelRole `gorm:"column:role;type:text;not null"`
	Description *string             `gorm:"column:description"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
