package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hangarops/hangar-backend/pkg/enums"
)

// ToolAssignment links a tool to a work order.
type ToolAssignment struct {
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;primaryKey"`
	ToolID     uuid.UUID `gorm:"column:tool_id;type:uuid;primaryKey;index"`
	AssignedAt time.Time `gorm:"column:assigned_at;autoCreateTime"`
}

func (ToolAssignment) TableName() string { return "work_order_tools" }

// StockAssignment records the quantity of a stock item consumed by a work
// order. Its quantity is always backed by a ledger reservation.
type StockAssignment struct {
	OrderID      uuid.UUID `gorm:"column:order_id;type:uuid;primaryKey"`
	StockItemID  uuid.UUID `gorm:"column:stock_item_id;type:uuid;primaryKey;index"`
	QuantityUsed int       `gorm:"column:quantity_used;not null;check:quantity_used > 0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (StockAssignment) TableName() string { return "work_order_stock" }

// PersonnelAssignment places an employee on a work order in a given role.
type PersonnelAssignment struct {
	OrderID    uuid.UUID           `gorm:"column:order_id;type:uuid;primaryKey"`
	EmployeeID uuid.UUID           `gorm:"column:employee_id;type:uuid;primaryKey;index"`
	Role       enums.PersonnelRole `gorm:"column:role;type:text;primaryKey"`
	AssignedAt time.Time           `gorm:"column:assigned_at;autoCreateTime"`
}

func (PersonnelAssignment) TableName() string { return "work_order_personnel" }
