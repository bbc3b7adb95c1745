package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hangarops/hangar-backend/pkg/enums"
)

// StockItem is a spare part with a shared on-hand quantity. The quantity is
// mutated only by the stock ledger.
type StockItem struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	PartNumber        string     `gorm:"column:part_number;not null"`
	Description       string     `gorm:"column:description;not null"`
	Unit              string     `gorm:"column:unit;not null;default:'ea'"`
	QuantityAvailable int        `gorm:"column:quantity_available;not null;default:0;check:quantity_available >= 0"`
	ArchivedAt        *time.Time `gorm:"column:archived_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// StockMovement is one append-only ledger journal entry.
type StockMovement struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	StockItemID uuid.UUID               `gorm:"column:stock_item_id;type:uuid;not null;index"`
	OrderID     uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	Kind        enums.StockMovementKind `gorm:"column:kind;type:text;not null"`
	Quantity    int                     `gorm:"column:quantity;not null;check:quantity > 0"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
}
