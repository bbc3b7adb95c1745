package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/hangarops/hangar-backend/pkg/enums"
	"github.com/hangarops/hangar-backend/pkg/types"
)

// WorkOrderCreatedEvent announces a newly opened work order.
type WorkOrderCreatedEvent struct {
	OrderID     uuid.UUID        `json:"order_id"`
	OrderNumber int64            `json:"order_number"`
	Subject     types.SubjectRef `json:"subject"`
	CreatedAt   time.Time        `json:"created_at"`
}

// StockLine is one stock quantity attached to an order at the time of the event.
type StockLine struct {
	StockItemID uuid.UUID `json:"stock_item_id"`
	Quantity    int       `json:"quantity"`
}

// WorkOrderClosedEvent carries the frozen closure data for document rendering.
type WorkOrderClosedEvent struct {
	OrderID       uuid.UUID             `json:"order_id"`
	OrderNumber   int64                 `json:"order_number"`
	Snapshot      types.ClosureSnapshot `json:"snapshot"`
	ConsumedStock []StockLine           `json:"consumed_stock"`
	InvoiceState  enums.InvoiceState    `json:"invoice_state"`
	ClosedAt      time.Time             `json:"closed_at"`
}

// WorkOrderCancelledEvent lists the reservations returned to stock.
type WorkOrderCancelledEvent struct {
	OrderID       uuid.UUID             `json:"order_id"`
	OrderNumber   int64                 `json:"order_number"`
	Snapshot      types.ClosureSnapshot `json:"snapshot"`
	ReleasedStock []StockLine           `json:"released_stock"`
	CancelledAt   time.Time             `json:"cancelled_at"`
}

// InvoiceStateSetEvent is emitted whenever billing data changes on a closed order.
type InvoiceStateSetEvent struct {
	OrderID       uuid.UUID          `json:"order_id"`
	InvoiceState  enums.InvoiceState `json:"invoice_state"`
	InvoiceNumber *string            `json:"invoice_number,omitempty"`
}
