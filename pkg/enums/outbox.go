package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateWorkOrder OutboxAggregateType = "work_order"
	AggregateStockItem OutboxAggregateType = "stock_item"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateWorkOrder,
	AggregateStockItem,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventWorkOrderCreated   OutboxEventType = "work_order_created"
	EventWorkOrderClosed    OutboxEventType = "work_order_closed"
	EventWorkOrderCancelled OutboxEventType = "work_order_cancelled"
	EventInvoiceStateSet    OutboxEventType = "work_order_invoice_state_set"
)

var validOutboxEventTypes = []OutboxEventType{
	EventWorkOrderCreated,
	EventWorkOrderClosed,
	EventWorkOrderCancelled,
	EventInvoiceStateSet,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
