package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	"github.com/hangarops/hangar-backend/pkg/outbox/payloads"
	"github.com/hangarops/hangar-backend/pkg/outbox/registry"
	"github.com/hangarops/hangar-backend/pkg/types"
)

// buildMessage wraps the stored envelope in a Pub/Sub message. Attributes
// let subscribers filter on order state and invoice state without decoding
// the body. All events of one order share an ordering key.
func buildMessage(event models.OutboxEvent, resolved *registry.ResolvedEvent) (*gcppubsub.Message, error) {
	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
	}
	if err := orderAttributes(attrs, event, resolved.Payload); err != nil {
		return nil, registry.NewNonRetryableError(fmt.Errorf("%s: %w", event.EventType, err))
	}
	return &gcppubsub.Message{
		Data:        event.Payload,
		Attributes:  attrs,
		OrderingKey: string(event.AggregateType) + ":" + event.AggregateID.String(),
	}, nil
}

func orderAttributes(attrs map[string]string, event models.OutboxEvent, payload any) error {
	switch p := payload.(type) {
	case *payloads.WorkOrderCreatedEvent:
		if err := sameOrder(event, p.OrderID); err != nil {
			return err
		}
		attrs["order_state"] = string(enums.WorkOrderStateOpen)
		attrs["order_number"] = strconv.FormatInt(p.OrderNumber, 10)
		attrs["subject_kind"] = string(p.Subject.Kind)
	case *payloads.WorkOrderClosedEvent:
		if err := sameOrder(event, p.OrderID); err != nil {
			return err
		}
		if err := frozenSnapshot(p.Snapshot); err != nil {
			return err
		}
		attrs["order_state"] = string(enums.WorkOrderStateClosed)
		attrs["order_number"] = strconv.FormatInt(p.OrderNumber, 10)
		attrs["subject_kind"] = string(p.Snapshot.Subject.Kind)
		attrs["invoice_state"] = string(p.InvoiceState)
	case *payloads.WorkOrderCancelledEvent:
		if err := sameOrder(event, p.OrderID); err != nil {
			return err
		}
		if err := frozenSnapshot(p.Snapshot); err != nil {
			return err
		}
		attrs["order_state"] = string(enums.WorkOrderStateCancelled)
		attrs["order_number"] = strconv.FormatInt(p.OrderNumber, 10)
		attrs["subject_kind"] = string(p.Snapshot.Subject.Kind)
	case *payloads.InvoiceStateSetEvent:
		if err := sameOrder(event, p.OrderID); err != nil {
			return err
		}
		attrs["invoice_state"] = string(p.InvoiceState)
	default:
		return fmt.Errorf("unsupported payload %T", payload)
	}
	return nil
}

func sameOrder(event models.OutboxEvent, orderID uuid.UUID) error {
	if orderID != event.AggregateID {
		return fmt.Errorf("payload order %s does not match aggregate %s", orderID, event.AggregateID)
	}
	return nil
}

// Terminal events must carry the snapshot taken at closure.
func frozenSnapshot(snap types.ClosureSnapshot) error {
	if snap.CapturedAt.IsZero() || snap.Subject.ID == uuid.Nil {
		return errors.New("closure snapshot missing")
	}
	return nil
}
