package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	"github.com/hangarops/hangar-backend/pkg/outbox/registry"
)

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomeDeadLettered
)

// processBatch publishes one claimed batch inside a single transaction.
// Once an order's event fails with a retryable error, its later events in
// the batch are held so consumers never see closed before created.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	started := time.Now()
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		processed = true

		held := make(map[uuid.UUID]bool)
		for _, event := range events {
			if held[event.AggregateID] {
				s.logg.Info(s.logg.WithFields(ctx, s.eventFields(event, nil)), "outbox event held behind failed order event")
				continue
			}
			result, err := s.dispatch(ctx, tx, event)
			if err != nil {
				return err
			}
			if result == outcomeRetry {
				held[event.AggregateID] = true
			}
		}
		return nil
	})
	if processed && s.metrics != nil {
		s.metrics.ObserveDuration(publishJobName, time.Since(started))
	}
	return processed, err
}

// dispatch resolves, publishes and marks a single row. The returned error is
// only set when bookkeeping inside tx failed.
func (s *Service) dispatch(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (outcome, error) {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return outcomeDeadLettered, s.deadLetter(ctx, tx, event, nil, enums.OutboxDLQReasonNonRetryable, err)
	}
	msg, err := buildMessage(event, resolved)
	if err != nil {
		return outcomeDeadLettered, s.deadLetter(ctx, tx, event, resolved, enums.OutboxDLQReasonNonRetryable, err)
	}

	fields := s.eventFields(event, resolved)
	err = s.publish(ctx, resolved.Descriptor.Topic, msg)
	if err == nil {
		if markErr := s.repo.MarkPublishedTx(tx, event.ID); markErr != nil {
			return outcomePublished, fmt.Errorf("mark published %s: %w", event.ID, markErr)
		}
		s.recordSuccess()
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
		return outcomePublished, nil
	}

	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) {
		return outcomeDeadLettered, s.deadLetter(ctx, tx, event, resolved, enums.OutboxDLQReasonNonRetryable, err)
	}
	attempt := event.AttemptCount + 1
	if attempt >= s.maxAttempts {
		terminal := fmt.Errorf("max publish attempts reached: %w", err)
		return outcomeDeadLettered, s.deadLetter(ctx, tx, event, resolved, enums.OutboxDLQReasonMaxAttempts, terminal)
	}

	fields["attempt_count"] = attempt
	fields["error"] = err.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox publish failed")
	s.recordFailure()
	if markErr := s.repo.MarkFailedTx(tx, event.ID, err); markErr != nil {
		return outcomeRetry, fmt.Errorf("mark failure %s: %w", event.ID, markErr)
	}
	return outcomeRetry, nil
}

func (s *Service) publish(ctx context.Context, topic string, msg *gcppubsub.Message) error {
	pub := s.publisherFor(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, msg)
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	if _, err := result.Get(publishCtx); err != nil {
		if msg.OrderingKey != "" {
			pub.Resume(msg.OrderingKey)
		}
		return err
	}
	return nil
}

// deadLetter copies the row to outbox_dlq and parks it at the attempt
// ceiling so it is never fetched again.
func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, resolved *registry.ResolvedEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	fields := s.eventFields(event, resolved)
	fields["error_reason"] = reason
	fields["error"] = cause.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox event dead-lettered")
	s.recordFailure()

	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := s.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	return nil
}

func (s *Service) eventFields(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if event.AggregateType == enums.AggregateWorkOrder {
		fields["order_id"] = event.AggregateID.String()
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	if resolved == nil {
		return fields
	}
	if resolved.Envelope.EventID != "" {
		fields["event_id"] = resolved.Envelope.EventID
		fields["occurred_at"] = resolved.Envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	if resolved.Descriptor.Topic != "" {
		fields["topic"] = resolved.Descriptor.Topic
	}
	return fields
}
