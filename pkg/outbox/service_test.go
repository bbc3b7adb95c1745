package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
)

func openOutboxDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:outbox_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.OutboxEvent{}, &models.OutboxDLQ{}))
	return conn
}

func TestEmitStoresEnvelope(t *testing.T) {
	conn := openOutboxDB(t)
	svc := NewService(NewRepository(conn), nil)
	orderID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventWorkOrderCreated,
			AggregateType: enums.AggregateWorkOrder,
			AggregateID:   orderID,
			Data:          map[string]any{"order_number": 7},
		})
	})
	require.NoError(t, err)

	rows, err := NewRepository(conn).FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, orderID, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.JSONEq(t, `{"order_number":7}`, string(envelope.Data))
}

func TestEmitIfNotExistsSkipsDuplicates(t *testing.T) {
	conn := openOutboxDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	event := DomainEvent{
		EventType:     enums.EventWorkOrderClosed,
		AggregateType: enums.AggregateWorkOrder,
		AggregateID:   uuid.New(),
		Data:          map[string]any{},
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(context.Background(), tx, event)
		}))
	}

	rows, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestMarkPublishedAndFailed(t *testing.T) {
	conn := openOutboxDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventInvoiceStateSet,
			AggregateType: enums.AggregateWorkOrder,
			AggregateID:   uuid.New(),
			Data:          map[string]any{"invoice_state": "paid"},
		})
	}))
	rows, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, repo.MarkFailed(rows[0].ID, assert.AnError))
	var stored models.OutboxEvent
	require.NoError(t, conn.First(&stored, "id = ?", rows[0].ID).Error)
	assert.Equal(t, 1, stored.AttemptCount)

	require.NoError(t, repo.MarkPublished(rows[0].ID))
	rows, err = repo.FetchUnpublished(10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDLQInsertTruncatesMessage(t *testing.T) {
	conn := openOutboxDB(t)
	dlq := NewDLQRepository(conn)
	long := string(make([]byte, maxDLQErrorLen+50))
	eventID := uuid.New()

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return dlq.InsertTx(tx, models.OutboxDLQ{
			EventID:       eventID,
			EventType:     enums.EventWorkOrderClosed,
			AggregateType: enums.AggregateWorkOrder,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{}`),
			ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
			ErrorMessage:  &long,
		})
	}))

	found, err := dlq.FindByEventID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Len(t, *found.ErrorMessage, maxDLQErrorLen)
}

func TestFetchUnpublishedForPublishSkipsTerminalRows(t *testing.T) {
	conn := openOutboxDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
			return svc.Emit(context.Background(), tx, DomainEvent{
				EventType:     enums.EventWorkOrderCancelled,
				AggregateType: enums.AggregateWorkOrder,
				AggregateID:   uuid.New(),
				Data:          map[string]any{},
			})
		}))
	}

	var claimed []models.OutboxEvent
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		if err != nil {
			return err
		}
		claimed = rows
		return repo.MarkTerminalTx(tx, rows[0].ID, assert.AnError, 3)
	}))
	require.Len(t, claimed, 2)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, claimed[1].ID, rows[0].ID)
		return repo.MarkPublishedTx(tx, rows[0].ID)
	}))

	var terminal models.OutboxEvent
	require.NoError(t, conn.First(&terminal, "id = ?", claimed[0].ID).Error)
	assert.Equal(t, 3, terminal.AttemptCount)
	require.NotNil(t, terminal.LastError)
	assert.Equal(t, assert.AnError.Error(), *terminal.LastError)
}
