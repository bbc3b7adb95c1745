package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:db_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := NewFromGorm(db)

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestWithTxRetry_RetriesSerializationFailures(t *testing.T) {
	client := NewFromGorm(newTestDB(t)).WithRetryAttempts(3)
	client.retryBackoff = 0

	calls := 0
	err := client.WithTxRetry(context.Background(), func(tx *gorm.DB) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("reserve: %w", &pgconn.PgError{Code: pgSerializationFailure})
		}
		return tx.Create(&testModel{Name: "third time"}).Error
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestWithTxRetry_DoesNotRetryOtherErrors(t *testing.T) {
	client := NewFromGorm(newTestDB(t)).WithRetryAttempts(5)
	client.retryBackoff = 0

	calls := 0
	domainErr := errors.New("insufficient stock")
	err := client.WithTxRetry(context.Background(), func(tx *gorm.DB) error {
		calls++
		return domainErr
	})
	if !errors.Is(err, domainErr) {
		t.Fatalf("expected domain error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected single attempt, got %d", calls)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "work_order_tools_pkey"}
	if !IsUniqueViolation(pgErr, "") || !IsUniqueViolation(pgErr, "work_order_tools_pkey") {
		t.Fatal("expected pg unique violation to match")
	}
	if IsUniqueViolation(pgErr, "other_constraint") {
		t.Fatal("unexpected constraint match")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: work_order_tools.order_id"), "") {
		t.Fatal("expected sqlite unique violation to match")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil is not a violation")
	}
}

func TestPing(t *testing.T) {
	client := NewFromGorm(newTestDB(t))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}
