package stockledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/internal/dbtest"
	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
)

type countingRecorder struct {
	mu    sync.Mutex
	kinds map[string]int
}

func (c *countingRecorder) IncMovement(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kinds == nil {
		c.kinds = map[string]int{}
	}
	c.kinds[kind]++
}

func newTestLedger(t *testing.T) (Ledger, *gorm.DB, *countingRecorder) {
	t.Helper()
	conn := dbtest.Open(t)
	rec := &countingRecorder{}
	l, err := NewLedger(NewRepository(conn), rec)
	require.NoError(t, err)
	return l, conn, rec
}

func TestNewLedgerRequiresRepository(t *testing.T) {
	_, err := NewLedger(nil, nil)
	require.Error(t, err)
}

func TestReserveAndRelease(t *testing.T) {
	l, conn, rec := newTestLedger(t)
	ctx := context.Background()
	item := dbtest.StockItem(t, conn, 10)
	orderID := uuid.New()

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return l.Reserve(ctx, tx, item.ID, 4, orderID)
	}))
	assert.Equal(t, 6, dbtest.Available(t, conn, item.ID))

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return l.Release(ctx, tx, item.ID, 4, orderID)
	}))
	available, err := l.Available(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)

	movements, err := l.Movements(ctx, item.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	kinds := []enums.StockMovementKind{movements[0].Kind, movements[1].Kind}
	assert.ElementsMatch(t, []enums.StockMovementKind{enums.StockMovementReserve, enums.StockMovementRelease}, kinds)
	assert.Equal(t, 1, rec.kinds["reserve"])
	assert.Equal(t, 1, rec.kinds["release"])
}

func TestReserveInsufficientLeavesQuantity(t *testing.T) {
	l, conn, _ := newTestLedger(t)
	ctx := context.Background()
	item := dbtest.StockItem(t, conn, 1)

	err := conn.Transaction(func(tx *gorm.DB) error {
		return l.Reserve(ctx, tx, item.ID, 2, uuid.New())
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock))
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, details["available"])
	assert.Equal(t, 1, dbtest.Available(t, conn, item.ID))

	var count int64
	require.NoError(t, conn.Model(&models.StockMovement{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReserveMissingItem(t *testing.T) {
	l, conn, _ := newTestLedger(t)
	err := conn.Transaction(func(tx *gorm.DB) error {
		return l.Reserve(context.Background(), tx, uuid.New(), 1, uuid.New())
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	err = conn.Transaction(func(tx *gorm.DB) error {
		return l.Release(context.Background(), tx, uuid.New(), 1, uuid.New())
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestMovementValidation(t *testing.T) {
	l, conn, _ := newTestLedger(t)
	item := dbtest.StockItem(t, conn, 5)
	ctx := context.Background()

	err := l.Reserve(ctx, nil, item.ID, 1, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))

	err = conn.Transaction(func(tx *gorm.DB) error {
		return l.Reserve(ctx, tx, item.ID, 0, uuid.New())
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	err = conn.Transaction(func(tx *gorm.DB) error {
		return l.Adjust(ctx, tx, item.ID, -1, 2, uuid.New())
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestAdjustDownAndUp(t *testing.T) {
	l, conn, _ := newTestLedger(t)
	ctx := context.Background()
	item := dbtest.StockItem(t, conn, 10)
	orderID := uuid.New()

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return l.Reserve(ctx, tx, item.ID, 4, orderID)
	}))
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return l.Adjust(ctx, tx, item.ID, 4, 2, orderID)
	}))
	assert.Equal(t, 8, dbtest.Available(t, conn, item.ID))

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return l.Adjust(ctx, tx, item.ID, 2, 10, orderID)
	}))
	assert.Equal(t, 0, dbtest.Available(t, conn, item.ID))
}

func TestAdjustFailureRollsBackRelease(t *testing.T) {
	l, conn, _ := newTestLedger(t)
	ctx := context.Background()
	item := dbtest.StockItem(t, conn, 10)
	orderID := uuid.New()

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return l.Reserve(ctx, tx, item.ID, 4, orderID)
	}))

	// The outer transaction commits; only the savepoint is rolled back.
	var adjustErr error
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		adjustErr = l.Adjust(ctx, tx, item.ID, 4, 12, orderID)
		return nil
	}))
	require.Error(t, adjustErr)
	assert.True(t, pkgerrors.HasCode(adjustErr, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 6, dbtest.Available(t, conn, item.ID))

	movements, err := l.Movements(ctx, item.ID, 10)
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}

func TestAdjustNoop(t *testing.T) {
	l, conn, _ := newTestLedger(t)
	item := dbtest.StockItem(t, conn, 3)
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return l.Adjust(context.Background(), tx, item.ID, 2, 2, uuid.New())
	}))
	assert.Equal(t, 3, dbtest.Available(t, conn, item.ID))
}

// dbtest pins SQLite to one connection, so these transactions run one after
// another. This covers the conditional decrement under goroutine contention,
// not Postgres row locking.
func TestInterleavedReservationsNeverOversell(t *testing.T) {
	l, conn, _ := newTestLedger(t)
	ctx := context.Background()
	item := dbtest.StockItem(t, conn, 20)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := conn.Transaction(func(tx *gorm.DB) error {
				return l.Reserve(ctx, tx, item.ID, 3, uuid.New())
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, succeeded)
	assert.Equal(t, 4, rejected)
	assert.Equal(t, 2, dbtest.Available(t, conn, item.ID))
}

func TestMovementsUnknownItem(t *testing.T) {
	l, _, _ := newTestLedger(t)
	_, err := l.Movements(context.Background(), uuid.New(), 10)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
