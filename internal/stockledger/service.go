package stockledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
)

// Ledger is the single writer of stock_items.quantity_available. Every
// mutation runs inside the caller's transaction and is journaled.
type Ledger interface {
	Reserve(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int, orderID uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int, orderID uuid.UUID) error
	Adjust(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, oldQty, newQty int, orderID uuid.UUID) error
	Available(ctx context.Context, itemID uuid.UUID) (int, error)
	Movements(ctx context.Context, itemID uuid.UUID, limit int) ([]models.StockMovement, error)
}

type movementRecorder interface {
	IncMovement(kind string)
}

type ledger struct {
	repo    Repository
	metrics movementRecorder
}

// NewLedger wires the ledger. metrics may be nil.
func NewLedger(repo Repository, metrics movementRecorder) (Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	return &ledger{repo: repo, metrics: metrics}, nil
}

func (l *ledger) Reserve(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int, orderID uuid.UUID) error {
	if err := validateMovement(tx, itemID, qty); err != nil {
		return err
	}
	repo := l.repo.WithTx(tx)

	ok, err := repo.Decrement(ctx, itemID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
	}
	if !ok {
		item, findErr := repo.FindItem(ctx, itemID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found").
					WithDetails(map[string]any{"stock_item_id": itemID})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load stock item")
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", item.PartNumber)).
			WithDetails(map[string]any{
				"stock_item_id": itemID,
				"requested":     qty,
				"available":     item.QuantityAvailable,
			})
	}

	return l.journal(ctx, repo, itemID, orderID, enums.StockMovementReserve, qty)
}

func (l *ledger) Release(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, qty int, orderID uuid.UUID) error {
	if err := validateMovement(tx, itemID, qty); err != nil {
		return err
	}
	repo := l.repo.WithTx(tx)

	ok, err := repo.Increment(ctx, itemID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release stock")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found").
			WithDetails(map[string]any{"stock_item_id": itemID})
	}

	return l.journal(ctx, repo, itemID, orderID, enums.StockMovementRelease, qty)
}

// Adjust moves a reservation from oldQty to newQty. The release and the new
// reservation share a savepoint: if the reservation fails, the release is
// undone and availability is unchanged.
func (l *ledger) Adjust(ctx context.Context, tx *gorm.DB, itemID uuid.UUID, oldQty, newQty int, orderID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock adjustment")
	}
	if oldQty < 0 || newQty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock quantities must not be negative")
	}
	if oldQty == newQty {
		return nil
	}

	return tx.Transaction(func(sp *gorm.DB) error {
		if oldQty > 0 {
			if err := l.Release(ctx, sp, itemID, oldQty, orderID); err != nil {
				return err
			}
		}
		if newQty > 0 {
			if err := l.Reserve(ctx, sp, itemID, newQty, orderID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (l *ledger) Available(ctx context.Context, itemID uuid.UUID) (int, error) {
	item, err := l.repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "stock item not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock item")
	}
	return item.QuantityAvailable, nil
}

func (l *ledger) Movements(ctx context.Context, itemID uuid.UUID, limit int) ([]models.StockMovement, error) {
	if _, err := l.Available(ctx, itemID); err != nil {
		return nil, err
	}
	rows, err := l.repo.ListMovements(ctx, itemID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return rows, nil
}

func (l *ledger) journal(ctx context.Context, repo Repository, itemID, orderID uuid.UUID, kind enums.StockMovementKind, qty int) error {
	movement := &models.StockMovement{
		ID:          uuid.New(),
		StockItemID: itemID,
		OrderID:     orderID,
		Kind:        kind,
		Quantity:    qty,
	}
	if err := repo.AppendMovement(ctx, movement); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "journal stock movement")
	}
	if l.metrics != nil {
		l.metrics.IncMovement(string(kind))
	}
	return nil
}

func validateMovement(tx *gorm.DB, itemID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock movement")
	}
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock item id required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"stock_item_id": itemID, "quantity": qty})
	}
	return nil
}
