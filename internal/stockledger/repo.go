package stockledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/pkg/db/models"
)

// Repository manages stock quantities and the movement journal.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Decrement(ctx context.Context, itemID uuid.UUID, qty int) (bool, error)
	Increment(ctx context.Context, itemID uuid.UUID, qty int) (bool, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.StockItem, error)
	AppendMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, itemID uuid.UUID, limit int) ([]models.StockMovement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Decrement takes qty from the item only if enough is on hand. The check and
// the write are one statement, so concurrent reservations cannot both pass.
func (r *repository) Decrement(ctx context.Context, itemID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_items
		SET quantity_available = quantity_available - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity_available >= ?
	`, qty, itemID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Increment(ctx context.Context, itemID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_items
		SET quantity_available = quantity_available + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, itemID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.StockItem, error) {
	var item models.StockItem
	if err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) AppendMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, itemID uuid.UUID, limit int) ([]models.StockMovement, error) {
	var rows []models.StockMovement
	q := r.db.WithContext(ctx).
		Where("stock_item_id = ?", itemID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
