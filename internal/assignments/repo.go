package assignments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
)

// Repository persists the tool, stock and personnel rows attached to a work
// order.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListTools(ctx context.Context, orderID uuid.UUID) ([]models.ToolAssignment, error)
	ListStock(ctx context.Context, orderID uuid.UUID) ([]models.StockAssignment, error)
	ListPersonnel(ctx context.Context, orderID uuid.UUID) ([]models.PersonnelAssignment, error)
	AddTools(ctx context.Context, rows []models.ToolAssignment) error
	RemoveTools(ctx context.Context, orderID uuid.UUID, toolIDs []uuid.UUID) error
	AddPersonnel(ctx context.Context, rows []models.PersonnelAssignment) error
	RemovePersonnel(ctx context.Context, orderID, employeeID uuid.UUID, role enums.PersonnelRole) error
	AddStock(ctx context.Context, row *models.StockAssignment) error
	UpdateStockQuantity(ctx context.Context, orderID, itemID uuid.UUID, qty int) error
	RemoveStock(ctx context.Context, orderID, itemID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an assignment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListTools(ctx context.Context, orderID uuid.UUID) ([]models.ToolAssignment, error) {
	var rows []models.ToolAssignment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("tool_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListStock(ctx context.Context, orderID uuid.UUID) ([]models.StockAssignment, error) {
	var rows []models.StockAssignment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("stock_item_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListPersonnel(ctx context.Context, orderID uuid.UUID) ([]models.PersonnelAssignment, error) {
	var rows []models.PersonnelAssignment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("employee_id ASC").
		Order("role ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) AddTools(ctx context.Context, rows []models.ToolAssignment) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) RemoveTools(ctx context.Context, orderID uuid.UUID, toolIDs []uuid.UUID) error {
	if len(toolIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("order_id = ? AND tool_id IN ?", orderID, toolIDs).
		Delete(&models.ToolAssignment{}).Error
}

func (r *repository) AddPersonnel(ctx context.Context, rows []models.PersonnelAssignment) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) RemovePersonnel(ctx context.Context, orderID, employeeID uuid.UUID, role enums.PersonnelRole) error {
	return r.db.WithContext(ctx).
		Where("order_id = ? AND employee_id = ? AND role = ?", orderID, employeeID, role).
		Delete(&models.PersonnelAssignment{}).Error
}

func (r *repository) AddStock(ctx context.Context, row *models.StockAssignment) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) UpdateStockQuantity(ctx context.Context, orderID, itemID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.StockAssignment{}).
		Where("order_id = ? AND stock_item_id = ?", orderID, itemID).
		Update("quantity_used", qty).Error
}

func (r *repository) RemoveStock(ctx context.Context, orderID, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("order_id = ? AND stock_item_id = ?", orderID, itemID).
		Delete(&models.StockAssignment{}).Error
}
