package worklog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/internal/repo"
	"github.com/hangarops/hangar-backend/pkg/db/models"
)

// Repository persists work log entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockOrder(ctx context.Context, orderID uuid.UUID) (*models.WorkOrder, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.WorkOrder, error)
	Create(ctx context.Context, entry *models.WorkLogEntry) error
	Find(ctx context.Context, id uuid.UUID) (*models.WorkLogEntry, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.WorkLogEntry, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID, from, to *time.Time) ([]models.WorkLogEntry, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a work log repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

// LockOrder reads the owning order FOR SHARE: log entries on the same order
// may proceed together, but a close or cancel waits for them.
func (r *repository) LockOrder(ctx context.Context, orderID uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	err := r.base.Locked(ctx, repo.LockShare).
		Select("id", "state").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	err := r.base.DB(ctx).
		Select("id", "state").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Create(ctx context.Context, entry *models.WorkLogEntry) error {
	return r.base.DB(ctx).Create(entry).Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.WorkLogEntry, error) {
	var entry models.WorkLogEntry
	if err := r.base.DB(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.base.DB(ctx).Model(&models.WorkLogEntry{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.base.DB(ctx).Where("id = ?", id).Delete(&models.WorkLogEntry{}).Error
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.WorkLogEntry, error) {
	var rows []models.WorkLogEntry
	err := r.base.DB(ctx).
		Where("order_id = ?", orderID).
		Order("work_date ASC").
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID uuid.UUID, from, to *time.Time) ([]models.WorkLogEntry, error) {
	q := r.base.DB(ctx).Where("employee_id = ?", employeeID)
	if from != nil {
		q = q.Where("work_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("work_date <= ?", *to)
	}
	var rows []models.WorkLogEntry
	err := q.Order("work_date ASC").Order("created_at ASC").Find(&rows).Error
	return rows, err
}
