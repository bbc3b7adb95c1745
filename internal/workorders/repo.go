package workorders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/internal/repo"
	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/pagination"
)

// Repository persists work order rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextOrderNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, order *models.WorkOrder) error
	LockByID(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error)
}

type repository struct {
	base repo.Base
}

// NewRepository builds a work order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

// NextOrderNumber bumps the shared counter. The upsert holds the counter row
// lock until the caller commits, so numbers are unique and gap-free per
// committed order.
func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var n int64
	err := r.base.DB(ctx).Raw(`
		INSERT INTO work_order_counters (name, value) VALUES ('work_orders', 1)
		ON CONFLICT (name) DO UPDATE SET value = work_order_counters.value + 1
		RETURNING value
	`).Scan(&n).Error
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *repository) Create(ctx context.Context, order *models.WorkOrder) error {
	return r.base.DB(ctx).Omit("Tools", "Stock", "Personnel").Create(order).Error
}

func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	if err := r.base.Locked(ctx, repo.LockUpdate).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	err := r.base.DB(ctx).
		Preload("Tools", func(db *gorm.DB) *gorm.DB { return db.Order("tool_id ASC") }).
		Preload("Stock", func(db *gorm.DB) *gorm.DB { return db.Order("stock_item_id ASC") }).
		Preload("Personnel", func(db *gorm.DB) *gorm.DB { return db.Order("employee_id ASC, role ASC") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.base.DB(ctx).Model(&models.WorkOrder{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	q := r.base.DB(ctx).Model(&models.WorkOrder{})
	if filters.State != nil {
		q = q.Where("state = ?", *filters.State)
	}
	if filters.SubjectKind != nil {
		q = q.Where("subject_kind = ?", *filters.SubjectKind)
	}
	if filters.SubjectID != nil {
		q = q.Where("subject_id = ?", *filters.SubjectID)
	}
	if filters.Archived != nil {
		q = q.Where("archived = ?", *filters.Archived)
	}
	if cursor != nil {
		q = q.Where("order_number < ?", cursor.Position)
	}

	var rows []models.WorkOrder
	if err := q.Order("order_number DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&rows).Error; err != nil {
		return nil, err
	}

	result := &ListResult{Orders: rows}
	if len(rows) > limit {
		last := rows[limit-1]
		result.Orders = rows[:limit]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{Position: last.OrderNumber, ID: last.ID})
	}
	return result, nil
}
