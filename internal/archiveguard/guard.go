// Package archiveguard answers whether a registry entity is still referenced
// by an open work order. Closed and cancelled orders never count.
package archiveguard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
)

// OrderRef identifies an open order holding a reference.
type OrderRef struct {
	ID          uuid.UUID `gorm:"column:id" json:"id"`
	OrderNumber int64     `gorm:"column:order_number" json:"order_number"`
}

type guardRecorder interface {
	ObserveGuard(kind string, referenced bool)
}

// Guard runs the reference queries. tx may be nil to use the base connection.
type Guard interface {
	IsReferencedByOpenOrder(ctx context.Context, tx *gorm.DB, kind enums.EntityKind, id uuid.UUID) (bool, error)
	OpenOrdersReferencing(ctx context.Context, tx *gorm.DB, kind enums.EntityKind, id uuid.UUID, limit int) ([]OrderRef, error)
}

type guard struct {
	db      *gorm.DB
	metrics guardRecorder
}

// New builds a guard. metrics may be nil.
func New(db *gorm.DB, metrics guardRecorder) (Guard, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	return &guard{db: db, metrics: metrics}, nil
}

// predicates are conditions on "work_orders o" that hold when the order
// references @id.
var predicates = map[enums.EntityKind]string{
	enums.EntityKindEmployee: `(EXISTS (SELECT 1 FROM work_order_personnel p WHERE p.order_id = o.id AND p.employee_id = @id)
		OR EXISTS (SELECT 1 FROM work_log_entries w WHERE w.order_id = o.id AND w.employee_id = @id))`,
	enums.EntityKindTool:      `EXISTS (SELECT 1 FROM work_order_tools t WHERE t.order_id = o.id AND t.tool_id = @id)`,
	enums.EntityKindStockItem: `EXISTS (SELECT 1 FROM work_order_stock s WHERE s.order_id = o.id AND s.stock_item_id = @id)`,
	enums.EntityKindAircraft:  `(o.subject_kind = 'aircraft' AND o.subject_id = @id)`,
	enums.EntityKindComponent: `(o.subject_kind = 'component' AND o.subject_id = @id)`,
	enums.EntityKindOwner: `((o.subject_kind = 'aircraft' AND EXISTS (SELECT 1 FROM aircraft_owners ao WHERE ao.aircraft_id = o.subject_id AND ao.owner_id = @id))
		OR (o.subject_kind = 'component' AND EXISTS (SELECT 1 FROM external_components c WHERE c.id = o.subject_id AND c.owner_id = @id)))`,
}

func predicateFor(kind enums.EntityKind) (string, error) {
	pred, ok := predicates[kind]
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown entity kind %q", kind))
	}
	return pred, nil
}

func (g *guard) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return g.db.WithContext(ctx)
}

func (g *guard) IsReferencedByOpenOrder(ctx context.Context, tx *gorm.DB, kind enums.EntityKind, id uuid.UUID) (bool, error) {
	pred, err := predicateFor(kind)
	if err != nil {
		return false, err
	}
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM work_orders o WHERE o.state = @open AND %s)`, pred)

	var referenced bool
	err = g.conn(ctx, tx).
		Raw(query, map[string]any{"id": id, "open": string(enums.WorkOrderStateOpen)}).
		Scan(&referenced).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive guard query")
	}
	if g.metrics != nil {
		g.metrics.ObserveGuard(string(kind), referenced)
	}
	return referenced, nil
}

func (g *guard) OpenOrdersReferencing(ctx context.Context, tx *gorm.DB, kind enums.EntityKind, id uuid.UUID, limit int) ([]OrderRef, error) {
	pred, err := predicateFor(kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT o.id, o.order_number FROM work_orders o
		WHERE o.state = @open AND %s
		ORDER BY o.order_number ASC
		LIMIT @limit`, pred)

	var refs []OrderRef
	err = g.conn(ctx, tx).
		Raw(query, map[string]any{"id": id, "open": string(enums.WorkOrderStateOpen), "limit": limit}).
		Scan(&refs).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive guard listing")
	}
	return refs, nil
}
