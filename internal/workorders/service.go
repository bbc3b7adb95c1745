package workorders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/internal/assignments"
	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
	"github.com/hangarops/hangar-backend/pkg/logger"
	"github.com/hangarops/hangar-backend/pkg/outbox"
	"github.com/hangarops/hangar-backend/pkg/outbox/payloads"
	"github.com/hangarops/hangar-backend/pkg/pagination"
	"github.com/hangarops/hangar-backend/pkg/telemetry"
	"github.com/hangarops/hangar-backend/pkg/types"
)

type txRunner interface {
	WithTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type subjectReader interface {
	ValidateSubject(ctx context.Context, tx *gorm.DB, subject types.SubjectRef) error
	Snapshot(ctx context.Context, tx *gorm.DB, subject types.SubjectRef, at time.Time) (*types.ClosureSnapshot, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type lifecycleRecorder interface {
	IncTransition(to string)
	IncRejection(operation, code string)
}

// Service is the work order state machine.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.WorkOrder, error)
	Get(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error)
	UpdatePhase2(ctx context.Context, id uuid.UUID, input Phase2Input) (*models.WorkOrder, error)
	UpdatePhase3(ctx context.Context, id uuid.UUID, input Phase3Input) (*models.WorkOrder, error)
	Close(ctx context.Context, id uuid.UUID, input CloseInput) (*models.WorkOrder, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	SetInvoiceState(ctx context.Context, id uuid.UUID, input InvoiceInput) (*models.WorkOrder, error)
	Archive(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	Unarchive(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
}

// Deps collects the collaborators of the state machine. Metrics, Tracer and
// Logger are optional.
type Deps struct {
	Repo        Repository
	Tx          txRunner
	Registry    subjectReader
	Assignments assignments.Store
	Outbox      outboxEmitter
	Metrics     lifecycleRecorder
	Tracer      *telemetry.Tracer
	Logger      *logger.Logger
}

type service struct {
	repo        Repository
	tx          txRunner
	registry    subjectReader
	assignments assignments.Store
	outbox      outboxEmitter
	metrics     lifecycleRecorder
	tracer      *telemetry.Tracer
	logg        *logger.Logger
	now         func() time.Time
}

// NewService wires the state machine.
func NewService(d Deps) (Service, error) {
	if d.Repo == nil {
		return nil, fmt.Errorf("work order repository required")
	}
	if d.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if d.Registry == nil {
		return nil, fmt.Errorf("registry reader required")
	}
	if d.Assignments == nil {
		return nil, fmt.Errorf("assignment store required")
	}
	if d.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:        d.Repo,
		tx:          d.Tx,
		registry:    d.Registry,
		assignments: d.Assignments,
		outbox:      d.Outbox,
		metrics:     d.Metrics,
		tracer:      d.Tracer,
		logg:        d.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (order *models.WorkOrder, err error) {
	ctx, span := s.tracer.StartWorkOrderSpan(ctx, "create", "")
	defer func() { s.finish(span, "create", err) }()

	var id uuid.UUID
	err = s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		if err := s.registry.ValidateSubject(ctx, tx, input.Subject); err != nil {
			return err
		}
		r := s.repo.WithTx(tx)
		number, err := r.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}
		row := &models.WorkOrder{
			ID:           uuid.New(),
			OrderNumber:  number,
			SubjectKind:  input.Subject.Kind,
			SubjectID:    input.Subject.ID,
			State:        enums.WorkOrderStateOpen,
			InvoiceState: enums.InvoiceStatePending,
		}
		if err := r.Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create work order")
		}
		id = row.ID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWorkOrderCreated,
			AggregateType: enums.AggregateWorkOrder,
			AggregateID:   row.ID,
			Data: payloads.WorkOrderCreatedEvent{
				OrderID:     row.ID,
				OrderNumber: row.OrderNumber,
				Subject:     input.Subject,
				CreatedAt:   s.now(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncTransition(string(enums.WorkOrderStateOpen))
	}
	s.info(ctx, id, "", enums.WorkOrderStateOpen, "work order opened")
	return s.Get(ctx, id)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	order, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, mapLoadErr(err)
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResult, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if filters.State != nil && !filters.State.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid state %q", *filters.State))
	}
	if filters.SubjectKind != nil && !filters.SubjectKind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid subject kind %q", *filters.SubjectKind))
	}
	result, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list work orders")
	}
	return result, nil
}

func (s *service) UpdatePhase2(ctx context.Context, id uuid.UUID, input Phase2Input) (order *models.WorkOrder, err error) {
	ctx, span := s.tracer.StartWorkOrderSpan(ctx, "phase2", id.String())
	defer func() { s.finish(span, "phase2", err) }()

	return s.mutate(ctx, id, func(tx *gorm.DB, r Repository, current *models.WorkOrder) error {
		if err := CanMutateOpen(orderContext(current)).Err(current.ID, current.State); err != nil {
			return err
		}
		return update(ctx, r, id, map[string]any{
			"request_description":        input.RequestDescription,
			"requested_by":               input.RequestedBy,
			"prior_order_reference":      input.PriorOrderReference,
			"request_signature_file_ref": input.RequestSignatureFileRef,
		})
	})
}

// UpdatePhase3 overwrites the execution block and reconciles every resource
// list. Any failure, including insufficient stock on the last line, leaves
// the order and all assignments as they were.
func (s *service) UpdatePhase3(ctx context.Context, id uuid.UUID, input Phase3Input) (order *models.WorkOrder, err error) {
	ctx, span := s.tracer.StartWorkOrderSpan(ctx, "phase3", id.String())
	defer func() { s.finish(span, "phase3", err) }()

	if err := assignments.ValidateRequest(input.ToolIDs, input.Stock, input.Personnel); err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(tx *gorm.DB, r Repository, current *models.WorkOrder) error {
		if err := CanMutateOpen(orderContext(current)).Err(current.ID, current.State); err != nil {
			return err
		}
		if err := s.assignments.ReplaceTools(ctx, tx, id, input.ToolIDs); err != nil {
			return err
		}
		if err := s.assignments.ReplacePersonnel(ctx, tx, id, input.Personnel); err != nil {
			return err
		}
		if err := s.assignments.ReconcileStock(ctx, tx, id, input.Stock); err != nil {
			return err
		}

		notes := input.PriorDamageNotes
		if !input.ReceivingInspectionDone {
			notes = nil
		}
		return update(ctx, r, id, map[string]any{
			"receiving_inspection_done": input.ReceivingInspectionDone,
			"prior_damage_notes":        notes,
			"action_taken":              input.ActionTaken,
			"discrepancies":             input.Discrepancies,
		})
	})
}

// Close freezes the subject snapshot and makes stock reservations permanent.
func (s *service) Close(ctx context.Context, id uuid.UUID, input CloseInput) (order *models.WorkOrder, err error) {
	ctx, span := s.tracer.StartWorkOrderSpan(ctx, "close", id.String())
	defer func() { s.finish(span, "close", err) }()

	if input.Invoice != nil && input.Invoice.State != "" && !input.Invoice.State.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid invoice state %q", input.Invoice.State))
	}

	order, err = s.mutate(ctx, id, func(tx *gorm.DB, r Repository, current *models.WorkOrder) error {
		if err := CanTransition(orderContext(current), enums.WorkOrderStateClosed).Err(current.ID, current.State); err != nil {
			return err
		}
		now := s.now()
		snap, err := s.registry.Snapshot(ctx, tx, current.Subject(), now)
		if err != nil {
			return err
		}
		set, err := s.assignments.Load(ctx, tx, id)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"state":            enums.WorkOrderStateClosed,
			"closed_at":        now,
			"closure_snapshot": snap,
		}
		invoiceState := current.InvoiceState
		if inv := input.Invoice; inv != nil {
			if inv.State != "" {
				invoiceState = inv.State
				updates["invoice_state"] = inv.State
			}
			if inv.Number != nil {
				updates["invoice_number"] = inv.Number
			}
			if inv.FileRef != nil {
				updates["invoice_file_ref"] = inv.FileRef
			}
		}
		if err := update(ctx, r, id, updates); err != nil {
			return err
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWorkOrderClosed,
			AggregateType: enums.AggregateWorkOrder,
			AggregateID:   id,
			OccurredAt:    now,
			Data: payloads.WorkOrderClosedEvent{
				OrderID:       id,
				OrderNumber:   current.OrderNumber,
				Snapshot:      *snap,
				ConsumedStock: stockLines(set.Stock),
				InvoiceState:  invoiceState,
				ClosedAt:      now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.transitioned(ctx, id, enums.WorkOrderStateClosed)
	return order, nil
}

// Cancel freezes the snapshot and returns every reserved quantity to stock.
// Assignment rows are kept as the record of what had been planned.
func (s *service) Cancel(ctx context.Context, id uuid.UUID) (order *models.WorkOrder, err error) {
	ctx, span := s.tracer.StartWorkOrderSpan(ctx, "cancel", id.String())
	defer func() { s.finish(span, "cancel", err) }()

	order, err = s.mutate(ctx, id, func(tx *gorm.DB, r Repository, current *models.WorkOrder) error {
		if err := CanTransition(orderContext(current), enums.WorkOrderStateCancelled).Err(current.ID, current.State); err != nil {
			return err
		}
		now := s.now()
		snap, err := s.registry.Snapshot(ctx, tx, current.Subject(), now)
		if err != nil {
			return err
		}
		set, err := s.assignments.Load(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.assignments.ReleaseAll(ctx, tx, id); err != nil {
			return err
		}
		if err := update(ctx, r, id, map[string]any{
			"state":            enums.WorkOrderStateCancelled,
			"closed_at":        now,
			"closure_snapshot": snap,
		}); err != nil {
			return err
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWorkOrderCancelled,
			AggregateType: enums.AggregateWorkOrder,
			AggregateID:   id,
			OccurredAt:    now,
			Data: payloads.WorkOrderCancelledEvent{
				OrderID:       id,
				OrderNumber:   current.OrderNumber,
				Snapshot:      *snap,
				ReleasedStock: stockLines(set.Stock),
				CancelledAt:   now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.transitioned(ctx, id, enums.WorkOrderStateCancelled)
	return order, nil
}

// SetInvoiceState updates billing data on a closed order.
func (s *service) SetInvoiceState(ctx context.Context, id uuid.UUID, input InvoiceInput) (order *models.WorkOrder, err error) {
	ctx, span := s.tracer.StartWorkOrderSpan(ctx, "invoice", id.String())
	defer func() { s.finish(span, "invoice", err) }()

	if input.State != "" && !input.State.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid invoice state %q", input.State))
	}

	return s.mutate(ctx, id, func(tx *gorm.DB, r Repository, current *models.WorkOrder) error {
		if err := CanSetInvoice(orderContext(current)).Err(current.ID, current.State); err != nil {
			return err
		}
		state := current.InvoiceState
		if input.State != "" {
			state = input.State
		}
		updates := map[string]any{"invoice_state": state}
		number := current.InvoiceNumber
		if input.Number != nil {
			updates["invoice_number"] = input.Number
			number = input.Number
		}
		if input.FileRef != nil {
			updates["invoice_file_ref"] = input.FileRef
		}
		if err := update(ctx, r, id, updates); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInvoiceStateSet,
			AggregateType: enums.AggregateWorkOrder,
			AggregateID:   id,
			Data: payloads.InvoiceStateSetEvent{
				OrderID:       id,
				InvoiceState:  state,
				InvoiceNumber: number,
			},
		})
	})
}

func (s *service) Archive(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	return s.setArchived(ctx, id, true)
}

func (s *service) Unarchive(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	return s.setArchived(ctx, id, false)
}

func (s *service) setArchived(ctx context.Context, id uuid.UUID, archived bool) (order *models.WorkOrder, err error) {
	op := "unarchive"
	if archived {
		op = "archive"
	}
	ctx, span := s.tracer.StartWorkOrderSpan(ctx, op, id.String())
	defer func() { s.finish(span, op, err) }()

	return s.mutate(ctx, id, func(tx *gorm.DB, r Repository, current *models.WorkOrder) error {
		if err := CanToggleArchived(orderContext(current)).Err(current.ID, current.State); err != nil {
			return err
		}
		if current.Archived == archived {
			return nil
		}
		return update(ctx, r, id, map[string]any{"archived": archived})
	})
}

// mutate locks the order row, applies fn and reloads the order, all in one
// transaction.
func (s *service) mutate(ctx context.Context, id uuid.UUID, fn func(tx *gorm.DB, r Repository, current *models.WorkOrder) error) (*models.WorkOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id required")
	}
	var out *models.WorkOrder
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		current, err := r.LockByID(ctx, id)
		if err != nil {
			return mapLoadErr(err)
		}
		if err := fn(tx, r, current); err != nil {
			return err
		}
		out, err = r.FindDetail(ctx, id)
		if err != nil {
			return mapLoadErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func update(ctx context.Context, r Repository, id uuid.UUID, updates map[string]any) error {
	if err := r.Update(ctx, id, updates); err != nil {
		return mapLoadErr(err)
	}
	return nil
}

func (s *service) finish(span trace.Span, op string, err error) {
	telemetry.End(span, err)
	if err == nil || s.metrics == nil {
		return
	}
	if typed := pkgerrors.As(err); typed != nil {
		s.metrics.IncRejection(op, string(typed.Code()))
		return
	}
	s.metrics.IncRejection(op, string(pkgerrors.CodeInternal))
}

func (s *service) transitioned(ctx context.Context, id uuid.UUID, to enums.WorkOrderState) {
	if s.metrics != nil {
		s.metrics.IncTransition(string(to))
	}
	s.info(ctx, id, enums.WorkOrderStateOpen, to, "work order transitioned")
}

func (s *service) info(ctx context.Context, id uuid.UUID, from, to enums.WorkOrderState, msg string) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithOrderID(ctx, id.String())
	logCtx = s.logg.WithTransition(logCtx, string(from), string(to))
	s.logg.Info(logCtx, msg)
}

func orderContext(o *models.WorkOrder) OrderContext {
	return OrderContext{ID: o.ID, State: o.State, Archived: o.Archived}
}

func stockLines(rows []models.StockAssignment) []payloads.StockLine {
	lines := make([]payloads.StockLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, payloads.StockLine{StockItemID: row.StockItemID, Quantity: row.QuantityUsed})
	}
	return lines
}

func mapLoadErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "work order storage")
}
