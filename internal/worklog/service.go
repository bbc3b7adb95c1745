package worklog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/internal/workorders"
	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
	"github.com/hangarops/hangar-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type activeChecker interface {
	RequireActive(ctx context.Context, tx *gorm.DB, kind enums.EntityKind, ids []uuid.UUID) error
}

type personnelLister interface {
	ListPersonnel(ctx context.Context, orderID uuid.UUID) ([]models.PersonnelAssignment, error)
}

// AddEntryInput describes hours worked on an order.
type AddEntryInput struct {
	EmployeeID  uuid.UUID
	WorkDate    time.Time
	Hours       decimal.Decimal
	Role        enums.PersonnelRole
	Description *string
}

// EditEntryInput changes an entry. Nil fields are left as they are.
type EditEntryInput struct {
	WorkDate    *time.Time
	Hours       *decimal.Decimal
	Role        *enums.PersonnelRole
	Description *string
}

// SummaryLine is the total logged by one employee in one role.
type SummaryLine struct {
	EmployeeID uuid.UUID           `json:"employee_id"`
	Role       enums.PersonnelRole `json:"role"`
	Hours      decimal.Decimal     `json:"hours"`
	Entries    int                 `json:"entries"`
	Assigned   bool                `json:"assigned"`
}

// Summary aggregates an order's log. Lines with Assigned=false were logged
// by someone not staffed on the order in that role.
type Summary struct {
	OrderID    uuid.UUID       `json:"order_id"`
	TotalHours decimal.Decimal `json:"total_hours"`
	Lines      []SummaryLine   `json:"lines"`
	Unassigned int             `json:"unassigned"`
}

// Service records and reports hours worked on work orders.
type Service interface {
	AddEntry(ctx context.Context, orderID uuid.UUID, input AddEntryInput) (*models.WorkLogEntry, error)
	EditEntry(ctx context.Context, entryID uuid.UUID, input EditEntryInput) (*models.WorkLogEntry, error)
	RemoveEntry(ctx context.Context, entryID uuid.UUID) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.WorkLogEntry, error)
	ListByEmployee(ctx context.Context, employeeID uuid.UUID, from, to *time.Time) ([]models.WorkLogEntry, error)
	SummarizeByOrder(ctx context.Context, orderID uuid.UUID) (*Summary, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	registry  activeChecker
	personnel personnelLister
	logg      *logger.Logger
}

// NewService wires the work log. logg may be nil.
func NewService(repo Repository, tx txRunner, registry activeChecker, personnel personnelLister, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("work log repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry reader required")
	}
	if personnel == nil {
		return nil, fmt.Errorf("personnel lister required")
	}
	return &service{repo: repo, tx: tx, registry: registry, personnel: personnel, logg: logg}, nil
}

func (s *service) AddEntry(ctx context.Context, orderID uuid.UUID, input AddEntryInput) (*models.WorkLogEntry, error) {
	if input.EmployeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}
	hours := input.Hours.Round(2)
	if err := validateHours(hours); err != nil {
		return nil, err
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", input.Role))
	}
	if input.WorkDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work date required")
	}

	entry := &models.WorkLogEntry{
		ID:          uuid.New(),
		OrderID:     orderID,
		EmployeeID:  input.EmployeeID,
		WorkDate:    dateOnly(input.WorkDate),
		Hours:       hours,
		Role:        input.Role,
		Description: input.Description,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		if err := requireOpen(ctx, r, orderID); err != nil {
			return err
		}
		if err := s.registry.RequireActive(ctx, tx, enums.EntityKindEmployee, []uuid.UUID{input.EmployeeID}); err != nil {
			return err
		}
		if err := r.Create(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create work log entry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, orderID.String())
		logCtx = s.logg.WithEmployeeID(logCtx, input.EmployeeID.String())
		s.logg.Info(logCtx, "work logged")
	}
	return entry, nil
}

func (s *service) EditEntry(ctx context.Context, entryID uuid.UUID, input EditEntryInput) (*models.WorkLogEntry, error) {
	updates := map[string]any{}
	if input.Hours != nil {
		hours := input.Hours.Round(2)
		if err := validateHours(hours); err != nil {
			return nil, err
		}
		updates["hours"] = hours
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", *input.Role))
		}
		updates["role"] = *input.Role
	}
	if input.WorkDate != nil {
		updates["work_date"] = dateOnly(*input.WorkDate)
	}
	if input.Description != nil {
		updates["description"] = input.Description
	}

	var out *models.WorkLogEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		entry, err := findEntry(ctx, r, entryID)
		if err != nil {
			return err
		}
		if err := requireOpen(ctx, r, entry.OrderID); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := r.Update(ctx, entryID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update work log entry")
			}
		}
		out, err = findEntry(ctx, r, entryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) RemoveEntry(ctx context.Context, entryID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		entry, err := findEntry(ctx, r, entryID)
		if err != nil {
			return err
		}
		if err := requireOpen(ctx, r, entry.OrderID); err != nil {
			return err
		}
		if err := r.Delete(ctx, entryID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete work log entry")
		}
		return nil
	})
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.WorkLogEntry, error) {
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list work log")
	}
	return rows, nil
}

func (s *service) ListByEmployee(ctx context.Context, employeeID uuid.UUID, from, to *time.Time) ([]models.WorkLogEntry, error) {
	if employeeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee id required")
	}
	if from != nil {
		d := dateOnly(*from)
		from = &d
	}
	if to != nil {
		d := dateOnly(*to)
		to = &d
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range end is before start")
	}
	rows, err := s.repo.ListByEmployee(ctx, employeeID, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list work log")
	}
	return rows, nil
}

// SummarizeByOrder totals hours per employee and role and cross-references
// them with the order's personnel assignments.
func (s *service) SummarizeByOrder(ctx context.Context, orderID uuid.UUID) (*Summary, error) {
	if _, err := s.repo.FindOrder(ctx, orderID); err != nil {
		return nil, mapOrderErr(err)
	}
	entries, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list work log")
	}
	staffed, err := s.personnel.ListPersonnel(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list personnel assignments")
	}

	type key struct {
		employee uuid.UUID
		role     enums.PersonnelRole
	}
	assigned := make(map[key]bool, len(staffed))
	for _, p := range staffed {
		assigned[key{p.EmployeeID, p.Role}] = true
	}

	lines := map[key]*SummaryLine{}
	summary := &Summary{OrderID: orderID, TotalHours: decimal.Zero, Lines: []SummaryLine{}}
	for _, e := range entries {
		k := key{e.EmployeeID, e.Role}
		line, ok := lines[k]
		if !ok {
			line = &SummaryLine{EmployeeID: e.EmployeeID, Role: e.Role, Hours: decimal.Zero, Assigned: assigned[k]}
			lines[k] = line
		}
		line.Hours = line.Hours.Add(e.Hours)
		line.Entries++
		summary.TotalHours = summary.TotalHours.Add(e.Hours)
	}
	for _, line := range lines {
		summary.Lines = append(summary.Lines, *line)
		if !line.Assigned {
			summary.Unassigned++
		}
	}
	sort.Slice(summary.Lines, func(i, j int) bool {
		a, b := summary.Lines[i], summary.Lines[j]
		if a.EmployeeID != b.EmployeeID {
			return a.EmployeeID.String() < b.EmployeeID.String()
		}
		return a.Role < b.Role
	})
	return summary, nil
}

func requireOpen(ctx context.Context, r Repository, orderID uuid.UUID) error {
	order, err := r.LockOrder(ctx, orderID)
	if err != nil {
		return mapOrderErr(err)
	}
	ctxOrder := workorders.OrderContext{ID: order.ID, State: order.State}
	return workorders.CanMutateOpen(ctxOrder).Err(order.ID, order.State)
}

func findEntry(ctx context.Context, r Repository, id uuid.UUID) (*models.WorkLogEntry, error) {
	entry, err := r.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "work log entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load work log entry")
	}
	return entry, nil
}

func mapOrderErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load work order")
}

func validateHours(hours decimal.Decimal) error {
	if !hours.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "hours must be greater than zero").
			WithDetails(map[string]any{"hours": hours.String()})
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
