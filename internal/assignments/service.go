package assignments

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/internal/stockledger"
	"github.com/hangarops/hangar-backend/pkg/db"
	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
)

// StockRequest is the desired quantity of one stock item on an order.
type StockRequest struct {
	StockItemID uuid.UUID
	Quantity    int
}

// PersonnelRequest places one employee on an order in one role.
type PersonnelRequest struct {
	EmployeeID uuid.UUID
	Role       enums.PersonnelRole
}

// Set is every assignment currently attached to an order.
type Set struct {
	Tools     []models.ToolAssignment
	Stock     []models.StockAssignment
	Personnel []models.PersonnelAssignment
}

type activeChecker interface {
	RequireActive(ctx context.Context, tx *gorm.DB, kind enums.EntityKind, ids []uuid.UUID) error
}

// Store replaces and reconciles the resources attached to a work order. All
// methods run inside the caller's transaction; the caller holds the order
// lock and has already checked the order is open.
type Store interface {
	Load(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*Set, error)
	ReplaceTools(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, toolIDs []uuid.UUID) error
	ReplacePersonnel(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, people []PersonnelRequest) error
	ReconcileStock(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []StockRequest) error
	ReleaseAll(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

type store struct {
	repo     Repository
	ledger   stockledger.Ledger
	registry activeChecker
}

// NewStore wires the assignment store.
func NewStore(repo Repository, ledger stockledger.Ledger, registry activeChecker) (Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignment repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry reader required")
	}
	return &store{repo: repo, ledger: ledger, registry: registry}, nil
}

// ValidateRequest checks a phase-3 resource request for duplicates and bad
// quantities before any row is touched.
func ValidateRequest(toolIDs []uuid.UUID, lines []StockRequest, people []PersonnelRequest) error {
	var errs error
	dups := map[string][]string{}

	seenTools := make(map[uuid.UUID]struct{}, len(toolIDs))
	for _, id := range toolIDs {
		if id == uuid.Nil {
			errs = multierr.Append(errs, fmt.Errorf("tool id required"))
			continue
		}
		if _, ok := seenTools[id]; ok {
			dups["tools"] = append(dups["tools"], id.String())
		}
		seenTools[id] = struct{}{}
	}

	seenStock := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if line.StockItemID == uuid.Nil {
			errs = multierr.Append(errs, fmt.Errorf("stock item id required"))
			continue
		}
		if line.Quantity <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("stock item %s: quantity must be positive", line.StockItemID))
		}
		if _, ok := seenStock[line.StockItemID]; ok {
			dups["stock"] = append(dups["stock"], line.StockItemID.String())
		}
		seenStock[line.StockItemID] = struct{}{}
	}

	seenPeople := make(map[PersonnelRequest]struct{}, len(people))
	for _, p := range people {
		if p.EmployeeID == uuid.Nil {
			errs = multierr.Append(errs, fmt.Errorf("employee id required"))
			continue
		}
		if !p.Role.IsValid() {
			errs = multierr.Append(errs, fmt.Errorf("employee %s: invalid role %q", p.EmployeeID, p.Role))
		}
		if _, ok := seenPeople[p]; ok {
			dups["personnel"] = append(dups["personnel"], fmt.Sprintf("%s/%s", p.EmployeeID, p.Role))
		}
		seenPeople[p] = struct{}{}
	}

	if len(dups) > 0 {
		return pkgerrors.New(pkgerrors.CodeDuplicateAssignment, "request lists the same assignment more than once").
			WithDetails(dups)
	}
	if errs != nil {
		problems := make([]string, 0)
		for _, e := range multierr.Errors(errs) {
			problems = append(problems, e.Error())
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid resource request").
			WithDetails(map[string]any{"problems": problems})
	}
	return nil
}

func (s *store) Load(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*Set, error) {
	r := s.repo.WithTx(tx)
	tools, err := r.ListTools(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tool assignments")
	}
	stock, err := r.ListStock(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock assignments")
	}
	people, err := r.ListPersonnel(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list personnel assignments")
	}
	return &Set{Tools: tools, Stock: stock, Personnel: people}, nil
}

// ReplaceTools makes the order's tool set equal to toolIDs, removing first and
// adding second.
func (s *store) ReplaceTools(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, toolIDs []uuid.UUID) error {
	if err := ValidateRequest(toolIDs, nil, nil); err != nil {
		return err
	}
	if err := s.registry.RequireActive(ctx, tx, enums.EntityKindTool, toolIDs); err != nil {
		return err
	}
	r := s.repo.WithTx(tx)
	current, err := r.ListTools(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tool assignments")
	}

	wanted := make(map[uuid.UUID]struct{}, len(toolIDs))
	for _, id := range toolIDs {
		wanted[id] = struct{}{}
	}
	have := make(map[uuid.UUID]struct{}, len(current))
	var removed []uuid.UUID
	for _, row := range current {
		have[row.ToolID] = struct{}{}
		if _, ok := wanted[row.ToolID]; !ok {
			removed = append(removed, row.ToolID)
		}
	}
	var added []models.ToolAssignment
	for _, id := range toolIDs {
		if _, ok := have[id]; !ok {
			added = append(added, models.ToolAssignment{OrderID: orderID, ToolID: id})
		}
	}

	if err := r.RemoveTools(ctx, orderID, removed); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove tool assignments")
	}
	if err := r.AddTools(ctx, added); err != nil {
		return mapInsertErr(err, "add tool assignments")
	}
	return nil
}

// ReplacePersonnel makes the order's (employee, role) set equal to people.
func (s *store) ReplacePersonnel(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, people []PersonnelRequest) error {
	if err := ValidateRequest(nil, nil, people); err != nil {
		return err
	}
	employeeIDs := make([]uuid.UUID, 0, len(people))
	seen := map[uuid.UUID]struct{}{}
	for _, p := range people {
		if _, ok := seen[p.EmployeeID]; ok {
			continue
		}
		seen[p.EmployeeID] = struct{}{}
		employeeIDs = append(employeeIDs, p.EmployeeID)
	}
	if err := s.registry.RequireActive(ctx, tx, enums.EntityKindEmployee, employeeIDs); err != nil {
		return err
	}

	r := s.repo.WithTx(tx)
	current, err := r.ListPersonnel(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list personnel assignments")
	}
	wanted := make(map[PersonnelRequest]struct{}, len(people))
	for _, p := range people {
		wanted[p] = struct{}{}
	}
	have := make(map[PersonnelRequest]struct{}, len(current))
	for _, row := range current {
		key := PersonnelRequest{EmployeeID: row.EmployeeID, Role: row.Role}
		have[key] = struct{}{}
		if _, ok := wanted[key]; ok {
			continue
		}
		if err := r.RemovePersonnel(ctx, orderID, row.EmployeeID, row.Role); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove personnel assignment")
		}
	}
	var added []models.PersonnelAssignment
	for _, p := range people {
		if _, ok := have[p]; !ok {
			added = append(added, models.PersonnelAssignment{OrderID: orderID, EmployeeID: p.EmployeeID, Role: p.Role})
		}
	}
	if err := r.AddPersonnel(ctx, added); err != nil {
		return mapInsertErr(err, "add personnel assignments")
	}
	return nil
}

// ReconcileStock moves the order's stock lines to the requested quantities.
// Lines absent from the request are released, new lines are reserved, and
// changed lines are adjusted. Items are processed in id order so concurrent
// reconciliations lock stock rows in the same sequence.
func (s *store) ReconcileStock(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []StockRequest) error {
	if err := ValidateRequest(nil, lines, nil); err != nil {
		return err
	}
	itemIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		itemIDs = append(itemIDs, line.StockItemID)
	}
	if err := s.registry.RequireActive(ctx, tx, enums.EntityKindStockItem, itemIDs); err != nil {
		return err
	}

	r := s.repo.WithTx(tx)
	current, err := r.ListStock(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock assignments")
	}
	have := make(map[uuid.UUID]int, len(current))
	for _, row := range current {
		have[row.StockItemID] = row.QuantityUsed
	}
	wanted := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		wanted[line.StockItemID] = line.Quantity
	}

	touched := make([]uuid.UUID, 0, len(have)+len(wanted))
	for id := range have {
		touched = append(touched, id)
	}
	for id := range wanted {
		if _, ok := have[id]; !ok {
			touched = append(touched, id)
		}
	}
	sort.Slice(touched, func(i, j int) bool { return touched[i].String() < touched[j].String() })

	for _, itemID := range touched {
		oldQty, had := have[itemID]
		newQty, want := wanted[itemID]
		switch {
		case had && !want:
			if err := s.ledger.Release(ctx, tx, itemID, oldQty, orderID); err != nil {
				return err
			}
			if err := r.RemoveStock(ctx, orderID, itemID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove stock assignment")
			}
		case !had && want:
			if err := s.ledger.Reserve(ctx, tx, itemID, newQty, orderID); err != nil {
				return err
			}
			row := &models.StockAssignment{OrderID: orderID, StockItemID: itemID, QuantityUsed: newQty}
			if err := r.AddStock(ctx, row); err != nil {
				return mapInsertErr(err, "add stock assignment")
			}
		case oldQty != newQty:
			if err := s.ledger.Adjust(ctx, tx, itemID, oldQty, newQty, orderID); err != nil {
				return err
			}
			if err := r.UpdateStockQuantity(ctx, orderID, itemID, newQty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock assignment")
			}
		}
	}
	return nil
}

// ReleaseAll returns every reserved quantity on the order to the ledger. The
// assignment rows stay as the historical record of the cancelled order.
func (s *store) ReleaseAll(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	current, err := s.repo.WithTx(tx).ListStock(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock assignments")
	}
	for _, row := range current {
		if err := s.ledger.Release(ctx, tx, row.StockItemID, row.QuantityUsed, orderID); err != nil {
			return err
		}
	}
	return nil
}

func mapInsertErr(err error, msg string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeDuplicateAssignment, err, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
