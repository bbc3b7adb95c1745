package workorders

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
)

// GuardResult is the outcome of a pure transition check.
type GuardResult struct {
	Allowed bool
	Code    pkgerrors.Code
	Reason  string
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(code pkgerrors.Code, format string, args ...any) GuardResult {
	return GuardResult{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// Err converts a denied result into a typed error.
func (r GuardResult) Err(orderID uuid.UUID, state enums.WorkOrderState) error {
	if r.Allowed {
		return nil
	}
	return pkgerrors.New(r.Code, r.Reason).
		WithDetails(map[string]any{"order_id": orderID, "state": state})
}

// OrderContext is the slice of an order the guards look at.
type OrderContext struct {
	ID       uuid.UUID
	State    enums.WorkOrderState
	Archived bool
}

// CanMutateOpen covers phase updates, close, cancel and work-log changes.
// Rules:
// - Order must be OPEN
func CanMutateOpen(ctx OrderContext) GuardResult {
	if ctx.State != enums.WorkOrderStateOpen {
		return deny(pkgerrors.CodeOrderNotOpen, "work order %s is %s", ctx.ID, ctx.State)
	}
	return allow()
}

// CanTransition checks a state change.
// Rules:
// - Only OPEN -> CLOSED and OPEN -> CANCELLED exist
// - Nothing leaves a terminal state
func CanTransition(ctx OrderContext, to enums.WorkOrderState) GuardResult {
	if ctx.State.IsTerminal() {
		return deny(pkgerrors.CodeOrderNotOpen, "work order %s is already %s", ctx.ID, ctx.State)
	}
	switch to {
	case enums.WorkOrderStateClosed, enums.WorkOrderStateCancelled:
		return allow()
	default:
		return deny(pkgerrors.CodeStateConflict, "cannot move work order %s from %s to %s", ctx.ID, ctx.State, to)
	}
}

// CanSetInvoice checks billing updates.
// Rules:
// - Order must be CLOSED
func CanSetInvoice(ctx OrderContext) GuardResult {
	if ctx.State != enums.WorkOrderStateClosed {
		return deny(pkgerrors.CodeStateConflict, "invoice requires a closed order; work order %s is %s", ctx.ID, ctx.State)
	}
	return allow()
}

// CanToggleArchived checks archive and unarchive of the order itself.
// Rules:
// - Order must not be OPEN
func CanToggleArchived(ctx OrderContext) GuardResult {
	if ctx.State == enums.WorkOrderStateOpen {
		return deny(pkgerrors.CodeStateConflict, "work order %s is open and cannot be archived", ctx.ID)
	}
	return allow()
}
