package enums

import "fmt"

// WorkOrderState tracks the lifecycle of a work order.
type WorkOrderState string

const (
	WorkOrderStateOpen      WorkOrderState = "open"
	WorkOrderStateClosed    WorkOrderState = "closed"
	WorkOrderStateCancelled WorkOrderState = "cancelled"
)

var validWorkOrderStates = []WorkOrderState{
	WorkOrderStateOpen,
	WorkOrderStateClosed,
	WorkOrderStateCancelled,
}

// String implements fmt.Stringer.
func (s WorkOrderState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known WorkOrderState.
func (s WorkOrderState) IsValid() bool {
	for _, candidate := range validWorkOrderStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further lifecycle transition is possible.
func (s WorkOrderState) IsTerminal() bool {
	return s == WorkOrderStateClosed || s == WorkOrderStateCancelled
}

// ParseWorkOrderState converts raw input into a WorkOrderState.
func ParseWorkOrderState(value string) (WorkOrderState, error) {
	for _, candidate := range validWorkOrderStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid work order state %q", value)
}
