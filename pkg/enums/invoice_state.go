package enums

import "fmt"

// InvoiceState tracks billing progress of a closed work order.
type InvoiceState string

const (
	InvoiceStatePending InvoiceState = "pending"
	InvoiceStateIssued  InvoiceState = "issued"
	InvoiceStatePaid    InvoiceState = "paid"
)

var validInvoiceStates = []InvoiceState{
	InvoiceStatePending,
	InvoiceStateIssued,
	InvoiceStatePaid,
}

// String implements fmt.Stringer.
func (s InvoiceState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known InvoiceState.
func (s InvoiceState) IsValid() bool {
	for _, candidate := range validInvoiceStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseInvoiceState converts raw input into an InvoiceState.
func ParseInvoiceState(value string) (InvoiceState, error) {
	for _, candidate := range validInvoiceStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice state %q", value)
}
