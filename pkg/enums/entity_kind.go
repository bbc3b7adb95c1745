package enums

import "fmt"

// EntityKind names the registry entities protected by the archive guard.
type EntityKind string

const (
	EntityKindEmployee  EntityKind = "employee"
	EntityKindTool      EntityKind = "tool"
	EntityKindStockItem EntityKind = "stock_item"
	EntityKindAircraft  EntityKind = "aircraft"
	EntityKindOwner     EntityKind = "owner"
	EntityKindComponent EntityKind = "component"
)

var validEntityKinds = []EntityKind{
	EntityKindEmployee,
	EntityKindTool,
	EntityKindStockItem,
	EntityKindAircraft,
	EntityKindOwner,
	EntityKindComponent,
}

// String implements fmt.Stringer.
func (k EntityKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known EntityKind.
func (k EntityKind) IsValid() bool {
	for _, candidate := range validEntityKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// EntityKinds returns every guarded kind in a stable order.
func EntityKinds() []EntityKind {
	out := make([]EntityKind, len(validEntityKinds))
	copy(out, validEntityKinds)
	return out
}

// ParseEntityKind converts raw input into an EntityKind.
func ParseEntityKind(value string) (EntityKind, error) {
	for _, candidate := range validEntityKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity kind %q", value)
}
