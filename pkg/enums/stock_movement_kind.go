package enums

// StockMovementKind records the direction of a ledger mutation.
type StockMovementKind string

const (
	StockMovementReserve StockMovementKind = "reserve"
	StockMovementRelease StockMovementKind = "release"
)

// IsValid reports whether the value is a known StockMovementKind.
func (k StockMovementKind) IsValid() bool {
	return k == StockMovementReserve || k == StockMovementRelease
}
