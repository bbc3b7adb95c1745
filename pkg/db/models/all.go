package models

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Employee{},
		&Tool{},
		&Owner{},
		&Aircraft{},
		&AircraftOwner{},
		&ExternalComponent{},
		&StockItem{},
		&WorkOrderCounter{},
		&WorkOrder{},
		&ToolAssignment{},
		&StockAssignment{},
		&PersonnelAssignment{},
		&StockMovement{},
		&WorkLogEntry{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
