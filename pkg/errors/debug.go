package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump flattens an error chain for structured logs.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`

	// Rule names the work-order rule a violated constraint enforces.
	Rule string `json:"rule,omitempty"`
}

// constraintRules maps schema constraint names to the rule they back. A hit
// here means an application-level check was bypassed.
var constraintRules = map[string]string{
	"stock_items_quantity_available_check": "stock never negative",
	"work_orders_archived_terminal_check":  "only terminal orders archive",
	"work_orders_closure_check":            "closure snapshot set exactly when terminal",
	"work_orders_damage_notes_check":       "damage notes require receiving inspection",
	"work_orders_subject_kind_check":       "exactly one subject",
	"work_order_stock_quantity_used_check": "stock assignment quantity positive",
	"work_order_tools_pkey":                "tool assigned once per order",
	"work_order_stock_pkey":                "stock item assigned once per order",
	"work_order_personnel_pkey":            "employee role assigned once per order",
	"work_log_entries_hours_check":         "logged hours positive",
	"ux_outbox_events_event_aggregate":     "one terminal event per order",
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
	}
	d.Rule = constraintRules[d.PGConstraint]
	return d
}
