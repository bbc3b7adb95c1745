package workorders

import (
	"github.com/google/uuid"

	"github.com/hangarops/hangar-backend/internal/assignments"
	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	"github.com/hangarops/hangar-backend/pkg/types"
)

// CreateInput opens a work order against one subject.
type CreateInput struct {
	Subject types.SubjectRef
}

// Phase2Input overwrites the request description block. Nil clears a field.
type Phase2Input struct {
	RequestDescription      *string
	RequestedBy             *string
	PriorOrderReference     *string
	RequestSignatureFileRef *string
}

// Phase3Input overwrites the execution block and replaces every resource
// assignment. An empty list removes all assignments of that kind.
type Phase3Input struct {
	ReceivingInspectionDone bool
	PriorDamageNotes        *string
	ActionTaken             *string
	Discrepancies           *string
	ToolIDs                 []uuid.UUID
	Stock                   []assignments.StockRequest
	Personnel               []assignments.PersonnelRequest
}

// InvoiceInput sets billing data. State defaults to the current state when empty.
type InvoiceInput struct {
	State   enums.InvoiceState
	Number  *string
	FileRef *string
}

// CloseInput optionally carries invoice data known at close time.
type CloseInput struct {
	Invoice *InvoiceInput
}

// ListFilters narrows List results. Nil fields are ignored.
type ListFilters struct {
	State       *enums.WorkOrderState
	SubjectKind *enums.SubjectKind
	SubjectID   *uuid.UUID
	Archived    *bool
}

// ListResult is one page of orders, newest first.
type ListResult struct {
	Orders     []models.WorkOrder
	NextCursor string
}
