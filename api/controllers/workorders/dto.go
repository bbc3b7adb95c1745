package workorders

import (
	"time"

	"github.com/google/uuid"

	"github.com/hangarops/hangar-backend/api/validators"
	"github.com/hangarops/hangar-backend/internal/assignments"
	internalworkorders "github.com/hangarops/hangar-backend/internal/workorders"
	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
	"github.com/hangarops/hangar-backend/pkg/types"
)

type createRequest struct {
	SubjectKind string `json:"subject_kind" validate:"required"`
	SubjectID   string `json:"subject_id" validate:"required"`
}

func (r createRequest) toInput() (internalworkorders.CreateInput, error) {
	id, err := uuid.Parse(validators.SanitizeString(r.SubjectID, 0))
	if err != nil {
		return internalworkorders.CreateInput{}, pkgerrors.New(pkgerrors.CodeInvalidSubject, "subject id must be a uuid").
			WithDetails(map[string]any{"subject_id": r.SubjectID})
	}
	return internalworkorders.CreateInput{
		Subject: types.SubjectRef{Kind: enums.SubjectKind(r.SubjectKind), ID: id},
	}, nil
}

type phase2Request struct {
	RequestDescription      *string `json:"request_description" validate:"omitempty,max=4000"`
	RequestedBy             *string `json:"requested_by" validate:"omitempty,max=200"`
	PriorOrderReference     *string `json:"prior_order_reference" validate:"omitempty,max=200"`
	RequestSignatureFileRef *string `json:"request_signature_file_ref" validate:"omitempty,max=500"`
}

func (r phase2Request) toInput() internalworkorders.Phase2Input {
	return internalworkorders.Phase2Input{
		RequestDescription:      validators.SanitizeOptional(r.RequestDescription, 0),
		RequestedBy:             validators.SanitizeOptional(r.RequestedBy, 0),
		PriorOrderReference:     validators.SanitizeOptional(r.PriorOrderReference, 0),
		RequestSignatureFileRef: validators.SanitizeOptional(r.RequestSignatureFileRef, 0),
	}
}

type stockLineRequest struct {
	StockItemID string `json:"stock_item_id" validate:"required,uuid"`
	Quantity    int    `json:"quantity"`
}

type personnelRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	Role       string `json:"role" validate:"required"`
}

type phase3Request struct {
	ReceivingInspectionDone bool               `json:"receiving_inspection_done"`
	PriorDamageNotes        *string            `json:"prior_damage_notes" validate:"omitempty,max=4000"`
	ActionTaken             *string            `json:"action_taken" validate:"omitempty,max=8000"`
	Discrepancies           *string            `json:"discrepancies" validate:"omitempty,max=8000"`
	ToolIDs                 []string           `json:"tool_ids" validate:"dive,uuid"`
	Stock                   []stockLineRequest `json:"stock" validate:"dive"`
	Personnel               []personnelRequest `json:"personnel" validate:"dive"`
}

// toInput assumes the struct already passed validation, so uuid parsing
// cannot fail.
func (r phase3Request) toInput() internalworkorders.Phase3Input {
	in := internalworkorders.Phase3Input{
		ReceivingInspectionDone: r.ReceivingInspectionDone,
		PriorDamageNotes:        validators.SanitizeOptional(r.PriorDamageNotes, 0),
		ActionTaken:             validators.SanitizeOptional(r.ActionTaken, 0),
		Discrepancies:           validators.SanitizeOptional(r.Discrepancies, 0),
		ToolIDs:                 make([]uuid.UUID, 0, len(r.ToolIDs)),
		Stock:                   make([]assignments.StockRequest, 0, len(r.Stock)),
		Personnel:               make([]assignments.PersonnelRequest, 0, len(r.Personnel)),
	}
	for _, raw := range r.ToolIDs {
		in.ToolIDs = append(in.ToolIDs, uuid.MustParse(raw))
	}
	for _, line := range r.Stock {
		in.Stock = append(in.Stock, assignments.StockRequest{
			StockItemID: uuid.MustParse(line.StockItemID),
			Quantity:    line.Quantity,
		})
	}
	for _, p := range r.Personnel {
		in.Personnel = append(in.Personnel, assignments.PersonnelRequest{
			EmployeeID: uuid.MustParse(p.EmployeeID),
			Role:       enums.PersonnelRole(p.Role),
		})
	}
	return in
}

type invoiceRequest struct {
	State   string  `json:"state" validate:"omitempty,oneof=pending issued paid"`
	Number  *string `json:"number" validate:"omitempty,max=64"`
	FileRef *string `json:"file_ref" validate:"omitempty,max=500"`
}

func (r invoiceRequest) toInput() internalworkorders.InvoiceInput {
	return internalworkorders.InvoiceInput{
		State:   enums.InvoiceState(r.State),
		Number:  validators.SanitizeOptional(r.Number, 0),
		FileRef: validators.SanitizeOptional(r.FileRef, 0),
	}
}

type closeRequest struct {
	Invoice *invoiceRequest `json:"invoice"`
}

type toolResponse struct {
	ToolID     uuid.UUID `json:"tool_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

type stockResponse struct {
	StockItemID  uuid.UUID `json:"stock_item_id"`
	QuantityUsed int       `json:"quantity_used"`
}

type personnelResponse struct {
	EmployeeID uuid.UUID           `json:"employee_id"`
	Role       enums.PersonnelRole `json:"role"`
}

type workOrderResponse struct {
	ID          uuid.UUID            `json:"id"`
	OrderNumber int64                `json:"order_number"`
	Subject     types.SubjectRef     `json:"subject"`
	State       enums.WorkOrderState `json:"state"`
	Archived    bool                 `json:"archived"`

	RequestDescription      *string `json:"request_description"`
	RequestedBy             *string `json:"requested_by"`
	PriorOrderReference     *string `json:"prior_order_reference"`
	RequestSignatureFileRef *string `json:"request_signature_file_ref"`

	ReceivingInspectionDone bool    `json:"receiving_inspection_done"`
	PriorDamageNotes        *string `json:"prior_damage_notes"`
	ActionTaken             *string `json:"action_taken"`
	Discrepancies           *string `json:"discrepancies"`

	InvoiceState   enums.InvoiceState `json:"invoice_state"`
	InvoiceNumber  *string            `json:"invoice_number"`
	InvoiceFileRef *string            `json:"invoice_file_ref"`

	Tools     []toolResponse      `json:"tools"`
	Stock     []stockResponse     `json:"stock"`
	Personnel []personnelResponse `json:"personnel"`

	ClosureSnapshot *types.ClosureSnapshot `json:"closure_snapshot,omitempty"`
	ClosedAt        *time.Time             `json:"closed_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

type listResponse struct {
	Orders     []workOrderResponse `json:"orders"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

func toResponse(o *models.WorkOrder) workOrderResponse {
	out := workOrderResponse{
		ID:                      o.ID,
		OrderNumber:             o.OrderNumber,
		Subject:                 o.Subject(),
		State:                   o.State,
		Archived:                o.Archived,
		RequestDescription:      o.RequestDescription,
		RequestedBy:             o.RequestedBy,
		PriorOrderReference:     o.PriorOrderReference,
		RequestSignatureFileRef: o.RequestSignatureFileRef,
		ReceivingInspectionDone: o.ReceivingInspectionDone,
		PriorDamageNotes:        o.PriorDamageNotes,
		ActionTaken:             o.ActionTaken,
		Discrepancies:           o.Discrepancies,
		InvoiceState:            o.InvoiceState,
		InvoiceNumber:           o.InvoiceNumber,
		InvoiceFileRef:          o.InvoiceFileRef,
		Tools:                   make([]toolResponse, 0, len(o.Tools)),
		Stock:                   make([]stockResponse, 0, len(o.Stock)),
		Personnel:               make([]personnelResponse, 0, len(o.Personnel)),
		ClosureSnapshot:         o.ClosureSnapshot,
		ClosedAt:                o.ClosedAt,
		CreatedAt:               o.CreatedAt,
		UpdatedAt:               o.UpdatedAt,
	}
	for _, t := range o.Tools {
		out.Tools = append(out.Tools, toolResponse{ToolID: t.ToolID, AssignedAt: t.AssignedAt})
	}
	for _, s := range o.Stock {
		out.Stock = append(out.Stock, stockResponse{StockItemID: s.StockItemID, QuantityUsed: s.QuantityUsed})
	}
	for _, p := range o.Personnel {
		out.Personnel = append(out.Personnel, personnelResponse{EmployeeID: p.EmployeeID, Role: p.Role})
	}
	return out
}

func toListResponse(res *internalworkorders.ListResult) listResponse {
	out := listResponse{Orders: make([]workOrderResponse, 0, len(res.Orders)), NextCursor: res.NextCursor}
	for i := range res.Orders {
		out.Orders = append(out.Orders, toResponse(&res.Orders[i]))
	}
	return out
}
