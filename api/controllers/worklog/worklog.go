package worklog

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hangarops/hangar-backend/api/responses"
	"github.com/hangarops/hangar-backend/api/validators"
	internalworklog "github.com/hangarops/hangar-backend/internal/worklog"
	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
	"github.com/hangarops/hangar-backend/pkg/logger"
)

const (
	orderIDParam = "orderId"
	entryIDParam = "entryId"
)

type addEntryRequest struct {
	EmployeeID  string          `json:"employee_id" validate:"required,uuid"`
	WorkDate    string          `json:"work_date" validate:"required,datetime=2006-01-02"`
	Hours       decimal.Decimal `json:"hours"`
	Role        string          `json:"role" validate:"required,oneof=technician certifier"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
}

type editEntryRequest struct {
	WorkDate    *string          `json:"work_date" validate:"omitempty,datetime=2006-01-02"`
	Hours       *decimal.Decimal `json:"hours"`
	Role        *string          `json:"role" validate:"omitempty,oneof=technician certifier"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
}

type entryResponse struct {
	ID          uuid.UUID           `json:"id"`
	OrderID     uuid.UUID           `json:"order_id"`
	EmployeeID  uuid.UUID           `json:"employee_id"`
	WorkDate    string              `json:"work_date"`
	Hours       decimal.Decimal     `json:"hours"`
	Role        enums.PersonnelRole `json:"role"`
	Description *string             `json:"description"`
	CreatedAt   time.Time           `json:"created_at"`
}

type orderLogResponse struct {
	Entries []entryResponse          `json:"entries"`
	Summary *internalworklog.Summary `json:"summary"`
}

// AddEntry records hours against an open work order.
func AddEntry(svc internalworklog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work log service unavailable"))
			return
		}
		orderID, err := validators.ParsePathUUID(r, orderIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addEntryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		workDate, _ := time.Parse(validators.DateLayout, req.WorkDate)
		input := internalworklog.AddEntryInput{
			EmployeeID:  uuid.MustParse(req.EmployeeID),
			WorkDate:    workDate,
			Hours:       req.Hours,
			Role:        enums.PersonnelRole(req.Role),
			Description: req.Description,
		}

		entry, err := svc.AddEntry(r.Context(), orderID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toEntryResponse(entry))
	}
}

func EditEntry(svc internalworklog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work log service unavailable"))
			return
		}
		entryID, err := validators.ParsePathUUID(r, entryIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req editEntryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := internalworklog.EditEntryInput{Hours: req.Hours, Description: req.Description}
		if req.WorkDate != nil {
			d, _ := time.Parse(validators.DateLayout, *req.WorkDate)
			input.WorkDate = &d
		}
		if req.Role != nil {
			role := enums.PersonnelRole(*req.Role)
			input.Role = &role
		}

		entry, err := svc.EditEntry(r.Context(), entryID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toEntryResponse(entry))
	}
}

func RemoveEntry(svc internalworklog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work log service unavailable"))
			return
		}
		entryID, err := validators.ParsePathUUID(r, entryIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveEntry(r.Context(), entryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": entryID, "removed": true})
	}
}

// ListByEmployee requires employee_id and accepts optional from/to dates.
func ListByEmployee(svc internalworklog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work log service unavailable"))
			return
		}
		employeeID, err := validators.ParseQueryUUID(r, "employee_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if employeeID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "employee_id is required"))
			return
		}
		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListByEmployee(r.Context(), *employeeID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toEntryResponses(rows))
	}
}

// ListByOrder returns the order's entries together with per-employee totals.
func ListByOrder(svc internalworklog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work log service unavailable"))
			return
		}
		orderID, err := validators.ParsePathUUID(r, orderIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.SummarizeByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderLogResponse{Entries: toEntryResponses(rows), Summary: summary})
	}
}

func toEntryResponse(e *models.WorkLogEntry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		OrderID:     e.OrderID,
		EmployeeID:  e.EmployeeID,
		WorkDate:    e.WorkDate.Format(validators.DateLayout),
		Hours:       e.Hours,
		Role:        e.Role,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

func toEntryResponses(rows []models.WorkLogEntry) []entryResponse {
	out := make([]entryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toEntryResponse(&rows[i]))
	}
	return out
}
