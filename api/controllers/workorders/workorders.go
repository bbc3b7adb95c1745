package workorders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hangarops/hangar-backend/api/responses"
	"github.com/hangarops/hangar-backend/api/validators"
	internalworkorders "github.com/hangarops/hangar-backend/internal/workorders"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
	"github.com/hangarops/hangar-backend/pkg/logger"
	"github.com/hangarops/hangar-backend/pkg/pagination"
)

const orderIDParam = "orderId"

// Create opens a work order against an aircraft or external component.
func Create(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		var req createRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toResponse(order))
	}
}

// List pages through work orders, newest first.
func List(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := buildFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		result, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toListResponse(result))
	}
}

// Detail returns every field of one order, including its closure snapshot.
func Detail(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, id uuid.UUID) (any, error) {
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			return nil, err
		}
		return toResponse(order), nil
	})
}

func UpdatePhase2(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, id uuid.UUID) (any, error) {
		var req phase2Request
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		order, err := svc.UpdatePhase2(r.Context(), id, req.toInput())
		if err != nil {
			return nil, err
		}
		return toResponse(order), nil
	})
}

// UpdatePhase3 replaces the execution block and all resource assignments.
func UpdatePhase3(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, id uuid.UUID) (any, error) {
		var req phase3Request
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		order, err := svc.UpdatePhase3(r.Context(), id, req.toInput())
		if err != nil {
			return nil, err
		}
		return toResponse(order), nil
	})
}

// Close accepts an optional body carrying invoice data.
func Close(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, id uuid.UUID) (any, error) {
		var req closeRequest
		if _, err := validators.DecodeOptionalJSONBody(r, &req); err != nil {
			return nil, err
		}
		input := internalworkorders.CloseInput{}
		if req.Invoice != nil {
			inv := req.Invoice.toInput()
			input.Invoice = &inv
		}
		order, err := svc.Close(r.Context(), id, input)
		if err != nil {
			return nil, err
		}
		return toResponse(order), nil
	})
}

func Cancel(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, id uuid.UUID) (any, error) {
		order, err := svc.Cancel(r.Context(), id)
		if err != nil {
			return nil, err
		}
		return toResponse(order), nil
	})
}

func SetInvoice(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, id uuid.UUID) (any, error) {
		var req invoiceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			return nil, err
		}
		order, err := svc.SetInvoiceState(r.Context(), id, req.toInput())
		if err != nil {
			return nil, err
		}
		return toResponse(order), nil
	})
}

func Archive(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, id uuid.UUID) (any, error) {
		order, err := svc.Archive(r.Context(), id)
		if err != nil {
			return nil, err
		}
		return toResponse(order), nil
	})
}

func Unarchive(svc internalworkorders.Service, logg *logger.Logger) http.HandlerFunc {
	return withOrder(svc, logg, func(r *http.Request, id uuid.UUID) (any, error) {
		order, err := svc.Unarchive(r.Context(), id)
		if err != nil {
			return nil, err
		}
		return toResponse(order), nil
	})
}

func withOrder(svc internalworkorders.Service, logg *logger.Logger, fn func(r *http.Request, id uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		id, err := validators.ParsePathUUID(r, orderIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, id.String())
		}
		payload, err := fn(r.WithContext(ctx), id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}

func buildFilters(r *http.Request) (internalworkorders.ListFilters, error) {
	var filters internalworkorders.ListFilters
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("state")); raw != "" {
		state, err := enums.ParseWorkOrderState(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid state filter")
		}
		filters.State = &state
	}
	if raw := strings.TrimSpace(q.Get("subject_kind")); raw != "" {
		kind, err := enums.ParseSubjectKind(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subject_kind filter")
		}
		filters.SubjectKind = &kind
	}
	subjectID, err := validators.ParseQueryUUID(r, "subject_id")
	if err != nil {
		return filters, err
	}
	filters.SubjectID = subjectID

	archived, err := validators.ParseQueryBool(r, "archived")
	if err != nil {
		return filters, err
	}
	filters.Archived = archived
	return filters, nil
}
