package archive

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hangarops/hangar-backend/api/responses"
	"github.com/hangarops/hangar-backend/api/validators"
	internalarchive "github.com/hangarops/hangar-backend/internal/archive"
	"github.com/hangarops/hangar-backend/internal/archiveguard"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
	"github.com/hangarops/hangar-backend/pkg/logger"
)

const (
	kindParam = "kind"
	idParam   = "id"

	defaultReferenceLimit = 20
	maxReferenceLimit     = 100
)

type referencesResponse struct {
	Kind       enums.EntityKind        `json:"kind"`
	ID         uuid.UUID               `json:"id"`
	Referenced bool                    `json:"referenced"`
	OpenOrders []archiveguard.OrderRef `json:"open_orders"`
}

// References lists the open work orders that would block archiving.
func References(guard archiveguard.Guard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if guard == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "archive guard unavailable"))
			return
		}
		kind, id, err := parseEntity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", defaultReferenceLimit, 1, maxReferenceLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		refs, err := guard.OpenOrdersReferencing(r.Context(), nil, kind, id, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if refs == nil {
			refs = []archiveguard.OrderRef{}
		}
		responses.WriteSuccess(w, referencesResponse{Kind: kind, ID: id, Referenced: len(refs) > 0, OpenOrders: refs})
	}
}

// Archive flags a registry entity as archived unless an open order still uses it.
func Archive(svc internalarchive.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "archive service unavailable"))
			return
		}
		kind, id, err := parseEntity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.Archive(r.Context(), kind, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

func Unarchive(svc internalarchive.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "archive service unavailable"))
			return
		}
		kind, id, err := parseEntity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.Unarchive(r.Context(), kind, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

func parseEntity(r *http.Request) (enums.EntityKind, uuid.UUID, error) {
	kind, err := enums.ParseEntityKind(strings.TrimSpace(chi.URLParam(r, kindParam)))
	if err != nil {
		return "", uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entity kind").
			WithDetails(map[string]any{"allowed": enums.EntityKinds()})
	}
	id, err := validators.ParsePathUUID(r, idParam)
	if err != nil {
		return "", uuid.Nil, err
	}
	return kind, id, nil
}
