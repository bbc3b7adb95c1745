package stock

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hangarops/hangar-backend/api/responses"
	"github.com/hangarops/hangar-backend/api/validators"
	"github.com/hangarops/hangar-backend/internal/stockledger"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
	"github.com/hangarops/hangar-backend/pkg/logger"
	"github.com/hangarops/hangar-backend/pkg/pagination"
)

type movementResponse struct {
	ID        uuid.UUID               `json:"id"`
	OrderID   uuid.UUID               `json:"order_id"`
	Kind      enums.StockMovementKind `json:"kind"`
	Quantity  int                     `json:"quantity"`
	CreatedAt time.Time               `json:"created_at"`
}

type journalResponse struct {
	StockItemID uuid.UUID          `json:"stock_item_id"`
	Available   int                `json:"quantity_available"`
	Movements   []movementResponse `json:"movements"`
}

// Movements returns the newest ledger journal entries for one stock item.
func Movements(ledger stockledger.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock ledger unavailable"))
			return
		}
		itemID, err := validators.ParsePathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := ledger.Movements(r.Context(), itemID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		available, err := ledger.Available(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := journalResponse{StockItemID: itemID, Available: available, Movements: make([]movementResponse, 0, len(rows))}
		for _, m := range rows {
			out.Movements = append(out.Movements, movementResponse{ID: m.ID, OrderID: m.OrderID, Kind: m.Kind, Quantity: m.Quantity, CreatedAt: m.CreatedAt})
		}
		responses.WriteSuccess(w, out)
	}
}
