package stock

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/internal/dbtest"
	"github.com/hangarops/hangar-backend/internal/stockledger"
	"github.com/hangarops/hangar-backend/pkg/enums"
)

func TestMovementsReturnsJournal(t *testing.T) {
	conn := dbtest.Open(t)
	ledger, err := stockledger.NewLedger(stockledger.NewRepository(conn), nil)
	require.NoError(t, err)
	item := dbtest.StockItem(t, conn, 10)
	ac := dbtest.Aircraft(t, conn)
	order := dbtest.WorkOrder(t, conn, enums.SubjectKindAircraft, ac.ID, enums.WorkOrderStateOpen)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		if err := ledger.Reserve(context.Background(), tx, item.ID, 4, order.ID); err != nil {
			return err
		}
		return ledger.Release(context.Background(), tx, item.ID, 1, order.ID)
	}))

	r := chi.NewRouter()
	r.Get("/api/v1/stock/{itemId}/movements", Movements(ledger, nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/stock/"+item.ID.String()+"/movements?limit=10", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var env struct {
		Data journalResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	assert.Equal(t, 7, env.Data.Available)
	require.Len(t, env.Data.Movements, 2)
	kinds := []enums.StockMovementKind{env.Data.Movements[0].Kind, env.Data.Movements[1].Kind}
	assert.ElementsMatch(t, []enums.StockMovementKind{enums.StockMovementReserve, enums.StockMovementRelease}, kinds)
}

func TestMovementsUnknownItem(t *testing.T) {
	conn := dbtest.Open(t)
	ledger, err := stockledger.NewLedger(stockledger.NewRepository(conn), nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/api/v1/stock/{itemId}/movements", Movements(ledger, nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/stock/"+uuid.NewString()+"/movements", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/stock/"+uuid.NewString()+"/movements?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
