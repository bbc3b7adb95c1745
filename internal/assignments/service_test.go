package assignments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/internal/dbtest"
	"github.com/hangarops/hangar-backend/internal/registry"
	"github.com/hangarops/hangar-backend/internal/stockledger"
	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
)

type fixture struct {
	conn  *gorm.DB
	store Store
	order models.WorkOrder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	ledger, err := stockledger.NewLedger(stockledger.NewRepository(conn), nil)
	require.NoError(t, err)
	reg, err := registry.NewService(registry.NewRepository(conn))
	require.NoError(t, err)
	store, err := NewStore(NewRepository(conn), ledger, reg)
	require.NoError(t, err)

	ac := dbtest.Aircraft(t, conn)
	order := dbtest.WorkOrder(t, conn, enums.SubjectKindAircraft, ac.ID, enums.WorkOrderStateOpen)
	return fixture{conn: conn, store: store, order: order}
}

func (f fixture) tx(t *testing.T, fn func(tx *gorm.DB) error) error {
	t.Helper()
	return f.conn.Transaction(fn)
}

func TestNewStoreRequiresCollaborators(t *testing.T) {
	_, err := NewStore(nil, nil, nil)
	assert.Error(t, err)
}

func TestValidateRequest(t *testing.T) {
	tool := uuid.New()
	item := uuid.New()
	emp := uuid.New()

	err := ValidateRequest([]uuid.UUID{tool, tool}, nil, nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateAssignment))

	err = ValidateRequest(nil, []StockRequest{{StockItemID: item, Quantity: 1}, {StockItemID: item, Quantity: 2}}, nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateAssignment))

	err = ValidateRequest(nil, nil, []PersonnelRequest{
		{EmployeeID: emp, Role: enums.PersonnelRoleTechnician},
		{EmployeeID: emp, Role: enums.PersonnelRoleTechnician},
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateAssignment))

	// The same person may hold both roles.
	err = ValidateRequest(nil, nil, []PersonnelRequest{
		{EmployeeID: emp, Role: enums.PersonnelRoleTechnician},
		{EmployeeID: emp, Role: enums.PersonnelRoleCertifier},
	})
	assert.NoError(t, err)

	err = ValidateRequest(nil, []StockRequest{{StockItemID: item, Quantity: 0}}, []PersonnelRequest{{EmployeeID: emp, Role: "pilot"}})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	problems := pkgerrors.As(err).Details().(map[string]any)["problems"].([]string)
	assert.Len(t, problems, 2)
}

func TestReplaceToolsDiffs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t1, t2, t3 := dbtest.Tool(t, f.conn), dbtest.Tool(t, f.conn), dbtest.Tool(t, f.conn)

	require.NoError(t, f.tx(t, func(tx *gorm.DB) error {
		return f.store.ReplaceTools(ctx, tx, f.order.ID, []uuid.UUID{t1.ID, t2.ID})
	}))
	require.NoError(t, f.tx(t, func(tx *gorm.DB) error {
		return f.store.ReplaceTools(ctx, tx, f.order.ID, []uuid.UUID{t2.ID, t3.ID})
	}))

	set, err := f.store.Load(ctx, f.conn, f.order.ID)
	require.NoError(t, err)
	var ids []uuid.UUID
	for _, row := range set.Tools {
		ids = append(ids, row.ToolID)
	}
	assert.ElementsMatch(t, []uuid.UUID{t2.ID, t3.ID}, ids)

	require.NoError(t, f.tx(t, func(tx *gorm.DB) error {
		return f.store.ReplaceTools(ctx, tx, f.order.ID, nil)
	}))
	set, err = f.store.Load(ctx, f.conn, f.order.ID)
	require.NoError(t, err)
	assert.Empty(t, set.Tools)
}

func TestReplaceToolsRejectsArchivedAndMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tool := dbtest.Tool(t, f.conn)
	require.NoError(t, f.conn.Model(&models.Tool{}).Where("id = ?", tool.ID).Update("archived_at", time.Now().UTC()).Error)

	err := f.tx(t, func(tx *gorm.DB) error {
		return f.store.ReplaceTools(ctx, tx, f.order.ID, []uuid.UUID{tool.ID})
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	err = f.tx(t, func(tx *gorm.DB) error {
		return f.store.ReplaceTools(ctx, tx, f.order.ID, []uuid.UUID{uuid.New()})
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestReplacePersonnel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e1, e2 := dbtest.Employee(t, f.conn), dbtest.Employee(t, f.conn)

	require.NoError(t, f.tx(t, func(tx *gorm.DB) error {
		return f.store.ReplacePersonnel(ctx, tx, f.order.ID, []PersonnelRequest{
			{EmployeeID: e1.ID, Role: enums.PersonnelRoleTechnician},
			{EmployeeID: e1.ID, Role: enums.PersonnelRoleCertifier},
		})
	}))
	require.NoError(t, f.tx(t, func(tx *gorm.DB) error {
		return f.store.ReplacePersonnel(ctx, tx, f.order.ID, []PersonnelRequest{
			{EmployeeID: e1.ID, Role: enums.PersonnelRoleCertifier},
			{EmployeeID: e2.ID, Role: enums.PersonnelRoleTechnician},
		})
	}))

	set, err := f.store.Load(ctx, f.conn, f.order.ID)
	require.NoError(t, err)
	got := map[PersonnelRequest]bool{}
	for _, row := range set.Personnel {
		got[PersonnelRequest{EmployeeID: row.EmployeeID, Role: row.Role}] = true
	}
	assert.Equal(t, map[PersonnelRequest]bool{
		{EmployeeID: e1.ID, Role: enums.PersonnelRoleCertifier}:  true,
		{EmployeeID: e2.ID, Role: enums.PersonnelRoleTechnician}: true,
	}, got)
}

func TestReconcileStockLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := dbtest.StockItem(t, f.conn, 10)
	b := dbtest.StockItem(t, f.conn, 5)

	require.NoError(t, f.tx(t, func(tx *gorm.DB) error {
		return f.store.ReconcileStock(ctx, tx, f.order.ID, []StockRequest{{a.ID, 4}, {b.ID, 5}})
	}))
	assert.Equal(t, 6, dbtest.Available(t, f.conn, a.ID))
	assert.Equal(t, 0, dbtest.Available(t, f.conn, b.ID))

	// Shrink a, drop b.
	require.NoError(t, f.tx(t, func(tx *gorm.DB) error {
		return f.store.ReconcileStock(ctx, tx, f.order.ID, []StockRequest{{a.ID, 2}})
	}))
	assert.Equal(t, 8, dbtest.Available(t, f.conn, a.ID))
	assert.Equal(t, 5, dbtest.Available(t, f.conn, b.ID))

	set, err := f.store.Load(ctx, f.conn, f.order.ID)
	require.NoError(t, err)
	require.Len(t, set.Stock, 1)
	assert.Equal(t, 2, set.Stock[0].QuantityUsed)

	require.NoError(t, f.tx(t, func(tx *gorm.DB) error {
		return f.store.ReleaseAll(ctx, tx, f.order.ID)
	}))
	assert.Equal(t, 10, dbtest.Available(t, f.conn, a.ID))
}

func TestReconcileStockIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	items := []models.StockItem{
		dbtest.StockItem(t, f.conn, 10),
		dbtest.StockItem(t, f.conn, 10),
		dbtest.StockItem(t, f.conn, 1),
	}

	err := f.tx(t, func(tx *gorm.DB) error {
		return f.store.ReconcileStock(ctx, tx, f.order.ID, []StockRequest{
			{items[0].ID, 5}, {items[1].ID, 5}, {items[2].ID, 999},
		})
	})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock), "got %v", err)
	for i, want := range []int{10, 10, 1} {
		assert.Equal(t, want, dbtest.Available(t, f.conn, items[i].ID))
	}
	set, err := f.store.Load(ctx, f.conn, f.order.ID)
	require.NoError(t, err)
	assert.Empty(t, set.Stock)
}

func TestReconcileStockRejectsArchivedItem(t *testing.T) {
	f := newFixture(t)
	item := dbtest.StockItem(t, f.conn, 3)
	require.NoError(t, f.conn.Model(&models.StockItem{}).Where("id = ?", item.ID).Update("archived_at", time.Now().UTC()).Error)

	err := f.tx(t, func(tx *gorm.DB) error {
		return f.store.ReconcileStock(context.Background(), tx, f.order.ID, []StockRequest{{item.ID, 1}})
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, 3, dbtest.Available(t, f.conn, item.ID))
}
