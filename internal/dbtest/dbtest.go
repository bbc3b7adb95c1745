// Package dbtest opens isolated in-memory SQLite databases with the full
// schema and seeds registry rows for package tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/pkg/db"
	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	"github.com/hangarops/hangar-backend/pkg/types"
)

// Open returns a migrated connection private to the calling test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:hangar_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return conn
}

// Client wraps conn in the transactional client used by services.
func Client(conn *gorm.DB) *db.Client {
	return db.NewFromGorm(conn)
}

func must(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func StockItem(t testing.TB, conn *gorm.DB, qty int) models.StockItem {
	t.Helper()
	item := models.StockItem{
		ID:                uuid.New(),
		PartNumber:        "PN-" + uuid.NewString()[:8],
		Description:       "bolt",
		Unit:              "ea",
		QuantityAvailable: qty,
	}
	must(t, conn.Create(&item).Error)
	return item
}

func Tool(t testing.TB, conn *gorm.DB) models.Tool {
	t.Helper()
	tool := models.Tool{ID: uuid.New(), Name: "torque wrench"}
	must(t, conn.Create(&tool).Error)
	return tool
}

func Employee(t testing.TB, conn *gorm.DB) models.Employee {
	t.Helper()
	emp := models.Employee{ID: uuid.New(), FirstName: "Dana", LastName: "Reyes"}
	must(t, conn.Create(&emp).Error)
	return emp
}

func Owner(t testing.TB, conn *gorm.DB) models.Owner {
	t.Helper()
	email := "owner@example.com"
	owner := models.Owner{ID: uuid.New(), Name: "Skyline Charter LLC", Email: &email}
	must(t, conn.Create(&owner).Error)
	return owner
}

// Aircraft seeds an aircraft owned by the given owners.
func Aircraft(t testing.TB, conn *gorm.DB, owners ...models.Owner) models.Aircraft {
	t.Helper()
	ac := models.Aircraft{
		ID:           uuid.New(),
		Registration: "N" + uuid.NewString()[:5],
		Manufacturer: "Cessna",
		Model:        "172S",
		SerialNumber: "172S" + uuid.NewString()[:4],
	}
	must(t, conn.Create(&ac).Error)
	for _, o := range owners {
		must(t, conn.Create(&models.AircraftOwner{AircraftID: ac.ID, OwnerID: o.ID}).Error)
	}
	return ac
}

func Component(t testing.TB, conn *gorm.DB, owner *models.Owner) models.ExternalComponent {
	t.Helper()
	comp := models.ExternalComponent{
		ID:           uuid.New(),
		PartNumber:   "MAG-4371",
		SerialNumber: "SN" + uuid.NewString()[:6],
		Description:  "magneto",
	}
	if owner != nil {
		comp.OwnerID = &owner.ID
	}
	must(t, conn.Create(&comp).Error)
	return comp
}

// WorkOrder inserts an order row directly in the given state, bypassing the
// state machine.
func WorkOrder(t testing.TB, conn *gorm.DB, kind enums.SubjectKind, subjectID uuid.UUID, state enums.WorkOrderState) models.WorkOrder {
	t.Helper()
	var n int64
	must(t, conn.Model(&models.WorkOrder{}).Count(&n).Error)
	order := models.WorkOrder{
		ID:           uuid.New(),
		OrderNumber:  n + 1000,
		SubjectKind:  kind,
		SubjectID:    subjectID,
		State:        state,
		InvoiceState: enums.InvoiceStatePending,
	}
	if state.IsTerminal() {
		now := time.Now().UTC()
		order.ClosedAt = &now
		order.ClosureSnapshot = &types.ClosureSnapshot{Subject: types.SubjectRef{Kind: kind, ID: subjectID}, CapturedAt: now}
	}
	must(t, conn.Create(&order).Error)
	return order
}

// Available reads the current quantity of a stock item.
func Available(t testing.TB, conn *gorm.DB, itemID uuid.UUID) int {
	t.Helper()
	var item models.StockItem
	must(t, conn.First(&item, "id = ?", itemID).Error)
	return item.QuantityAvailable
}
