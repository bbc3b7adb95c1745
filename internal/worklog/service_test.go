package worklog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hangarops/hangar-backend/internal/assignments"
	"github.com/hangarops/hangar-backend/internal/dbtest"
	"github.com/hangarops/hangar-backend/internal/registry"
	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	reg, err := registry.NewService(registry.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), dbtest.Client(conn), reg, assignments.NewRepository(conn), nil)
	require.NoError(t, err)
	return svc, conn
}

func openOrder(t *testing.T, conn *gorm.DB) models.WorkOrder {
	t.Helper()
	ac := dbtest.Aircraft(t, conn)
	return dbtest.WorkOrder(t, conn, enums.SubjectKindAircraft, ac.ID, enums.WorkOrderStateOpen)
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 15, 30, 0, 0, time.UTC)
}

func TestAddEntryValidation(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	order := openOrder(t, conn)
	emp := dbtest.Employee(t, conn)

	base := AddEntryInput{EmployeeID: emp.ID, WorkDate: day(2), Hours: decimal.NewFromFloat(2.5), Role: enums.PersonnelRoleTechnician}

	for name, mutate := range map[string]func(*AddEntryInput){
		"zero hours":     func(in *AddEntryInput) { in.Hours = decimal.Zero },
		"negative hours": func(in *AddEntryInput) { in.Hours = decimal.NewFromInt(-1) },
		"rounds to zero": func(in *AddEntryInput) { in.Hours = decimal.RequireFromString("0.001") },
		"bad role":       func(in *AddEntryInput) { in.Role = "pilot" },
		"no employee":    func(in *AddEntryInput) { in.EmployeeID = uuid.Nil },
		"no date":        func(in *AddEntryInput) { in.WorkDate = time.Time{} },
		"unknown person": func(in *AddEntryInput) { in.EmployeeID = uuid.New() },
	} {
		t.Run(name, func(t *testing.T) {
			in := base
			mutate(&in)
			_, err := svc.AddEntry(ctx, order.ID, in)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}

	entry, err := svc.AddEntry(ctx, order.ID, base)
	require.NoError(t, err)
	assert.True(t, entry.Hours.Equal(decimal.NewFromFloat(2.5)))
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), entry.WorkDate)

	_, err = svc.AddEntry(ctx, uuid.New(), base)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestEntriesFrozenOnTerminalOrder(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	order := openOrder(t, conn)
	emp := dbtest.Employee(t, conn)

	entry, err := svc.AddEntry(ctx, order.ID, AddEntryInput{
		EmployeeID: emp.ID, WorkDate: day(3), Hours: decimal.NewFromInt(4), Role: enums.PersonnelRoleTechnician,
	})
	require.NoError(t, err)

	hours := decimal.NewFromInt(5)
	edited, err := svc.EditEntry(ctx, entry.ID, EditEntryInput{Hours: &hours})
	require.NoError(t, err)
	assert.True(t, edited.Hours.Equal(hours))

	zero := decimal.Zero
	_, err = svc.EditEntry(ctx, entry.ID, EditEntryInput{Hours: &zero})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	require.NoError(t, conn.Model(&models.WorkOrder{}).Where("id = ?", order.ID).Update("state", enums.WorkOrderStateClosed).Error)

	_, err = svc.AddEntry(ctx, order.ID, AddEntryInput{
		EmployeeID: emp.ID, WorkDate: day(4), Hours: decimal.NewFromInt(1), Role: enums.PersonnelRoleTechnician,
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOrderNotOpen))
	_, err = svc.EditEntry(ctx, entry.ID, EditEntryInput{Hours: &hours})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOrderNotOpen))
	err = svc.RemoveEntry(ctx, entry.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOrderNotOpen))

	rows, err := svc.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRemoveEntry(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	order := openOrder(t, conn)
	emp := dbtest.Employee(t, conn)
	entry, err := svc.AddEntry(ctx, order.ID, AddEntryInput{
		EmployeeID: emp.ID, WorkDate: day(3), Hours: decimal.NewFromInt(1), Role: enums.PersonnelRoleCertifier,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveEntry(ctx, entry.ID))
	assert.True(t, pkgerrors.HasCode(svc.RemoveEntry(ctx, entry.ID), pkgerrors.CodeNotFound))
}

func TestListByEmployeeDateRange(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	order := openOrder(t, conn)
	emp := dbtest.Employee(t, conn)
	other := dbtest.Employee(t, conn)

	for _, d := range []int{1, 5, 10} {
		_, err := svc.AddEntry(ctx, order.ID, AddEntryInput{
			EmployeeID: emp.ID, WorkDate: day(d), Hours: decimal.NewFromInt(1), Role: enums.PersonnelRoleTechnician,
		})
		require.NoError(t, err)
	}
	_, err := svc.AddEntry(ctx, order.ID, AddEntryInput{
		EmployeeID: other.ID, WorkDate: day(5), Hours: decimal.NewFromInt(1), Role: enums.PersonnelRoleTechnician,
	})
	require.NoError(t, err)

	from, to := day(5), day(10)
	rows, err := svc.ListByEmployee(ctx, emp.ID, &from, &to)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 5, rows[0].WorkDate.Day())
	assert.Equal(t, 10, rows[1].WorkDate.Day())

	all, err := svc.ListByEmployee(ctx, emp.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.ListByEmployee(ctx, emp.ID, &to, &from)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestSummarizeByOrderFlagsUnassigned(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	order := openOrder(t, conn)
	tech := dbtest.Employee(t, conn)
	visitor := dbtest.Employee(t, conn)
	require.NoError(t, conn.Create(&models.PersonnelAssignment{OrderID: order.ID, EmployeeID: tech.ID, Role: enums.PersonnelRoleTechnician}).Error)

	add := func(emp uuid.UUID, role enums.PersonnelRole, hours string) {
		_, err := svc.AddEntry(ctx, order.ID, AddEntryInput{
			EmployeeID: emp, WorkDate: day(2), Hours: decimal.RequireFromString(hours), Role: role,
		})
		require.NoError(t, err)
	}
	add(tech.ID, enums.PersonnelRoleTechnician, "2.5")
	add(tech.ID, enums.PersonnelRoleTechnician, "1.25")
	add(tech.ID, enums.PersonnelRoleCertifier, "0.5")
	add(visitor.ID, enums.PersonnelRoleTechnician, "3")

	summary, err := svc.SummarizeByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, summary.TotalHours.Equal(decimal.RequireFromString("7.25")), "total %s", summary.TotalHours)
	require.Len(t, summary.Lines, 3)
	assert.Equal(t, 2, summary.Unassigned)

	for _, line := range summary.Lines {
		if line.EmployeeID == tech.ID && line.Role == enums.PersonnelRoleTechnician {
			assert.True(t, line.Assigned)
			assert.Equal(t, 2, line.Entries)
			assert.True(t, line.Hours.Equal(decimal.RequireFromString("3.75")))
		} else {
			assert.False(t, line.Assigned)
		}
	}

	_, err = svc.SummarizeByOrder(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestSummarizeByOrderReadsWithoutLocks(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	ac := dbtest.Aircraft(t, conn)
	order := dbtest.WorkOrder(t, conn, enums.SubjectKindAircraft, ac.ID, enums.WorkOrderStateClosed)

	var locked []string
	require.NoError(t, conn.Callback().Query().Before("gorm:query").Register("test:capture_locks", func(db *gorm.DB) {
		if c, ok := db.Statement.Clauses["FOR"]; ok {
			if _, ok := c.Expression.(clause.Locking); ok {
				locked = append(locked, db.Statement.Table)
			}
		}
	}))

	summary, err := svc.SummarizeByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, summary.TotalHours.IsZero())
	assert.Empty(t, locked)
}
