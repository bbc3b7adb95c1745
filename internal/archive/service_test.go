package archive

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/internal/archiveguard"
	"github.com/hangarops/hangar-backend/internal/dbtest"
	"github.com/hangarops/hangar-backend/internal/registry"
	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
	"github.com/hangarops/hangar-backend/pkg/logger"
)

func newTestService(t *testing.T) (Service, *gorm.DB, *bytes.Buffer) {
	t.Helper()
	conn := dbtest.Open(t)
	guard, err := archiveguard.New(conn, nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	svc, err := NewService(dbtest.Client(conn), registry.NewRepository(conn), guard, logg)
	require.NoError(t, err)
	return svc, conn, &buf
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestArchiveToolBlockedWhileOrderOpen(t *testing.T) {
	svc, conn, buf := newTestService(t)
	ctx := context.Background()
	ac := dbtest.Aircraft(t, conn)
	order := dbtest.WorkOrder(t, conn, enums.SubjectKindAircraft, ac.ID, enums.WorkOrderStateOpen)
	tool := dbtest.Tool(t, conn)
	require.NoError(t, conn.Create(&models.ToolAssignment{OrderID: order.ID, ToolID: tool.ID}).Error)

	_, err := svc.Archive(ctx, enums.EntityKindTool, tool.ID)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeGuardBlocked), "got %v", err)
	details := pkgerrors.As(err).Details().(map[string]any)
	refs := details["open_orders"].([]archiveguard.OrderRef)
	require.Len(t, refs, 1)
	assert.Equal(t, order.ID, refs[0].ID)

	var stored models.Tool
	require.NoError(t, conn.First(&stored, "id = ?", tool.ID).Error)
	assert.Nil(t, stored.ArchivedAt)

	require.NoError(t, conn.Model(&models.WorkOrder{}).Where("id = ?", order.ID).Update("state", enums.WorkOrderStateClosed).Error)
	res, err := svc.Archive(ctx, enums.EntityKindTool, tool.ID)
	require.NoError(t, err)
	require.NotNil(t, res.ArchivedAt)
	assert.Contains(t, buf.String(), "entity archived")

	require.NoError(t, conn.First(&stored, "id = ?", tool.ID).Error)
	assert.NotNil(t, stored.ArchivedAt)
}

func TestArchiveIsIdempotentAndUnarchiveRestores(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()
	owner := dbtest.Owner(t, conn)

	first, err := svc.Archive(ctx, enums.EntityKindOwner, owner.ID)
	require.NoError(t, err)
	second, err := svc.Archive(ctx, enums.EntityKindOwner, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, second.ArchivedAt)
	assert.True(t, first.ArchivedAt.Equal(*second.ArchivedAt))

	_, err = svc.Unarchive(ctx, enums.EntityKindOwner, owner.ID)
	require.NoError(t, err)
	var stored models.Owner
	require.NoError(t, conn.First(&stored, "id = ?", owner.ID).Error)
	assert.Nil(t, stored.ArchivedAt)
}

func TestArchiveErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Archive(ctx, enums.EntityKindStockItem, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Unarchive(ctx, enums.EntityKindEmployee, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Archive(ctx, "hangar", uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Archive(ctx, enums.EntityKindTool, uuid.Nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestArchiveSubjectBlockedByOpenOrder(t *testing.T) {
	svc, conn, _ := newTestService(t)
	owner := dbtest.Owner(t, conn)
	comp := dbtest.Component(t, conn, &owner)
	dbtest.WorkOrder(t, conn, enums.SubjectKindComponent, comp.ID, enums.WorkOrderStateOpen)

	_, err := svc.Archive(context.Background(), enums.EntityKindComponent, comp.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeGuardBlocked))
	_, err = svc.Archive(context.Background(), enums.EntityKindOwner, owner.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeGuardBlocked))
}
