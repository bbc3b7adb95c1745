package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/internal/repo"
	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
)

// EntityState is the archive-relevant slice of any registry row.
type EntityState struct {
	ID         uuid.UUID  `gorm:"column:id"`
	ArchivedAt *time.Time `gorm:"column:archived_at"`
}

// Archived reports whether the row is soft-archived.
func (e EntityState) Archived() bool {
	return e.ArchivedAt != nil
}

// Repository reads subject, owner and resource rows. It never mutates them
// except for the archived_at column.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAircraft(ctx context.Context, id uuid.UUID, lock string) (*models.Aircraft, error)
	FindComponent(ctx context.Context, id uuid.UUID, lock string) (*models.ExternalComponent, error)
	FindOwner(ctx context.Context, id uuid.UUID) (*models.Owner, error)
	ListAircraftOwners(ctx context.Context, aircraftID uuid.UUID) ([]models.Owner, error)
	AircraftOwnerIDs(ctx context.Context, aircraftID uuid.UUID) ([]uuid.UUID, error)
	EntityStates(ctx context.Context, kind enums.EntityKind, ids []uuid.UUID, lock string) ([]EntityState, error)
	SetArchivedAt(ctx context.Context, kind enums.EntityKind, id uuid.UUID, at *time.Time) error
}

type repository struct {
	base repo.Base
}

// NewRepository returns a registry repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

// TableFor maps a guarded entity kind to its table.
func TableFor(kind enums.EntityKind) (string, error) {
	switch kind {
	case enums.EntityKindEmployee:
		return "employees", nil
	case enums.EntityKindTool:
		return "tools", nil
	case enums.EntityKindStockItem:
		return "stock_items", nil
	case enums.EntityKindAircraft:
		return "aircraft", nil
	case enums.EntityKindOwner:
		return "owners", nil
	case enums.EntityKindComponent:
		return "external_components", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

func (r *repository) FindAircraft(ctx context.Context, id uuid.UUID, lock string) (*models.Aircraft, error) {
	var ac models.Aircraft
	if err := r.base.Locked(ctx, lock).Where("id = ?", id).First(&ac).Error; err != nil {
		return nil, err
	}
	return &ac, nil
}

func (r *repository) FindComponent(ctx context.Context, id uuid.UUID, lock string) (*models.ExternalComponent, error) {
	var comp models.ExternalComponent
	if err := r.base.Locked(ctx, lock).Where("id = ?", id).First(&comp).Error; err != nil {
		return nil, err
	}
	return &comp, nil
}

func (r *repository) FindOwner(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	var owner models.Owner
	if err := r.base.DB(ctx).Where("id = ?", id).First(&owner).Error; err != nil {
		return nil, err
	}
	return &owner, nil
}

func (r *repository) ListAircraftOwners(ctx context.Context, aircraftID uuid.UUID) ([]models.Owner, error) {
	var owners []models.Owner
	err := r.base.DB(ctx).
		Joins("JOIN aircraft_owners ao ON ao.owner_id = owners.id").
		Where("ao.aircraft_id = ?", aircraftID).
		Order("owners.name ASC").
		Order("owners.id ASC").
		Find(&owners).Error
	if err != nil {
		return nil, err
	}
	return owners, nil
}

func (r *repository) AircraftOwnerIDs(ctx context.Context, aircraftID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.base.DB(ctx).
		Table("aircraft_owners").
		Where("aircraft_id = ?", aircraftID).
		Order("owner_id ASC").
		Pluck("owner_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) EntityStates(ctx context.Context, kind enums.EntityKind, ids []uuid.UUID, lock string) ([]EntityState, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	table, err := TableFor(kind)
	if err != nil {
		return nil, err
	}
	var rows []EntityState
	err = r.base.Locked(ctx, lock).
		Table(table).
		Select("id", "archived_at").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SetArchivedAt(ctx context.Context, kind enums.EntityKind, id uuid.UUID, at *time.Time) error {
	table, err := TableFor(kind)
	if err != nil {
		return err
	}
	res := r.base.DB(ctx).
		Table(table).
		Where("id = ?", id).
		Updates(map[string]any{"archived_at": at, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
