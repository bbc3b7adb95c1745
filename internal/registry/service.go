package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/internal/repo"
	"github.com/hangarops/hangar-backend/pkg/db/models"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
	"github.com/hangarops/hangar-backend/pkg/types"
)

// Service answers the questions the work-order core asks of the registry:
// does a subject exist, are referenced resources usable, and what did the
// subject look like at closure.
type Service interface {
	ValidateSubject(ctx context.Context, tx *gorm.DB, subject types.SubjectRef) error
	Snapshot(ctx context.Context, tx *gorm.DB, subject types.SubjectRef, at time.Time) (*types.ClosureSnapshot, error)
	RequireActive(ctx context.Context, tx *gorm.DB, kind enums.EntityKind, ids []uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds the registry reader.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("registry repository required")
	}
	return &service{repo: repo}, nil
}

// ValidateSubject checks the subject and its owners exist and are not
// archived. Subject and owner rows are read FOR SHARE so a concurrent archive
// of either waits for the caller to commit.
func (s *service) ValidateSubject(ctx context.Context, tx *gorm.DB, subject types.SubjectRef) error {
	if err := subject.Validate(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInvalidSubject, err, err.Error())
	}
	r := s.repo.WithTx(tx)

	var (
		archivedAt *time.Time
		ownerIDs   []uuid.UUID
		err        error
	)
	switch subject.Kind {
	case enums.SubjectKindAircraft:
		var ac *models.Aircraft
		ac, err = r.FindAircraft(ctx, subject.ID, repo.LockShare)
		if ac != nil {
			archivedAt = ac.ArchivedAt
			ownerIDs, err = r.AircraftOwnerIDs(ctx, ac.ID)
		}
	case enums.SubjectKindComponent:
		var comp *models.ExternalComponent
		comp, err = r.FindComponent(ctx, subject.ID, repo.LockShare)
		if comp != nil {
			archivedAt = comp.ArchivedAt
			if comp.OwnerID != nil {
				ownerIDs = []uuid.UUID{*comp.OwnerID}
			}
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeInvalidSubject, fmt.Sprintf("%s not found", subject.Kind)).
				WithDetails(map[string]any{"kind": subject.Kind, "id": subject.ID})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subject")
	}
	if archivedAt != nil {
		return pkgerrors.New(pkgerrors.CodeInvalidSubject, fmt.Sprintf("%s is archived", subject.Kind)).
			WithDetails(map[string]any{"kind": subject.Kind, "id": subject.ID})
	}
	return s.validateOwners(ctx, r, subject, ownerIDs)
}

func (s *service) validateOwners(ctx context.Context, r Repository, subject types.SubjectRef, ownerIDs []uuid.UUID) error {
	if len(ownerIDs) == 0 {
		return nil
	}
	rows, err := r.EntityStates(ctx, enums.EntityKindOwner, ownerIDs, repo.LockShare)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subject owners")
	}
	var archived []string
	for _, row := range rows {
		if row.Archived() {
			archived = append(archived, row.ID.String())
		}
	}
	if len(archived) == 0 {
		return nil
	}
	sort.Strings(archived)
	return pkgerrors.New(pkgerrors.CodeInvalidSubject, fmt.Sprintf("%s has an archived owner", subject.Kind)).
		WithDetails(map[string]any{"kind": subject.Kind, "id": subject.ID, "archived_owners": archived})
}

// Snapshot copies the subject and its current owners verbatim.
func (s *service) Snapshot(ctx context.Context, tx *gorm.DB, subject types.SubjectRef, at time.Time) (*types.ClosureSnapshot, error) {
	r := s.repo.WithTx(tx)
	snap := &types.ClosureSnapshot{
		Subject:    subject,
		Owners:     []types.OwnerSnapshot{},
		CapturedAt: at.UTC(),
	}

	switch subject.Kind {
	case enums.SubjectKindAircraft:
		ac, err := r.FindAircraft(ctx, subject.ID, repo.LockNone)
		if err != nil {
			return nil, wrapLoad(err, "aircraft")
		}
		snap.Aircraft = &types.AircraftSnapshot{
			Registration: ac.Registration,
			Manufacturer: ac.Manufacturer,
			Model:        ac.Model,
			SerialNumber: ac.SerialNumber,
			BaseAirport:  ac.BaseAirport,
		}
		owners, err := r.ListAircraftOwners(ctx, ac.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load aircraft owners")
		}
		for _, o := range owners {
			snap.Owners = append(snap.Owners, ownerSnapshot(o))
		}
	case enums.SubjectKindComponent:
		comp, err := r.FindComponent(ctx, subject.ID, repo.LockNone)
		if err != nil {
			return nil, wrapLoad(err, "component")
		}
		snap.Component = &types.ComponentSnapshot{
			PartNumber:   comp.PartNumber,
			SerialNumber: comp.SerialNumber,
			Description:  comp.Description,
			Manufacturer: comp.Manufacturer,
		}
		if comp.OwnerID != nil {
			owner, err := r.FindOwner(ctx, *comp.OwnerID)
			if err != nil {
				return nil, wrapLoad(err, "component owner")
			}
			snap.Owners = append(snap.Owners, ownerSnapshot(*owner))
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInvalidSubject, fmt.Sprintf("invalid subject kind %q", subject.Kind))
	}
	return snap, nil
}

// RequireActive rejects ids that do not exist or are archived. Rows are read
// FOR KEY SHARE: archiving them blocks until the caller commits, while the
// stock quantity UPDATE later in the same transaction does not conflict with
// another caller's lock.
func (s *service) RequireActive(ctx context.Context, tx *gorm.DB, kind enums.EntityKind, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	rows, err := s.repo.WithTx(tx).EntityStates(ctx, kind, ids, repo.LockKeyShare)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("load %s rows", kind))
	}
	found := make(map[uuid.UUID]EntityState, len(rows))
	for _, row := range rows {
		found[row.ID] = row
	}

	var missing, archived []string
	for _, id := range ids {
		row, ok := found[id]
		switch {
		case !ok:
			missing = append(missing, id.String())
		case row.Archived():
			archived = append(archived, id.String())
		}
	}
	if len(missing) == 0 && len(archived) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(archived)
	details := map[string]any{"kind": kind}
	if len(missing) > 0 {
		details["missing"] = missing
	}
	if len(archived) > 0 {
		details["archived"] = archived
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s references are missing or archived", kind)).
		WithDetails(details)
}

func ownerSnapshot(o models.Owner) types.OwnerSnapshot {
	return types.OwnerSnapshot{
		ID:      o.ID,
		Name:    o.Name,
		Email:   o.Email,
		Phone:   o.Phone,
		Address: o.Address,
	}
}

func wrapLoad(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}
