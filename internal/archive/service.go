// Package archive soft-archives registry entities after consulting the
// archive guard in the same transaction.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hangarops/hangar-backend/internal/archiveguard"
	"github.com/hangarops/hangar-backend/internal/registry"
	"github.com/hangarops/hangar-backend/internal/repo"
	"github.com/hangarops/hangar-backend/pkg/enums"
	pkgerrors "github.com/hangarops/hangar-backend/pkg/errors"
	"github.com/hangarops/hangar-backend/pkg/logger"
)

type txRunner interface {
	WithTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Result reports the entity state after an archive command.
type Result struct {
	Kind       enums.EntityKind `json:"kind"`
	ID         uuid.UUID        `json:"id"`
	ArchivedAt *time.Time       `json:"archived_at"`
}

// Service exposes archive and unarchive commands for guarded entities.
type Service interface {
	Archive(ctx context.Context, kind enums.EntityKind, id uuid.UUID) (*Result, error)
	Unarchive(ctx context.Context, kind enums.EntityKind, id uuid.UUID) (*Result, error)
}

type service struct {
	tx    txRunner
	repo  registry.Repository
	guard archiveguard.Guard
	logg  *logger.Logger
	now   func() time.Time
}

// NewService wires the archive commands. logg may be nil.
func NewService(tx txRunner, repo registry.Repository, guard archiveguard.Guard, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("registry repository required")
	}
	if guard == nil {
		return nil, fmt.Errorf("archive guard required")
	}
	return &service{
		tx:    tx,
		repo:  repo,
		guard: guard,
		logg:  logg,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Archive locks the entity row, then checks the guard. A work order that
// wants to reference the entity reads it FOR SHARE, so the two serialize.
func (s *service) Archive(ctx context.Context, kind enums.EntityKind, id uuid.UUID) (*Result, error) {
	if err := validate(kind, id); err != nil {
		return nil, err
	}
	result := &Result{Kind: kind, ID: id}

	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		state, err := lockEntity(ctx, r, kind, id)
		if err != nil {
			return err
		}
		if state.Archived() {
			result.ArchivedAt = state.ArchivedAt
			return nil
		}

		referenced, err := s.guard.IsReferencedByOpenOrder(ctx, tx, kind, id)
		if err != nil {
			return err
		}
		if referenced {
			refs, err := s.guard.OpenOrdersReferencing(ctx, tx, kind, id, 10)
			if err != nil {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeGuardBlocked, fmt.Sprintf("%s is referenced by an open work order", kind)).
				WithDetails(map[string]any{"kind": kind, "id": id, "open_orders": refs})
		}

		at := s.now()
		if err := r.SetArchivedAt(ctx, kind, id, &at); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive entity")
		}
		result.ArchivedAt = &at
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"entity_kind": kind, "entity_id": id})
		s.logg.Info(logCtx, "entity archived")
	}
	return result, nil
}

// Unarchive clears archived_at. Restoring an entity cannot violate any
// reference, so the guard is not consulted.
func (s *service) Unarchive(ctx context.Context, kind enums.EntityKind, id uuid.UUID) (*Result, error) {
	if err := validate(kind, id); err != nil {
		return nil, err
	}
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		state, err := lockEntity(ctx, r, kind, id)
		if err != nil {
			return err
		}
		if !state.Archived() {
			return nil
		}
		if err := r.SetArchivedAt(ctx, kind, id, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unarchive entity")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{Kind: kind, ID: id}, nil
}

func lockEntity(ctx context.Context, r registry.Repository, kind enums.EntityKind, id uuid.UUID) (*registry.EntityState, error) {
	rows, err := r.EntityStates(ctx, kind, []uuid.UUID{id}, repo.LockUpdate)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(kind, id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock entity")
	}
	if len(rows) == 0 {
		return nil, notFound(kind, id)
	}
	return &rows[0], nil
}

func notFound(kind enums.EntityKind, id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("%s not found", kind)).
		WithDetails(map[string]any{"kind": kind, "id": id})
}

func validate(kind enums.EntityKind, id uuid.UUID) error {
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown entity kind %q", kind))
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "entity id required")
	}
	return nil
}
