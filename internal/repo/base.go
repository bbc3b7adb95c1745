package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Lock strengths understood by Postgres. SQLite ignores locking clauses.
const (
	LockNone     = ""
	LockKeyShare = "KEY SHARE"
	LockShare    = "SHARE"
	LockUpdate   = "UPDATE"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// WithTx rebinds the base to a transaction handle.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Locked returns DB(ctx) with a row lock of the given strength applied to
// the next SELECT.
func (b Base) Locked(ctx context.Context, strength string) *gorm.DB {
	q := b.DB(ctx)
	if strength == LockNone {
		return q
	}
	return q.Clauses(clause.Locking{Strength: strength})
}
