// Package repo implements the persistence layer for view events, backed by
// GORM. This file provides the view ledger insert.
//
// Error semantics:
//   - InsertView never reports a duplicate (guide_slug, client_id) pair as an
//     error: the insert uses ON CONFLICT DO NOTHING and the caller learns the
//     outcome from the returned inserted flag.
//   - Every other DB error is returned raw; the services layer decides how
//     to degrade.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sockheadrps/pycourse/internal/domain"
)

// InsertView stores a view event unless one already exists for the same
// (guide_slug, client_id) pair. inserted is false for duplicates.
//
// Concurrent inserts for one pair are settled by the unique index: exactly
// one of them affects a row.
func InsertView(ctx context.Context, db *gorm.DB, ev *domain.ViewEvent) (inserted bool, err error) {
	if ev.ViewedAt.IsZero() {
		ev.ViewedAt = time.Now().UTC()
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guide_slug"}, {Name: "client_id"}},
			DoNothing: true,
		}).
		Create(ev)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
