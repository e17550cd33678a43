package repositories

import (
	"context"
	"fmt"

	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/sirupsen/logrus"
)

// versionedUpdateAttempts bounds how many times a contended row is re-read.
const versionedUpdateAttempts = 3

// VersionedRow is a row whose writes are guarded by a row_version column.
// Pointer types satisfy comparable, so a nil load means "missing".
type VersionedRow interface {
	comparable
	GetRowVersion() int64
	SetRowVersion(int64)
}

// VersionedUpdater couples the load and compare-and-swap write of one table.
// Update must only touch the row when its stored version equals expected.
type VersionedUpdater[T VersionedRow] struct {
	Table  string
	Load   func(ctx context.Context, id uuid.UUID) (T, error)
	Update func(ctx context.Context, row T, expected int64) (pgconn.CommandTag, error)
}

// Apply loads the row, runs mutate and writes it back. A lost race re-reads
// and re-runs mutate on the fresh copy. A missing row yields pgx.ErrNoRows and
// an error from mutate aborts without writing.
func (u VersionedUpdater[T]) Apply(ctx context.Context, id uuid.UUID, mutate func(T) error) error {
	var zero T
	for attempt := 1; attempt <= versionedUpdateAttempts; attempt++ {
		row, err := u.Load(ctx, id)
		if err != nil {
			return err
		}
		if row == zero {
			return pgx.ErrNoRows
		}

		seen := row.GetRowVersion()
		if err := mutate(row); err != nil {
			return err
		}

		tag, err := u.Update(ctx, row, seen)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			row.SetRowVersion(seen + 1)
			return nil
		}

		utils.Logger.WithFields(logrus.Fields{
			"table":   u.Table,
			"id":      id,
			"version": seen,
			"attempt": attempt,
		}).Debug("Row version moved underneath update, retrying")
	}
	return fmt.Errorf("%s %s still contended after %d attempts: %w",
		u.Table, id, versionedUpdateAttempts, utils.ErrRowVersionConflict)
}
