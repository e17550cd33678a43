package repositories

import (
	"context"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

type SlotWatchRepository interface {
	// Create inserts the watch. It returns false when an identical watch
	// (same key and subscriber) already exists.
	Create(ctx context.Context, w *models.SlotWatch) (bool, error)
	FindByUser(ctx context.Context, key models.SlotKey, userID string) (*models.SlotWatch, error)
	FindByGuest(ctx context.Context, key models.SlotKey, contact string) (*models.SlotWatch, error)
	ListByKey(ctx context.Context, key models.SlotKey) ([]*models.SlotWatch, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Rearm clears the notified mark of a fired watch so the next freeing
	// of its slot alerts the subscriber again. It reports whether a fired
	// watch was found.
	Rearm(ctx context.Context, id uuid.UUID) (bool, error)

	// DeleteStale removes watches notified before notifiedBefore and all
	// watches dated before `today`.
	DeleteStale(ctx context.Context, notifiedBefore time.Time, today string) (int64, error)
}

type slotWatchRepo struct {
	db DB
}

func NewSlotWatchRepository(db DB) SlotWatchRepository {
	return &slotWatchRepo{db: db}
}

func (r *slotWatchRepo) Create(ctx context.Context, w *models.SlotWatch) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        INSERT INTO slot_watches (
            id, room_id, watch_date, watch_time, user_id, guest_contact,
            notified, notified_at, created_at
        ) VALUES ($1,$2,$3,$4,$5,$6,FALSE,NULL,$7)
        ON CONFLICT DO NOTHING
    `, w.ID, w.RoomID, w.Date, w.Time, w.UserID, w.GuestContact, w.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *slotWatchRepo) FindByUser(ctx context.Context, key models.SlotKey, userID string) (*models.SlotWatch, error) {
	return scanSlotWatch(r.db.QueryRow(ctx,
		baseSelectSlotWatch()+" WHERE room_id=$1 AND watch_date=$2 AND watch_time=$3 AND user_id=$4",
		key.RoomID, key.Date, key.Time, userID,
	))
}

func (r *slotWatchRepo) FindByGuest(ctx context.Context, key models.SlotKey, contact string) (*models.SlotWatch, error) {
	return scanSlotWatch(r.db.QueryRow(ctx,
		baseSelectSlotWatch()+" WHERE room_id=$1 AND watch_date=$2 AND watch_time=$3 AND guest_contact=$4",
		key.RoomID, key.Date, key.Time, contact,
	))
}

func (r *slotWatchRepo) ListByKey(ctx context.Context, key models.SlotKey) ([]*models.SlotWatch, error) {
	rows, err := r.db.Query(ctx,
		baseSelectSlotWatch()+" WHERE room_id=$1 AND watch_date=$2 AND watch_time=$3 ORDER BY created_at",
		key.RoomID, key.Date, key.Time,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SlotWatch
	for rows.Next() {
		w, err := scanSlotWatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *slotWatchRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM slot_watches WHERE id=$1`, id)
	return err
}

func (r *slotWatchRepo) Rearm(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE slot_watches SET notified=FALSE, notified_at=NULL
        WHERE id=$1 AND notified
    `, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *slotWatchRepo) DeleteStale(ctx context.Context, notifiedBefore time.Time, today string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
        DELETE FROM slot_watches
        WHERE (notified AND notified_at < $1) OR watch_date < $2
    `, notifiedBefore, today)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func baseSelectSlotWatch() string {
	return `
        SELECT
            id, room_id, watch_date, watch_time, user_id, guest_contact,
            notified, notified_at, created_at
        FROM slot_watches
    `
}

func scanSlotWatch(row pgx.Row) (*models.SlotWatch, error) {
	var w models.SlotWatch
	err := row.Scan(
		&w.ID,
		&w.RoomID,
		&w.Date,
		&w.Time,
		&w.UserID,
		&w.GuestContact,
		&w.Notified,
		&w.NotifiedAt,
		&w.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}
