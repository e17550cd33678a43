package repositories

import (
	"context"
	"encoding/json"

	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

type SlotOverrideRepository interface {
	Get(ctx context.Context, roomID uuid.UUID, date string) (*models.SlotOverride, error)
	Upsert(ctx context.Context, o *models.SlotOverride) error
	Delete(ctx context.Context, roomID uuid.UUID, date string) error
}

type slotOverrideRepo struct {
	db DB
}

func NewSlotOverrideRepository(db DB) SlotOverrideRepository {
	return &slotOverrideRepo{db: db}
}

func (r *slotOverrideRepo) Get(ctx context.Context, roomID uuid.UUID, date string) (*models.SlotOverride, error) {
	var (
		o      models.SlotOverride
		slotsB []byte
	)
	err := r.db.QueryRow(ctx, `
        SELECT room_id, date, slots, updated_at
        FROM slot_overrides
        WHERE room_id=$1 AND date=$2
    `, roomID, date).Scan(&o.RoomID, &o.Date, &slotsB, &o.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	_ = json.Unmarshal(slotsB, &o.Slots)
	return &o, nil
}

func (r *slotOverrideRepo) Upsert(ctx context.Context, o *models.SlotOverride) error {
	slots, err := json.Marshal(nonNil(o.Slots))
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
        INSERT INTO slot_overrides (room_id, date, slots, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (room_id, date) DO UPDATE
        SET slots = EXCLUDED.slots, updated_at = NOW()
    `, o.RoomID, o.Date, slots)
	return err
}

func (r *slotOverrideRepo) Delete(ctx context.Context, roomID uuid.UUID, date string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM slot_overrides WHERE room_id=$1 AND date=$2`, roomID, date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
