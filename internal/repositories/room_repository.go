package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type RoomRepository interface {
	Create(ctx context.Context, r *models.Room) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error)
	ListByOperatorID(ctx context.Context, operatorID uuid.UUID) ([]*models.Room, error)
	ListAll(ctx context.Context) ([]*models.Room, error)

	UpdateIfVersion(ctx context.Context, r *models.Room, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Room) error) error
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type roomRepo struct {
	db DB
}

func NewRoomRepository(db DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) Create(ctx context.Context, room *models.Room) error {
	groups, overflow, slots, err := marshalRoomJSON(room)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
        INSERT INTO rooms (
            id, operator_id, title, active, min_players, max_players,
            price, price_per_group, operating_days, default_slots, overflow_slot, time_zone,
            created_at, updated_at, row_version
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, NOW(), NOW(), 1)
    `,
		room.ID,
		room.OperatorID,
		room.Title,
		room.Active,
		room.MinPlayers,
		room.MaxPlayers,
		room.Price,
		groups,
		room.OperatingDays,
		slots,
		overflow,
		room.TimeZone,
	)
	if err != nil {
		return err
	}
	room.RowVersion = 1
	return nil
}

func (r *roomRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return scanRoom(r.db.QueryRow(ctx, baseSelectRoom()+" WHERE id=$1", id))
}

func (r *roomRepo) ListByOperatorID(ctx context.Context, operatorID uuid.UUID) ([]*models.Room, error) {
	rows, err := r.db.Query(ctx, baseSelectRoom()+" WHERE operator_id=$1 ORDER BY created_at", operatorID)
	if err != nil {
		return nil, err
	}
	return collectRooms(rows)
}

func (r *roomRepo) ListAll(ctx context.Context) ([]*models.Room, error) {
	rows, err := r.db.Query(ctx, baseSelectRoom()+" ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	return collectRooms(rows)
}

func (r *roomRepo) UpdateIfVersion(ctx context.Context, room *models.Room, expected int64) (pgconn.CommandTag, error) {
	groups, overflow, slots, err := marshalRoomJSON(room)
	if err != nil {
		return nil, err
	}
	return r.db.Exec(ctx, `
        UPDATE rooms SET
            title=$1, active=$2, min_players=$3, max_players=$4, price=$5,
            price_per_group=$6, operating_days=$7, default_slots=$8, overflow_slot=$9,
            time_zone=$10, updated_at=NOW(), row_version=row_version+1
        WHERE id=$11 AND row_version=$12
    `,
		room.Title, room.Active, room.MinPlayers, room.MaxPlayers, room.Price,
		groups, room.OperatingDays, slots, overflow,
		room.TimeZone, room.ID, expected,
	)
}

func (r *roomRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Room) error) error {
	return VersionedUpdater[*models.Room]{
		Table:  "rooms",
		Load:   r.GetByID,
		Update: r.UpdateIfVersion,
	}.Apply(ctx, id, mutate)
}

func collectRooms(rows pgx.Rows) ([]*models.Room, error) {
	defer rows.Close()

	var out []*models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func marshalRoomJSON(room *models.Room) (groups, overflow, slots []byte, err error) {
	if groups, err = json.Marshal(nonNil(room.PricePerGroup)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal price_per_group: %w", err)
	}
	if slots, err = json.Marshal(nonNil(room.DefaultSlots)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal default_slots: %w", err)
	}
	if room.OverflowSlot != nil {
		if overflow, err = json.Marshal(room.OverflowSlot); err != nil {
			return nil, nil, nil, fmt.Errorf("marshal overflow_slot: %w", err)
		}
	}
	return groups, overflow, slots, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func baseSelectRoom() string {
	return `
        SELECT
            id, operator_id, title, active, min_players, max_players,
            price, price_per_group, operating_days, default_slots, overflow_slot, time_zone,
            created_at, updated_at, row_version
        FROM rooms
    `
}

func scanRoom(row pgx.Row) (*models.Room, error) {
	var (
		room            models.Room
		groupsB, slotsB []byte
		overflowB       []byte
	)
	err := row.Scan(
		&room.ID,
		&room.OperatorID,
		&room.Title,
		&room.Active,
		&room.MinPlayers,
		&room.MaxPlayers,
		&room.Price,
		&groupsB,
		&room.OperatingDays,
		&slotsB,
		&overflowB,
		&room.TimeZone,
		&room.CreatedAt,
		&room.UpdatedAt,
		&room.RowVersion,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	_ = json.Unmarshal(groupsB, &room.PricePerGroup)
	_ = json.Unmarshal(slotsB, &room.DefaultSlots)
	if len(overflowB) > 0 {
		var o models.OverflowSlot
		if json.Unmarshal(overflowB, &o) == nil {
			room.OverflowSlot = &o
		}
	}
	return &room, nil
}
