package repositories

import (
	"context"

	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/google/uuid"
)

// OutboxRepository reads and acknowledges events written by the ledger.
type OutboxRepository interface {
	ListUnpublished(ctx context.Context, limit int) ([]*models.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
}

type outboxRepo struct {
	db DB
}

func NewOutboxRepository(db DB) OutboxRepository {
	return &outboxRepo{db: db}
}

func (r *outboxRepo) ListUnpublished(ctx context.Context, limit int) ([]*models.OutboxEvent, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, event_type, booking_id, payload, created_at, published_at
        FROM outbox_events
        WHERE published_at IS NULL
        ORDER BY created_at
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.OutboxEvent
	for rows.Next() {
		var (
			e       models.OutboxEvent
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.BookingID, &payload, &e.CreatedAt, &e.PublishedAt); err != nil {
			return nil, err
		}
		e.Payload = payload
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *outboxRepo) MarkPublished(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE outbox_events SET published_at=NOW() WHERE id=$1 AND published_at IS NULL`, id)
	return err
}
