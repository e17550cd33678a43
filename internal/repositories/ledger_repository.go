package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

const (
	constraintActiveSlot  = "bookings_active_slot_key"
	constraintBookingCode = "bookings_booking_code_key"
)

// ErrBookingCodeTaken is returned by InsertBooking when the generated code
// already exists. The transaction stays usable so the caller can retry.
var ErrBookingCodeTaken = errors.New("booking_code_taken")

// LedgerTx is the set of writes allowed inside one ledger transaction.
// Every read-check-write on a (room, date) partition must call LockPartition
// first.
type LedgerTx interface {
	LockPartition(ctx context.Context, roomID uuid.UUID, date string) error

	// GetBooking reads without a row lock so the caller can learn which
	// partition to lock before taking GetBookingForUpdate.
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetBookingForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListBookingsForDate(ctx context.Context, roomID uuid.UUID, date string) ([]*models.Booking, error)
	InsertBooking(ctx context.Context, b *models.Booking) error
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) error
	UpdateBookingSlot(ctx context.Context, id uuid.UUID, date, slotTime string) error

	// MarkSlotWatchesNotified flips every pending watch on the key and
	// returns the ids it flipped.
	MarkSlotWatchesNotified(ctx context.Context, key models.SlotKey, at time.Time) ([]uuid.UUID, error)
	InsertOutboxEvent(ctx context.Context, e *models.OutboxEvent) error
}

type BookingLedgerRepository interface {
	// RunInTx commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

type ledgerRepo struct {
	db DB
}

func NewBookingLedgerRepository(db DB) BookingLedgerRepository {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) RunInTx(ctx context.Context, fn func(tx LedgerTx) error) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()
	return fn(&ledgerTx{tx: tx})
}

type ledgerTx struct {
	tx pgx.Tx
}

// PartitionLockKey is the advisory lock key for a (room, date) partition.
func PartitionLockKey(roomID uuid.UUID, date string) string {
	return roomID.String() + "|" + date
}

func (l *ledgerTx) LockPartition(ctx context.Context, roomID uuid.UUID, date string) error {
	_, err := l.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, PartitionLockKey(roomID, date))
	if err != nil {
		return fmt.Errorf("lock partition: %w", err)
	}
	return nil
}

func (l *ledgerTx) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return scanBooking(l.tx.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1", id))
}

func (l *ledgerTx) GetBookingForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return scanBooking(l.tx.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1 FOR UPDATE", id))
}

func (l *ledgerTx) ListBookingsForDate(ctx context.Context, roomID uuid.UUID, date string) ([]*models.Booking, error) {
	// The partition advisory lock already serializes writers.
	return listBookingsForDate(ctx, l.tx, roomID, date)
}

func (l *ledgerTx) InsertBooking(ctx context.Context, b *models.Booking) error {
	// Savepoint so a code collision does not abort the outer transaction.
	sp, err := l.tx.Begin(ctx)
	if err != nil {
		return err
	}
	_, err = sp.Exec(ctx, `
        INSERT INTO bookings (
            id, booking_code, room_id, booking_date, booking_time,
            players, total_price, status, payment_status, payment_terms, deposit_amount,
            source, owner_user_id, operator_id, guest_name, guest_contact,
            created_at, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$17)
    `,
		b.ID,
		b.BookingCode,
		b.RoomID,
		b.Date,
		b.Time,
		b.Players,
		b.TotalPrice,
		string(b.Status),
		string(b.PaymentStatus),
		string(b.PaymentTerms),
		b.DepositAmount,
		string(b.Source),
		b.OwnerUserID,
		b.OperatorID,
		b.GuestName,
		b.GuestContact,
		b.CreatedAt,
	)
	if err != nil {
		_ = sp.Rollback(ctx)
		switch uniqueViolation(err) {
		case constraintActiveSlot:
			return utils.ErrSlotConflict
		case constraintBookingCode:
			return ErrBookingCodeTaken
		}
		return err
	}
	return sp.Commit(ctx)
}

func (l *ledgerTx) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) error {
	tag, err := l.tx.Exec(ctx,
		`UPDATE bookings SET status=$1, updated_at=NOW() WHERE id=$2`,
		string(status), id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNoRowsUpdated
	}
	return nil
}

func (l *ledgerTx) UpdateBookingSlot(ctx context.Context, id uuid.UUID, date, slotTime string) error {
	sp, err := l.tx.Begin(ctx)
	if err != nil {
		return err
	}
	tag, err := sp.Exec(ctx,
		`UPDATE bookings SET booking_date=$1, booking_time=$2, updated_at=NOW() WHERE id=$3`,
		date, slotTime, id,
	)
	if err != nil {
		_ = sp.Rollback(ctx)
		if uniqueViolation(err) == constraintActiveSlot {
			return utils.ErrSlotConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		_ = sp.Rollback(ctx)
		return utils.ErrNoRowsUpdated
	}
	return sp.Commit(ctx)
}

func (l *ledgerTx) MarkSlotWatchesNotified(ctx context.Context, key models.SlotKey, at time.Time) ([]uuid.UUID, error) {
	rows, err := l.tx.Query(ctx, `
        UPDATE slot_watches
        SET notified=TRUE, notified_at=$4
        WHERE room_id=$1 AND watch_date=$2 AND watch_time=$3 AND notified=FALSE
        RETURNING id
    `, key.RoomID, key.Date, key.Time, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (l *ledgerTx) InsertOutboxEvent(ctx context.Context, e *models.OutboxEvent) error {
	_, err := l.tx.Exec(ctx, `
        INSERT INTO outbox_events (id, event_type, booking_id, payload, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, e.ID, e.Type, e.BookingID, []byte(e.Payload), e.CreatedAt)
	return err
}
