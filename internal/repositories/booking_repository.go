package repositories

import (
	"context"

	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

// BookingRepository serves reads outside the ledger transaction.
// All writes that touch occupancy go through BookingLedgerRepository.
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListByRoomAndDate(ctx context.Context, roomID uuid.UUID, date string) ([]*models.Booking, error)
	ListByOwner(ctx context.Context, userID string) ([]*models.Booking, error)

	// CompleteUpcomingBefore moves upcoming bookings dated before `date` to
	// completed. Completion does not change occupancy.
	CompleteUpcomingBefore(ctx context.Context, roomID uuid.UUID, date string) (int64, error)
}

type bookingRepo struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, baseSelectBooking()+" WHERE id=$1", id))
}

func (r *bookingRepo) ListByRoomAndDate(ctx context.Context, roomID uuid.UUID, date string) ([]*models.Booking, error) {
	return listBookingsForDate(ctx, r.db, roomID, date)
}

func (r *bookingRepo) ListByOwner(ctx context.Context, userID string) ([]*models.Booking, error) {
	rows, err := r.db.Query(ctx,
		baseSelectBooking()+" WHERE owner_user_id=$1 ORDER BY booking_date DESC, created_at DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *bookingRepo) CompleteUpcomingBefore(ctx context.Context, roomID uuid.UUID, date string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE bookings
        SET status='completed', updated_at=NOW()
        WHERE room_id=$1 AND status='upcoming' AND booking_date < $2
    `, roomID, date)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func listBookingsForDate(ctx context.Context, db DB, roomID uuid.UUID, date string) ([]*models.Booking, error) {
	rows, err := db.Query(ctx,
		baseSelectBooking()+" WHERE room_id=$1 AND booking_date=$2 ORDER BY created_at",
		roomID, date,
	)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]*models.Booking, error) {
	defer rows.Close()

	var out []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func baseSelectBooking() string {
	return `
        SELECT
            id, booking_code, room_id, booking_date, booking_time,
            players, total_price, status, payment_status, payment_terms, deposit_amount,
            source, owner_user_id, operator_id, guest_name, guest_contact,
            created_at, updated_at
        FROM bookings
    `
}

func scanBooking(row pgx.Row) (*models.Booking, error) {
	var (
		b                             models.Booking
		status, payStatus, terms, src string
	)
	err := row.Scan(
		&b.ID,
		&b.BookingCode,
		&b.RoomID,
		&b.Date,
		&b.Time,
		&b.Players,
		&b.TotalPrice,
		&status,
		&payStatus,
		&terms,
		&b.DepositAmount,
		&src,
		&b.OwnerUserID,
		&b.OperatorID,
		&b.GuestName,
		&b.GuestContact,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	b.Status = models.BookingStatus(status)
	b.PaymentStatus = models.PaymentStatus(payStatus)
	b.PaymentTerms = models.PaymentTerms(terms)
	b.Source = models.BookingSource(src)
	return &b, nil
}
