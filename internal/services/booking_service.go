package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/constants"
	"github.com/dstroumpakos/escape-app-sub001/internal/dtos"
	"github.com/dstroumpakos/escape-app-sub001/internal/metrics"
	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/repositories"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Actor identifies who asks for a ledger mutation. Exactly one of UserID and
// OperatorID is set, unless Admin is true.
type Actor struct {
	UserID     string
	OperatorID *uuid.UUID
	Admin      bool
}

func UserActor(userID string) Actor { return Actor{UserID: userID} }

func OperatorActor(operatorID uuid.UUID) Actor { return Actor{OperatorID: &operatorID} }

// SlotFreedNotifier marks watchers of a key that no longer has an active
// occupant. It runs inside the ledger transaction.
type SlotFreedNotifier interface {
	MarkFreedInTx(ctx context.Context, tx repositories.LedgerTx, key models.SlotKey, bookingID uuid.UUID) ([]uuid.UUID, error)
}

// BookingService is the booking ledger. Every read-check-write on a
// (room, date) partition runs in one transaction holding that partition's
// lock.
type BookingService struct {
	rooms    repositories.RoomRepository
	bookings repositories.BookingRepository
	ledger   repositories.BookingLedgerRepository
	notifier SlotFreedNotifier
	now      func() time.Time
}

func NewBookingService(
	rooms repositories.RoomRepository,
	bookings repositories.BookingRepository,
	ledger repositories.BookingLedgerRepository,
	notifier SlotFreedNotifier,
) *BookingService {
	return &BookingService{
		rooms:    rooms,
		bookings: bookings,
		ledger:   ledger,
		notifier: notifier,
		now:      time.Now,
	}
}

// ----------------------------------------------------------------
// Create (self-service)
// ----------------------------------------------------------------

func (s *BookingService) CreateBooking(ctx context.Context, userID string, req dtos.CreateBookingRequest) (*dtos.BookingCreatedResponse, error) {
	if err := validateSlotInput(req.Date, req.Time); err != nil {
		return nil, err
	}
	if req.Players <= 0 {
		return nil, utils.NewValidationError("players", "must be positive")
	}
	terms, err := ResolvePaymentTerms(req.PaymentTerms)
	if err != nil {
		return nil, err
	}

	room, err := s.activeRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	total := utils.RoundMoney(req.Total)
	status, deposit := PaymentFor(terms, total)
	b := &models.Booking{
		ID:            uuid.New(),
		RoomID:        room.ID,
		Date:          req.Date,
		Time:          req.Time,
		Players:       req.Players,
		TotalPrice:    total,
		Status:        models.BookingStatusUpcoming,
		PaymentStatus: status,
		PaymentTerms:  terms,
		DepositAmount: deposit,
		Source:        models.BookingSourceApp,
		OwnerUserID:   &userID,
	}
	if err := s.insert(ctx, b, constants.BookingCodePrefixApp); err != nil {
		return nil, err
	}
	return &dtos.BookingCreatedResponse{ID: b.ID, BookingCode: b.BookingCode}, nil
}

// ----------------------------------------------------------------
// Create (operator-entered)
// ----------------------------------------------------------------

// CreateOperatorBooking records an "unlocked" booking taken by the operator
// on behalf of a customer.
func (s *BookingService) CreateOperatorBooking(ctx context.Context, operatorID uuid.UUID, req dtos.OperatorBookingRequest) (*dtos.BookingCreatedResponse, error) {
	terms, err := ResolvePaymentTerms(req.PaymentTerms)
	if err != nil {
		return nil, err
	}
	b, err := s.operatorBooking(ctx, operatorID, req)
	if err != nil {
		return nil, err
	}
	b.Source = models.BookingSourceApp
	b.PaymentTerms = terms
	b.PaymentStatus, b.DepositAmount = PaymentFor(terms, b.TotalPrice)

	if err := s.insert(ctx, b, constants.BookingCodePrefixApp); err != nil {
		return nil, err
	}
	return &dtos.BookingCreatedResponse{ID: b.ID, BookingCode: b.BookingCode}, nil
}

// CreateExternalBlock occupies a slot sold through another channel.
// Payment does not apply to blocks.
func (s *BookingService) CreateExternalBlock(ctx context.Context, operatorID uuid.UUID, req dtos.OperatorBookingRequest) (*dtos.BookingCreatedResponse, error) {
	b, err := s.operatorBooking(ctx, operatorID, req)
	if err != nil {
		return nil, err
	}
	b.Source = models.BookingSourceExternal
	b.PaymentTerms = models.PaymentTermsFull
	b.PaymentStatus = models.PaymentStatusNotApplicable

	if err := s.insert(ctx, b, constants.BookingCodePrefixExternal); err != nil {
		return nil, err
	}
	return &dtos.BookingCreatedResponse{ID: b.ID, BookingCode: b.BookingCode}, nil
}

func (s *BookingService) operatorBooking(ctx context.Context, operatorID uuid.UUID, req dtos.OperatorBookingRequest) (*models.Booking, error) {
	if err := validateSlotInput(req.Date, req.Time); err != nil {
		return nil, err
	}
	room, err := s.room(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if room.OperatorID != operatorID {
		return nil, utils.ErrAccessDenied
	}

	return &models.Booking{
		ID:           uuid.New(),
		RoomID:       room.ID,
		Date:         req.Date,
		Time:         req.Time,
		Players:      utils.Val(req.Players),
		TotalPrice:   utils.RoundMoney(utils.Val(req.Total)),
		Status:       models.BookingStatusUpcoming,
		OperatorID:   &operatorID,
		GuestName:    req.GuestName,
		GuestContact: req.GuestContact,
	}, nil
}

// ----------------------------------------------------------------
// Create (guest / widget)
// ----------------------------------------------------------------

func (s *BookingService) CreateGuestBooking(ctx context.Context, req dtos.GuestBookingRequest) (*dtos.GuestBookingConfirmation, error) {
	name := strings.TrimSpace(req.Name)
	contact := strings.TrimSpace(req.Contact)
	if name == "" {
		return nil, utils.NewValidationError("name", "is required")
	}
	if contact == "" {
		return nil, utils.NewValidationError("contact", "is required")
	}
	if err := validateSlotInput(req.Date, req.Time); err != nil {
		return nil, err
	}
	terms, err := ResolvePaymentTerms(req.PaymentTerms)
	if err != nil {
		return nil, err
	}

	room, err := s.activeRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if req.Players <= 0 || req.Players < room.MinPlayers || (room.MaxPlayers > 0 && req.Players > room.MaxPlayers) {
		return nil, utils.NewValidationError(
			"players",
			fmt.Sprintf("must be between %d and %d", room.MinPlayers, room.MaxPlayers),
		)
	}

	total := ComputeTotal(room, req.Players)
	status, deposit := PaymentFor(terms, total)
	b := &models.Booking{
		ID:            uuid.New(),
		RoomID:        room.ID,
		Date:          req.Date,
		Time:          req.Time,
		Players:       req.Players,
		TotalPrice:    total,
		Status:        models.BookingStatusUpcoming,
		PaymentStatus: status,
		PaymentTerms:  terms,
		DepositAmount: deposit,
		Source:        models.BookingSourceWidgetGuest,
		OperatorID:    &room.OperatorID,
		GuestName:     &name,
		GuestContact:  &contact,
	}
	if err := s.insert(ctx, b, constants.BookingCodePrefixWidget); err != nil {
		return nil, err
	}

	return &dtos.GuestBookingConfirmation{
		ID:            b.ID,
		BookingCode:   b.BookingCode,
		RoomTitle:     room.Title,
		Date:          b.Date,
		Time:          b.Time,
		Players:       b.Players,
		Total:         b.TotalPrice,
		PaymentTerms:  b.PaymentTerms,
		PaymentStatus: b.PaymentStatus,
		DepositAmount: b.DepositAmount,
	}, nil
}

// insert runs lock → conflict check → write for a new booking, generating
// a fresh code on collision.
func (s *BookingService) insert(ctx context.Context, b *models.Booking, codePrefix string) error {
	err := s.ledger.RunInTx(ctx, func(tx repositories.LedgerTx) error {
		if err := tx.LockPartition(ctx, b.RoomID, b.Date); err != nil {
			return err
		}
		existing, err := tx.ListBookingsForDate(ctx, b.RoomID, b.Date)
		if err != nil {
			return err
		}
		if HasConflict(existing, b.Time, nil) {
			return utils.ErrSlotConflict
		}

		now := s.now().UTC()
		b.CreatedAt, b.UpdatedAt = now, now
		for attempt := 1; ; attempt++ {
			b.BookingCode = utils.NewBookingCode(codePrefix, now)
			err = tx.InsertBooking(ctx, b)
			if !errors.Is(err, repositories.ErrBookingCodeTaken) || attempt >= constants.BookingCodeAttempts {
				return err
			}
		}
	})
	if err != nil {
		if errors.Is(err, utils.ErrSlotConflict) {
			metrics.IncSlotConflict("create")
			utils.Logger.WithFields(logrus.Fields{
				"room_id": b.RoomID, "date": b.Date, "slot_time": b.Time, "source": b.Source,
			}).Warn("Slot already booked")
		}
		return err
	}

	metrics.IncBookingCreated(string(b.Source))
	utils.Logger.WithFields(logrus.Fields{
		"booking_id": b.ID, "booking_code": b.BookingCode, "room_id": b.RoomID,
		"date": b.Date, "slot_time": b.Time, "source": b.Source,
	}).Info("Booking created")
	return nil
}

// ----------------------------------------------------------------
// Cancel
// ----------------------------------------------------------------

// CancelBooking moves an upcoming booking to cancelled. Cancelling an
// already-cancelled booking succeeds without side effects. When no other
// active booking remains on the slot, its pending watches are marked in the
// same transaction.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) error {
	var (
		cancelled *models.Booking
		notified  []uuid.UUID
	)
	err := s.ledger.RunInTx(ctx, func(tx repositories.LedgerTx) error {
		b, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, b, actor); err != nil {
			return err
		}

		switch b.Status {
		case models.BookingStatusCancelled:
			return nil
		case models.BookingStatusCompleted:
			return utils.ErrWrongStatus
		}

		if err := tx.UpdateBookingStatus(ctx, b.ID, models.BookingStatusCancelled); err != nil {
			return err
		}
		cancelled = b

		notified, err = s.notifyIfFreed(ctx, tx, b.SlotKey(), b.ID)
		return err
	})
	if err != nil {
		return err
	}
	if cancelled == nil {
		return nil
	}

	metrics.IncBookingTransition(string(models.BookingStatusCancelled))
	utils.Logger.WithFields(logrus.Fields{
		"booking_id": cancelled.ID, "room_id": cancelled.RoomID,
		"date": cancelled.Date, "slot_time": cancelled.Time, "watches_notified": len(notified),
	}).Info("Booking cancelled")
	return nil
}

// ----------------------------------------------------------------
// Complete
// ----------------------------------------------------------------

// CompleteBooking moves an upcoming booking to completed. Completing twice
// is a no-op; completing a cancelled booking fails with ErrWrongStatus.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID uuid.UUID, actor Actor) error {
	changed := false
	err := s.ledger.RunInTx(ctx, func(tx repositories.LedgerTx) error {
		b, err := s.lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, b, actor); err != nil {
			return err
		}

		switch b.Status {
		case models.BookingStatusCompleted:
			return nil
		case models.BookingStatusCancelled:
			return utils.ErrWrongStatus
		}
		changed = true
		return tx.UpdateBookingStatus(ctx, b.ID, models.BookingStatusCompleted)
	})
	if err == nil && changed {
		metrics.IncBookingTransition(string(models.BookingStatusCompleted))
		utils.Logger.WithField("booking_id", bookingID).Info("Booking completed")
	}
	return err
}

// ----------------------------------------------------------------
// Reschedule
// ----------------------------------------------------------------

// RescheduleBooking moves an upcoming booking to (newDate, newTime). The
// booking never conflicts with its own prior occupancy. If the old slot is
// left without an active occupant, its watchers are marked.
func (s *BookingService) RescheduleBooking(ctx context.Context, bookingID uuid.UUID, actor Actor, newDate, newTime string) error {
	if err := validateSlotInput(newDate, newTime); err != nil {
		return err
	}

	var from models.SlotKey
	moved := false
	err := s.ledger.RunInTx(ctx, func(tx repositories.LedgerTx) error {
		b, err := s.lockBooking(ctx, tx, bookingID, newDate)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, b, actor); err != nil {
			return err
		}
		if b.Status != models.BookingStatusUpcoming {
			return utils.ErrWrongStatus
		}
		if b.Date == newDate && b.Time == newTime {
			return nil
		}

		target, err := tx.ListBookingsForDate(ctx, b.RoomID, newDate)
		if err != nil {
			return err
		}
		if HasConflict(target, newTime, &b.ID) {
			return utils.ErrSlotConflict
		}
		if err := tx.UpdateBookingSlot(ctx, b.ID, newDate, newTime); err != nil {
			return err
		}

		from = b.SlotKey()
		moved = true
		_, err = s.notifyIfFreed(ctx, tx, from, b.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, utils.ErrSlotConflict) {
			metrics.IncSlotConflict("reschedule")
		}
		return err
	}
	if moved {
		utils.Logger.WithFields(logrus.Fields{
			"booking_id": bookingID, "from_date": from.Date, "from_time": from.Time,
			"to_date": newDate, "to_time": newTime,
		}).Info("Booking rescheduled")
	}
	return nil
}

// ----------------------------------------------------------------
// Reads
// ----------------------------------------------------------------

func (s *BookingService) ListMyBookings(ctx context.Context, userID string) ([]*models.Booking, error) {
	out, err := s.bookings.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*models.Booking{}
	}
	return out, nil
}

func (s *BookingService) ListRoomBookings(ctx context.Context, actor Actor, roomID uuid.UUID, date string) ([]*models.Booking, error) {
	if _, err := ParseCivilDate(date); err != nil {
		return nil, err
	}
	room, err := s.room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && (actor.OperatorID == nil || *actor.OperatorID != room.OperatorID) {
		return nil, utils.ErrAccessDenied
	}
	out, err := s.bookings.ListByRoomAndDate(ctx, roomID, date)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*models.Booking{}
	}
	return out, nil
}

// ----------------------------------------------------------------
// helpers
// ----------------------------------------------------------------

// lockBooking takes the partition lock of the booking (plus any extra dates
// of the same room, in sorted order) and then re-reads the row under a row
// lock. A concurrent reschedule may move the row before the lock is granted,
// so the partition is re-checked.
func (s *BookingService) lockBooking(ctx context.Context, tx repositories.LedgerTx, id uuid.UUID, extraDates ...string) (*models.Booking, error) {
	locked := map[string]bool{}
	for attempt := 0; attempt < 3; attempt++ {
		b, err := tx.GetBooking(ctx, id)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, utils.ErrBookingNotFound
		}

		dates := append([]string{b.Date}, extraDates...)
		sort.Strings(dates)
		for _, d := range dates {
			if locked[d] {
				continue
			}
			if err := tx.LockPartition(ctx, b.RoomID, d); err != nil {
				return nil, err
			}
			locked[d] = true
		}

		current, err := tx.GetBookingForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, utils.ErrBookingNotFound
		}
		if current.Date == b.Date {
			return current, nil
		}
	}
	return nil, fmt.Errorf("booking %s kept moving while locking", id)
}

// notifyIfFreed marks watchers when no active booking other than
// releasedID still holds key. The partition lock must be held.
func (s *BookingService) notifyIfFreed(ctx context.Context, tx repositories.LedgerTx, key models.SlotKey, releasedID uuid.UUID) ([]uuid.UUID, error) {
	if s.notifier == nil {
		return nil, nil
	}
	remaining, err := tx.ListBookingsForDate(ctx, key.RoomID, key.Date)
	if err != nil {
		return nil, err
	}
	if HasConflict(remaining, key.Time, &releasedID) {
		return nil, nil
	}
	return s.notifier.MarkFreedInTx(ctx, tx, key, releasedID)
}

// authorize applies the ownership guard. Users may only act on their own
// bookings; operators on bookings attributed to them, or else on bookings of
// rooms they own.
func (s *BookingService) authorize(ctx context.Context, b *models.Booking, actor Actor) error {
	if actor.Admin {
		return nil
	}
	if actor.OperatorID != nil {
		if b.OperatorID != nil {
			if *b.OperatorID == *actor.OperatorID {
				return nil
			}
			return utils.ErrAccessDenied
		}
		room, err := s.room(ctx, b.RoomID)
		if err != nil {
			return err
		}
		if room.OperatorID != *actor.OperatorID {
			return utils.ErrAccessDenied
		}
		return nil
	}
	if actor.UserID != "" && b.OwnerUserID != nil && *b.OwnerUserID == actor.UserID {
		return nil
	}
	return utils.ErrAccessDenied
}

func (s *BookingService) room(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, utils.ErrRoomNotFound
	}
	return room, nil
}

func (s *BookingService) activeRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	room, err := s.room(ctx, id)
	if err != nil {
		return nil, err
	}
	if !room.Active {
		return nil, utils.ErrRoomInactive
	}
	return room, nil
}
