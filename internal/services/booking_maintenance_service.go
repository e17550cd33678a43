package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/metrics"
	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/repositories"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/jackc/pgconn"
)

// ────────────────────────────────────────────────────────────
// Retry policy: one retry on transient network errors (EOF,
// closed connection) with a small back-off.
// ────────────────────────────────────────────────────────────
const maintenanceRetryDelay = 3 * time.Second

// BookingMaintenanceService runs the scheduled housekeeping jobs.
type BookingMaintenanceService struct {
	rooms      repositories.RoomRepository
	bookings   repositories.BookingRepository
	retryDelay time.Duration
	now        func() time.Time
}

func NewBookingMaintenanceService(rooms repositories.RoomRepository, bookings repositories.BookingRepository) *BookingMaintenanceService {
	return &BookingMaintenanceService{
		rooms:      rooms,
		bookings:   bookings,
		retryDelay: maintenanceRetryDelay,
		now:        time.Now,
	}
}

func (s *BookingMaintenanceService) runWithRetry(ctx context.Context, op func(context.Context) error) error {
	if err := op(ctx); err != nil {
		if errors.Is(err, io.EOF) || pgconn.SafeToRetry(err) ||
			strings.Contains(err.Error(), "connection was closed") {
			utils.Logger.WithError(err).Warn("booking maintenance hit transient DB error; retrying once")
			time.Sleep(s.retryDelay)
			return op(ctx)
		}
		return err
	}
	return nil
}

// RunDailyCompletion marks upcoming bookings dated before "today" in each
// room's own time zone as completed.
func (s *BookingMaintenanceService) RunDailyCompletion(ctx context.Context) (int64, error) {
	var rooms []*models.Room
	err := s.runWithRetry(ctx, func(ctx context.Context) error {
		var err error
		rooms, err = s.rooms.ListAll(ctx)
		return err
	})
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to list rooms for completion sweep")
		return 0, err
	}

	now := s.now()
	var total int64
	for _, room := range rooms {
		today := TodayIn(room.TimeZone, now)
		var n int64
		err := s.runWithRetry(ctx, func(ctx context.Context) error {
			var err error
			n, err = s.bookings.CompleteUpcomingBefore(ctx, room.ID, today)
			return err
		})
		if err != nil {
			utils.Logger.WithError(err).WithField("room_id", room.ID).Error("Completion sweep failed for room")
			continue
		}
		metrics.AddBookingTransitions(string(models.BookingStatusCompleted), n)
		total += n
	}

	utils.Logger.Infof("Daily completion sweep completed %d bookings", total)
	return total, nil
}
