package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/repositories"
	"github.com/dstroumpakos/escape-app-sub001/internal/testhelpers"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRunDailyCompletion_UsesRoomTimeZone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	utcRoom := env.store.CreateRoom(t, env.operatorID, func(r *models.Room) { r.TimeZone = "UTC" })

	// 22:30 UTC on 2030-03-04 is already 2030-03-05 in Athens.
	now := time.Date(2030, 3, 4, 22, 30, 0, 0, time.UTC)

	seed := func(roomID uuid.UUID, date string, status models.BookingStatus) *models.Booking {
		b := testhelpers.NewBooking(models.SlotKey{RoomID: roomID, Date: date, Time: "18:00"})
		b.Status = status
		env.store.SeedBooking(b)
		return b
	}
	athensPast := seed(env.room.ID, "2030-03-04", models.BookingStatusUpcoming)
	athensToday := seed(env.room.ID, "2030-03-05", models.BookingStatusUpcoming)
	utcToday := seed(utcRoom.ID, "2030-03-04", models.BookingStatusUpcoming)
	utcPast := seed(utcRoom.ID, "2030-03-03", models.BookingStatusUpcoming)
	cancelled := seed(utcRoom.ID, "2030-03-01", models.BookingStatusCancelled)

	svc := NewBookingMaintenanceService(env.store.Rooms(), env.store.Bookings())
	svc.now = func() time.Time { return now }

	n, err := svc.RunDailyCompletion(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	require.Equal(t, models.BookingStatusCompleted, env.store.Booking(athensPast.ID).Status)
	require.Equal(t, models.BookingStatusUpcoming, env.store.Booking(athensToday.ID).Status)
	require.Equal(t, models.BookingStatusUpcoming, env.store.Booking(utcToday.ID).Status)
	require.Equal(t, models.BookingStatusCompleted, env.store.Booking(utcPast.ID).Status)
	require.Equal(t, models.BookingStatusCancelled, env.store.Booking(cancelled.ID).Status)
}

type flakyRooms struct {
	repositories.RoomRepository
	failures int
	err      error
}

func (f *flakyRooms) ListAll(ctx context.Context) ([]*models.Room, error) {
	if f.failures > 0 {
		f.failures--
		return nil, f.err
	}
	return f.RoomRepository.ListAll(ctx)
}

func TestRunDailyCompletion_RetriesTransientError(t *testing.T) {
	env := newTestEnv(t)
	rooms := &flakyRooms{RoomRepository: env.store.Rooms(), failures: 1, err: io.EOF}
	svc := NewBookingMaintenanceService(rooms, env.store.Bookings())
	svc.retryDelay = time.Millisecond

	_, err := svc.RunDailyCompletion(context.Background())
	require.NoError(t, err)
	require.Zero(t, rooms.failures)
}

func TestRunDailyCompletion_PermanentError(t *testing.T) {
	env := newTestEnv(t)
	boom := errors.New("permission denied")
	rooms := &flakyRooms{RoomRepository: env.store.Rooms(), failures: 5, err: boom}
	svc := NewBookingMaintenanceService(rooms, env.store.Bookings())
	svc.retryDelay = time.Millisecond

	_, err := svc.RunDailyCompletion(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, 4, rooms.failures, "no retry for non-transient errors")
}
