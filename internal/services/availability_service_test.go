package services

import (
	"context"
	"testing"

	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/testhelpers"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) occupy(date, slotTime string, status models.BookingStatus) *models.Booking {
	b := testhelpers.NewBooking(e.key(date, slotTime))
	b.Status = status
	e.store.SeedBooking(b)
	return b
}

func TestGetAvailability_DefaultTemplateSorted(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.availability.GetAvailability(context.Background(), env.room.ID, testhelpers.Tuesday)
	require.NoError(t, err)
	require.True(t, resp.Available)
	require.False(t, resp.Closed)
	require.Equal(t, []string{"18:00", "20:00", "22:00"}, times(resp.Slots))
	for _, s := range resp.Slots {
		require.True(t, s.Available)
		require.False(t, s.Overflow)
	}
	require.Equal(t, 30.0, resp.Slots[2].Price)
	require.Equal(t, env.room.ID, resp.Room.ID)
	require.Equal(t, env.room.MaxPlayers, resp.Room.MaxPlayers)
}

func TestGetAvailability_OccupancyFollowsActiveBookings(t *testing.T) {
	env := newTestEnv(t)
	env.occupy(testhelpers.Tuesday, "18:00", models.BookingStatusUpcoming)
	env.occupy(testhelpers.Tuesday, "20:00", models.BookingStatusCompleted)
	env.occupy(testhelpers.Tuesday, "22:00", models.BookingStatusCancelled)

	resp, err := env.availability.GetAvailability(context.Background(), env.room.ID, testhelpers.Tuesday)
	require.NoError(t, err)
	require.True(t, resp.Available)
	require.False(t, resp.Slots[0].Available)
	require.False(t, resp.Slots[1].Available)
	require.True(t, resp.Slots[2].Available, "cancelled booking frees the slot")
}

func TestGetAvailability_OverflowOnlyWhenFullOnListedDay(t *testing.T) {
	env := newTestEnv(t)
	for _, d := range []string{testhelpers.Friday, testhelpers.Tuesday} {
		for _, tm := range []string{"18:00", "20:00", "22:00"} {
			env.occupy(d, tm, models.BookingStatusUpcoming)
		}
	}

	fri, err := env.availability.GetAvailability(context.Background(), env.room.ID, testhelpers.Friday)
	require.NoError(t, err)
	require.True(t, fri.Available)
	require.Equal(t, []string{"18:00", "20:00", "22:00", "00:30"}, times(fri.Slots))
	last := fri.Slots[3]
	require.True(t, last.Overflow)
	require.True(t, last.Available)
	require.Equal(t, 40.0, last.Price)

	tue, err := env.availability.GetAvailability(context.Background(), env.room.ID, testhelpers.Tuesday)
	require.NoError(t, err)
	require.False(t, tue.Available)
	require.Len(t, tue.Slots, 3, "Tuesday is not an overflow day")
}

func TestGetAvailability_FullRoomWithoutOverflowSlot(t *testing.T) {
	env := newTestEnv(t)
	room := env.store.CreateRoom(t, env.operatorID, func(r *models.Room) {
		r.OverflowSlot = nil
	})
	for _, tm := range []string{"18:00", "20:00", "22:00"} {
		env.store.SeedBooking(testhelpers.NewBooking(models.SlotKey{RoomID: room.ID, Date: testhelpers.Friday, Time: tm}))
	}

	resp, err := env.availability.GetAvailability(context.Background(), room.ID, testhelpers.Friday)
	require.NoError(t, err)
	require.False(t, resp.Available)
	require.False(t, resp.Closed)
	require.Equal(t, []string{"18:00", "20:00", "22:00"}, times(resp.Slots))
	for _, s := range resp.Slots {
		require.False(t, s.Available)
		require.False(t, s.Overflow)
	}
}

func TestGetAvailability_NoOverflowWhileRegularSlotFree(t *testing.T) {
	env := newTestEnv(t)
	env.occupy(testhelpers.Friday, "18:00", models.BookingStatusUpcoming)

	resp, err := env.availability.GetAvailability(context.Background(), env.room.ID, testhelpers.Friday)
	require.NoError(t, err)
	require.Len(t, resp.Slots, 3)
}

func TestGetAvailability_ClosedDay(t *testing.T) {
	env := newTestEnv(t)
	room := env.store.CreateRoom(t, env.operatorID, func(r *models.Room) {
		r.OperatingDays = []int16{1} // Monday only
	})

	resp, err := env.availability.GetAvailability(context.Background(), room.ID, testhelpers.Tuesday)
	require.NoError(t, err)
	require.True(t, resp.Closed)
	require.False(t, resp.Available)
	require.Empty(t, resp.Slots)
	require.NotNil(t, resp.Slots)
}

func TestGetAvailability_EmptyTemplate(t *testing.T) {
	env := newTestEnv(t)
	room := env.store.CreateRoom(t, env.operatorID, func(r *models.Room) {
		r.DefaultSlots = nil
	})

	resp, err := env.availability.GetAvailability(context.Background(), room.ID, testhelpers.Tuesday)
	require.NoError(t, err)
	require.False(t, resp.Closed)
	require.False(t, resp.Available)
	require.Empty(t, resp.Slots)
}

func TestGetAvailability_OverrideReplacesTemplate(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Overrides().Upsert(context.Background(), &models.SlotOverride{
		RoomID: env.room.ID,
		Date:   testhelpers.Tuesday,
		Slots: []models.OverrideSlot{
			{Time: "23:30", Price: 50, Available: true},
			{Time: "15:00", Price: 20, Available: false},
		},
	}))
	env.occupy(testhelpers.Tuesday, "23:30", models.BookingStatusUpcoming)

	resp, err := env.availability.GetAvailability(context.Background(), env.room.ID, testhelpers.Tuesday)
	require.NoError(t, err)
	require.Equal(t, []string{"15:00", "23:30"}, times(resp.Slots))
	require.False(t, resp.Slots[0].Available, "stored availability is kept")
	require.False(t, resp.Slots[1].Available, "booked override slot")
	require.False(t, resp.Available)
}

func TestGetAvailability_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.availability.GetAvailability(context.Background(), uuid.New(), testhelpers.Tuesday)
	require.ErrorIs(t, err, utils.ErrRoomNotFound)

	_, err = env.availability.GetAvailability(context.Background(), env.room.ID, "05/03/2030")
	var vErr *utils.ValidationError
	require.ErrorAs(t, err, &vErr)
}
