package services

import (
	"testing"

	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/testhelpers"
	"github.com/google/uuid"
)

type testEnv struct {
	store        *testhelpers.MemoryStore
	operatorID   uuid.UUID
	room         *models.Room
	watches      *SlotWatchService
	bookings     *BookingService
	availability *AvailabilityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := testhelpers.NewMemoryStore()
	opID := uuid.New()
	room := store.CreateRoom(t, opID)

	watches := NewSlotWatchService(store.SlotWatches(), store.Rooms(), store.Ledger(), 0)
	return &testEnv{
		store:        store,
		operatorID:   opID,
		room:         room,
		watches:      watches,
		bookings:     NewBookingService(store.Rooms(), store.Bookings(), store.Ledger(), watches),
		availability: NewAvailabilityService(store.Rooms(), store.Overrides(), store.Bookings()),
	}
}

func (e *testEnv) key(date, slotTime string) models.SlotKey {
	return models.SlotKey{RoomID: e.room.ID, Date: date, Time: slotTime}
}
