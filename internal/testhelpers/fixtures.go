package testhelpers

import (
	"context"
	"testing"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewRoom returns an active room open every day with three regular slots
// and a late overflow slot on Fridays and Saturdays.
func NewRoom(operatorID uuid.UUID) *models.Room {
	return &models.Room{
		ID:            uuid.New(),
		OperatorID:    operatorID,
		Title:         "Room " + uuid.NewString()[:8],
		Active:        true,
		MinPlayers:    2,
		MaxPlayers:    6,
		Price:         35.99,
		PricePerGroup: []models.GroupPrice{{Players: 2, Price: 60}},
		OperatingDays: []int16{0, 1, 2, 3, 4, 5, 6},
		DefaultSlots: []models.SlotTemplate{
			{Time: "22:00", Price: 30},
			{Time: "18:00", Price: 25},
			{Time: "20:00", Price: 25},
		},
		OverflowSlot: &models.OverflowSlot{Time: "00:30", Price: 40, Days: []int16{5, 6}},
		TimeZone:     "Europe/Athens",
	}
}

// CreateRoom stores a fresh room owned by operatorID.
func (s *MemoryStore) CreateRoom(t *testing.T, operatorID uuid.UUID, mutate ...func(*models.Room)) *models.Room {
	t.Helper()
	r := NewRoom(operatorID)
	for _, m := range mutate {
		m(r)
	}
	require.NoError(t, s.Rooms().Create(context.Background(), r))
	return r
}

// NewBooking returns an upcoming app booking for key.
func NewBooking(key models.SlotKey) *models.Booking {
	now := time.Now().UTC()
	return &models.Booking{
		ID:            uuid.New(),
		BookingCode:   "UNL-" + uuid.NewString()[:8],
		RoomID:        key.RoomID,
		Date:          key.Date,
		Time:          key.Time,
		Players:       2,
		TotalPrice:    60,
		Status:        models.BookingStatusUpcoming,
		PaymentStatus: models.PaymentStatusPaid,
		PaymentTerms:  models.PaymentTermsFull,
		Source:        models.BookingSourceApp,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// AddWatch stores a pending watch on key for userID.
func (s *MemoryStore) AddWatch(t *testing.T, key models.SlotKey, userID string) *models.SlotWatch {
	t.Helper()
	w := &models.SlotWatch{
		ID:        uuid.New(),
		RoomID:    key.RoomID,
		Date:      key.Date,
		Time:      key.Time,
		UserID:    &userID,
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.SlotWatches().Create(context.Background(), w)
	require.NoError(t, err)
	require.True(t, created)
	return w
}

// Friday is a civil date that falls on a Friday.
const Friday = "2030-03-01"

// Tuesday is a civil date that falls on a Tuesday.
const Tuesday = "2030-03-05"
