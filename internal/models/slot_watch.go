package models

import (
	"time"

	"github.com/google/uuid"
)

// SlotWatch records that a user or guest wants to hear when a slot frees up.
// Exactly one of UserID and GuestContact is set.
type SlotWatch struct {
	ID           uuid.UUID  `json:"id"`
	RoomID       uuid.UUID  `json:"room_id"`
	Date         string     `json:"date"`
	Time         string     `json:"time"`
	UserID       *string    `json:"user_id,omitempty"`
	GuestContact *string    `json:"guest_contact,omitempty"`
	Notified     bool       `json:"notified"`
	NotifiedAt   *time.Time `json:"notified_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (w *SlotWatch) SlotKey() SlotKey {
	return SlotKey{RoomID: w.RoomID, Date: w.Date, Time: w.Time}
}
