package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxEvent struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	BookingID   uuid.UUID       `json:"booking_id"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
}

// SlotFreedPayload is published when a cancellation or reschedule frees a slot.
type SlotFreedPayload struct {
	SlotKey
	BookingID   uuid.UUID   `json:"booking_id"`
	WatchIDs    []uuid.UUID `json:"watch_ids"`
	CancelledAt time.Time   `json:"cancelled_at"`
}
