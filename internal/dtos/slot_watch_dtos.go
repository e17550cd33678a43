package dtos

import "github.com/google/uuid"

type SlotWatchRequest struct {
	RoomID uuid.UUID `json:"room_id" validate:"required"`
	Date   string    `json:"date" validate:"required,datetime=2006-01-02"`
	Time   string    `json:"time" validate:"required,max=32"`
}

type GuestSlotWatchRequest struct {
	SlotWatchRequest
	Contact string `json:"contact" validate:"required,max=200"`
}

type SlotWatchResponse struct {
	Subscribed bool `json:"subscribed"`
}

type SlotWatchCleanupResponse struct {
	Deleted int64 `json:"deleted"`
}
