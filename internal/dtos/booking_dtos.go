package dtos

import (
	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/google/uuid"
)

// CreateBookingRequest is the self-service booking made by a signed-in user.
// The total is computed by the client and trusted.
type CreateBookingRequest struct {
	RoomID       uuid.UUID `json:"room_id" validate:"required"`
	Date         string    `json:"date" validate:"required,datetime=2006-01-02"`
	Time         string    `json:"time" validate:"required,max=32"`
	Players      int       `json:"players" validate:"required,gt=0"`
	Total        float64   `json:"total" validate:"gte=0"`
	PaymentTerms string    `json:"payment_terms,omitempty" validate:"omitempty,oneof=full deposit_20 pay_on_arrival"`
}

// OperatorBookingRequest covers both operator-entered "unlocked" bookings and
// external blocks.
type OperatorBookingRequest struct {
	RoomID       uuid.UUID `json:"room_id" validate:"required"`
	Date         string    `json:"date" validate:"required,datetime=2006-01-02"`
	Time         string    `json:"time" validate:"required,max=32"`
	Players      *int      `json:"players,omitempty" validate:"omitempty,gte=0"`
	Total        *float64  `json:"total,omitempty" validate:"omitempty,gte=0"`
	PaymentTerms string    `json:"payment_terms,omitempty" validate:"omitempty,oneof=full deposit_20 pay_on_arrival"`
	GuestName    *string   `json:"guest_name,omitempty" validate:"omitempty,max=200"`
	GuestContact *string   `json:"guest_contact,omitempty" validate:"omitempty,max=200"`
}

// GuestBookingRequest arrives from the public booking widget.
// Name, contact and player bounds are checked by the ledger.
type GuestBookingRequest struct {
	RoomID       uuid.UUID `json:"room_id" validate:"required"`
	Date         string    `json:"date" validate:"required,datetime=2006-01-02"`
	Time         string    `json:"time" validate:"required,max=32"`
	Players      int       `json:"players"`
	Name         string    `json:"name" validate:"max=200"`
	Contact      string    `json:"contact" validate:"max=200"`
	PaymentTerms string    `json:"payment_terms,omitempty" validate:"omitempty,oneof=full deposit_20 pay_on_arrival"`
}

type RescheduleBookingRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,max=32"`
}

type BookingCreatedResponse struct {
	ID          uuid.UUID `json:"id"`
	BookingCode string    `json:"booking_code"`
}

// GuestBookingConfirmation is the richer payload returned to the widget.
type GuestBookingConfirmation struct {
	ID            uuid.UUID            `json:"id"`
	BookingCode   string               `json:"booking_code"`
	RoomTitle     string               `json:"room_title"`
	Date          string               `json:"date"`
	Time          string               `json:"time"`
	Players       int                  `json:"players"`
	Total         float64              `json:"total"`
	PaymentTerms  models.PaymentTerms  `json:"payment_terms"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	DepositAmount *float64             `json:"deposit_amount,omitempty"`
}

type ListBookingsResponse struct {
	Results []*models.Booking `json:"results"`
}
