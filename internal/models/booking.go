package models

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusUpcoming  BookingStatus = "upcoming"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusDeposit       PaymentStatus = "deposit"
	PaymentStatusUnpaid        PaymentStatus = "unpaid"
	PaymentStatusNotApplicable PaymentStatus = "not-applicable"
)

type PaymentTerms string

const (
	PaymentTermsFull         PaymentTerms = "full"
	PaymentTermsDeposit20    PaymentTerms = "deposit_20"
	PaymentTermsPayOnArrival PaymentTerms = "pay_on_arrival"
)

type BookingSource string

const (
	BookingSourceApp         BookingSource = "app"
	BookingSourceExternal    BookingSource = "external"
	BookingSourceWidgetGuest BookingSource = "widget-guest"
)

// Booking is a reservation or block against one room slot.
// Date is a civil "YYYY-MM-DD" key; Time is compared as an opaque string.
type Booking struct {
	ID            uuid.UUID     `json:"id"`
	BookingCode   string        `json:"booking_code"`
	RoomID        uuid.UUID     `json:"room_id"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	Players       int           `json:"players"`
	TotalPrice    float64       `json:"total_price"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentTerms  PaymentTerms  `json:"payment_terms"`
	DepositAmount *float64      `json:"deposit_amount,omitempty"`
	Source        BookingSource `json:"source"`
	OwnerUserID   *string       `json:"owner_user_id,omitempty"`
	OperatorID    *uuid.UUID    `json:"operator_id,omitempty"`
	GuestName     *string       `json:"guest_name,omitempty"`
	GuestContact  *string       `json:"guest_contact,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// IsActive reports whether the booking still holds its slot.
func (b *Booking) IsActive() bool {
	return b.Status != BookingStatusCancelled
}

// SlotKey identifies a reservable unit of time.
type SlotKey struct {
	RoomID uuid.UUID `json:"room_id"`
	Date   string    `json:"date"`
	Time   string    `json:"time"`
}

func (b *Booking) SlotKey() SlotKey {
	return SlotKey{RoomID: b.RoomID, Date: b.Date, Time: b.Time}
}
