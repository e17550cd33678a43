package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type SlotTemplate struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

type GroupPrice struct {
	Players int     `json:"players"`
	Price   float64 `json:"price"`
}

// OverflowSlot is exposed only once every regular slot for the date is taken,
// and only on the weekdays listed in Days.
type OverflowSlot struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
	Days  []int16 `json:"days"`
}

type Room struct {
	Versioned
	ID            uuid.UUID      `json:"id"`
	OperatorID    uuid.UUID      `json:"operator_id"`
	Title         string         `json:"title"`
	Active        bool           `json:"active"`
	MinPlayers    int            `json:"min_players"`
	MaxPlayers    int            `json:"max_players"`
	Price         float64        `json:"price"`
	PricePerGroup []GroupPrice   `json:"price_per_group,omitempty"`
	OperatingDays []int16        `json:"operating_days"`
	DefaultSlots  []SlotTemplate `json:"default_slots"`
	OverflowSlot  *OverflowSlot  `json:"overflow_slot,omitempty"`
	TimeZone      string         `json:"timezone"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// OpenOn reports whether the room operates on the given weekday (0=Sunday).
// A room without operating days is open every day.
func (r *Room) OpenOn(weekday time.Weekday) bool {
	if len(r.OperatingDays) == 0 {
		return true
	}
	return slices.Contains(r.OperatingDays, int16(weekday))
}

// SlotOverride replaces the default slot template for one date.
type SlotOverride struct {
	RoomID    uuid.UUID      `json:"room_id"`
	Date      string         `json:"date"`
	Slots     []OverrideSlot `json:"slots"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type OverrideSlot struct {
	Time      string  `json:"time"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
}
