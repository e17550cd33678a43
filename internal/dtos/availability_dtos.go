package dtos

import (
	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/google/uuid"
)

type SlotAvailability struct {
	Time      string  `json:"time"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
	Overflow  bool    `json:"overflow,omitempty"`
}

// RoomPricingMeta is a read-only projection of the room's pricing metadata.
type RoomPricingMeta struct {
	ID            uuid.UUID           `json:"id"`
	Title         string              `json:"title"`
	MinPlayers    int                 `json:"min_players"`
	MaxPlayers    int                 `json:"max_players"`
	Price         float64             `json:"price"`
	PricePerGroup []models.GroupPrice `json:"price_per_group,omitempty"`
}

type AvailabilityResponse struct {
	Available bool               `json:"available"`
	Closed    bool               `json:"closed"`
	Slots     []SlotAvailability `json:"slots"`
	Room      RoomPricingMeta    `json:"room"`
}
