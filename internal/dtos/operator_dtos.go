package dtos

import (
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/models"
)

type OperatorLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type OperatorLoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UpdateRoomRequest patches schedule, pricing and the active flag.
// Nil fields are left untouched.
type UpdateRoomRequest struct {
	Title         *string                `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Active        *bool                  `json:"active,omitempty"`
	MinPlayers    *int                   `json:"min_players,omitempty" validate:"omitempty,gt=0"`
	MaxPlayers    *int                   `json:"max_players,omitempty" validate:"omitempty,gt=0"`
	Price         *float64               `json:"price,omitempty" validate:"omitempty,gte=0"`
	PricePerGroup *[]models.GroupPrice   `json:"price_per_group,omitempty"`
	OperatingDays *[]int16               `json:"operating_days,omitempty" validate:"omitempty,dive,gte=0,lte=6"`
	DefaultSlots  *[]models.SlotTemplate `json:"default_slots,omitempty" validate:"omitempty,dive"`
	OverflowSlot  *models.OverflowSlot   `json:"overflow_slot,omitempty"`
	ClearOverflow bool                   `json:"clear_overflow,omitempty"`
	TimeZone      *string                `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

type ListRoomsResponse struct {
	Results []*models.Room `json:"results"`
}

type SlotOverrideRequest struct {
	Slots []models.OverrideSlot `json:"slots" validate:"dive"`
}
