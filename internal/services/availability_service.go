package services

import (
	"context"
	"slices"

	"github.com/dstroumpakos/escape-app-sub001/internal/dtos"
	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/repositories"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/google/uuid"
)

// AvailabilityService derives open and closed slots for a room and date.
// Nothing is cached; every call recomputes from current ledger state.
type AvailabilityService struct {
	rooms     repositories.RoomRepository
	overrides repositories.SlotOverrideRepository
	bookings  repositories.BookingRepository
}

func NewAvailabilityService(
	rooms repositories.RoomRepository,
	overrides repositories.SlotOverrideRepository,
	bookings repositories.BookingRepository,
) *AvailabilityService {
	return &AvailabilityService{rooms: rooms, overrides: overrides, bookings: bookings}
}

func (s *AvailabilityService) GetAvailability(ctx context.Context, roomID uuid.UUID, date string) (*dtos.AvailabilityResponse, error) {
	day, err := ParseCivilDate(date)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, utils.ErrRoomNotFound
	}

	resp := &dtos.AvailabilityResponse{
		Slots: []dtos.SlotAvailability{},
		Room:  roomMeta(room),
	}

	weekday := day.Weekday()
	if !room.OpenOn(weekday) {
		resp.Closed = true
		return resp, nil
	}

	override, err := s.overrides.Get(ctx, roomID, date)
	if err != nil {
		return nil, err
	}

	var slots []dtos.SlotAvailability
	if override != nil && len(override.Slots) > 0 {
		for _, o := range override.Slots {
			slots = append(slots, dtos.SlotAvailability{Time: o.Time, Price: o.Price, Available: o.Available})
		}
	} else {
		for _, t := range room.DefaultSlots {
			slots = append(slots, dtos.SlotAvailability{Time: t.Time, Price: t.Price, Available: true})
		}
	}
	if len(slots) == 0 {
		return resp, nil
	}

	existing, err := s.bookings.ListByRoomAndDate(ctx, roomID, date)
	if err != nil {
		return nil, err
	}
	occupied := occupiedTimes(existing)

	allTaken := true
	for i := range slots {
		if _, ok := occupied[slots[i].Time]; ok {
			slots[i].Available = false
		}
		if slots[i].Available {
			allTaken = false
		}
	}

	if allTaken && room.OverflowSlot != nil && slices.Contains(room.OverflowSlot.Days, int16(weekday)) {
		_, taken := occupied[room.OverflowSlot.Time]
		slots = append(slots, dtos.SlotAvailability{
			Time:      room.OverflowSlot.Time,
			Price:     room.OverflowSlot.Price,
			Available: !taken,
			Overflow:  true,
		})
	}

	SortSlots(slots)

	resp.Slots = slots
	for _, sl := range slots {
		if sl.Available {
			resp.Available = true
			break
		}
	}
	return resp, nil
}

func roomMeta(room *models.Room) dtos.RoomPricingMeta {
	return dtos.RoomPricingMeta{
		ID:            room.ID,
		Title:         room.Title,
		MinPlayers:    room.MinPlayers,
		MaxPlayers:    room.MaxPlayers,
		Price:         room.Price,
		PricePerGroup: room.PricePerGroup,
	}
}
