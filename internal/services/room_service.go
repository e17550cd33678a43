package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/dtos"
	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/repositories"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

// RoomService lets operators maintain the schedule and pricing of their
// rooms. Bookings are never touched here.
type RoomService struct {
	rooms     repositories.RoomRepository
	overrides repositories.SlotOverrideRepository
	now       func() time.Time
}

func NewRoomService(rooms repositories.RoomRepository, overrides repositories.SlotOverrideRepository) *RoomService {
	return &RoomService{rooms: rooms, overrides: overrides, now: time.Now}
}

// UpdateRoom applies the non-nil fields of req under optimistic locking.
func (s *RoomService) UpdateRoom(ctx context.Context, actor Actor, roomID uuid.UUID, req dtos.UpdateRoomRequest) (*models.Room, error) {
	if err := s.guard(ctx, actor, roomID); err != nil {
		return nil, err
	}

	var updated *models.Room
	err := s.rooms.UpdateWithRetry(ctx, roomID, func(r *models.Room) error {
		if req.Title != nil {
			r.Title = strings.TrimSpace(*req.Title)
		}
		if req.Active != nil {
			r.Active = *req.Active
		}
		if req.MinPlayers != nil {
			r.MinPlayers = *req.MinPlayers
		}
		if req.MaxPlayers != nil {
			r.MaxPlayers = *req.MaxPlayers
		}
		if req.Price != nil {
			r.Price = utils.RoundMoney(*req.Price)
		}
		if req.PricePerGroup != nil {
			r.PricePerGroup = *req.PricePerGroup
		}
		if req.OperatingDays != nil {
			days := slices.Clone(*req.OperatingDays)
			slices.Sort(days)
			r.OperatingDays = slices.Compact(days)
		}
		if req.DefaultSlots != nil {
			r.DefaultSlots = *req.DefaultSlots
		}
		if req.ClearOverflow {
			r.OverflowSlot = nil
		} else if req.OverflowSlot != nil {
			r.OverflowSlot = req.OverflowSlot
		}
		if req.TimeZone != nil {
			r.TimeZone = *req.TimeZone
		}
		if err := validateRoom(r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.ErrRoomNotFound
		}
		return nil, err
	}

	utils.Logger.WithField("room_id", roomID).Info("Room updated")
	return updated, nil
}

// SetOverride replaces the slot template for one date.
func (s *RoomService) SetOverride(ctx context.Context, actor Actor, roomID uuid.UUID, date string, slots []models.OverrideSlot) (*models.SlotOverride, error) {
	if _, err := ParseCivilDate(date); err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, sl := range slots {
		if strings.TrimSpace(sl.Time) == "" {
			return nil, utils.NewValidationError("slots", "time is required")
		}
		if _, dup := seen[sl.Time]; dup {
			return nil, utils.NewValidationError("slots", "duplicate time "+sl.Time)
		}
		seen[sl.Time] = struct{}{}
	}
	if err := s.guard(ctx, actor, roomID); err != nil {
		return nil, err
	}

	o := &models.SlotOverride{
		RoomID:    roomID,
		Date:      date,
		Slots:     slots,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.overrides.Upsert(ctx, o); err != nil {
		return nil, err
	}
	utils.Logger.WithField("room_id", roomID).Infof("Slot override set for %s", date)
	return o, nil
}

func (s *RoomService) DeleteOverride(ctx context.Context, actor Actor, roomID uuid.UUID, date string) error {
	if _, err := ParseCivilDate(date); err != nil {
		return err
	}
	if err := s.guard(ctx, actor, roomID); err != nil {
		return err
	}
	if err := s.overrides.Delete(ctx, roomID, date); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return utils.ErrNotFound
		}
		return err
	}
	return nil
}

// ListRooms returns the rooms an operator runs. Admins see every room.
func (s *RoomService) ListRooms(ctx context.Context, actor Actor) ([]*models.Room, error) {
	if actor.Admin {
		return s.rooms.ListAll(ctx)
	}
	if actor.OperatorID == nil {
		return nil, utils.ErrAccessDenied
	}
	return s.rooms.ListByOperatorID(ctx, *actor.OperatorID)
}

func (s *RoomService) guard(ctx context.Context, actor Actor, roomID uuid.UUID) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return utils.ErrRoomNotFound
	}
	if actor.Admin {
		return nil
	}
	if actor.OperatorID == nil || *actor.OperatorID != room.OperatorID {
		return utils.ErrAccessDenied
	}
	return nil
}

func validateRoom(r *models.Room) error {
	if r.Title == "" {
		return utils.NewValidationError("title", "is required")
	}
	if r.MinPlayers <= 0 {
		return utils.NewValidationError("min_players", "must be positive")
	}
	if r.MaxPlayers < r.MinPlayers {
		return utils.NewValidationError("max_players", "must not be below min_players")
	}
	seen := map[string]struct{}{}
	for _, sl := range r.DefaultSlots {
		if strings.TrimSpace(sl.Time) == "" {
			return utils.NewValidationError("default_slots", "time is required")
		}
		if _, dup := seen[sl.Time]; dup {
			return utils.NewValidationError("default_slots", "duplicate time "+sl.Time)
		}
		seen[sl.Time] = struct{}{}
	}
	if r.OverflowSlot != nil && strings.TrimSpace(r.OverflowSlot.Time) == "" {
		return utils.NewValidationError("overflow_slot", "time is required")
	}
	if _, err := time.LoadLocation(r.TimeZone); err != nil {
		return utils.NewValidationError("timezone", "unknown time zone")
	}
	return nil
}
