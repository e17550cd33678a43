package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dstroumpakos/escape-app-sub001/internal/constants"
	"github.com/dstroumpakos/escape-app-sub001/internal/metrics"
	"github.com/dstroumpakos/escape-app-sub001/internal/models"
	"github.com/dstroumpakos/escape-app-sub001/internal/repositories"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SlotWatchService owns slot watches: subscription, the slot-freed marker
// and explicit cleanup.
type SlotWatchService struct {
	watches   repositories.SlotWatchRepository
	rooms     repositories.RoomRepository
	ledger    repositories.BookingLedgerRepository
	retention time.Duration
	now       func() time.Time
}

func NewSlotWatchService(
	watches repositories.SlotWatchRepository,
	rooms repositories.RoomRepository,
	ledger repositories.BookingLedgerRepository,
	retention time.Duration,
) *SlotWatchService {
	if retention <= 0 {
		retention = constants.DefaultWatchRetention
	}
	return &SlotWatchService{
		watches:   watches,
		rooms:     rooms,
		ledger:    ledger,
		retention: retention,
		now:       time.Now,
	}
}

// ----------------------------------------------------------------
// Slot-freed marker
// ----------------------------------------------------------------

// MarkFreedInTx flips every pending watch on key to notified and records a
// slot.freed outbox event in the same transaction. The caller must hold the
// partition lock and have established that no active booking remains.
func (s *SlotWatchService) MarkFreedInTx(
	ctx context.Context,
	tx repositories.LedgerTx,
	key models.SlotKey,
	bookingID uuid.UUID,
) ([]uuid.UUID, error) {
	at := s.now().UTC()
	ids, err := tx.MarkSlotWatchesNotified(ctx, key, at)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(models.SlotFreedPayload{
		SlotKey:     key,
		BookingID:   bookingID,
		WatchIDs:    ids,
		CancelledAt: at,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.InsertOutboxEvent(ctx, &models.OutboxEvent{
		ID:        uuid.New(),
		Type:      constants.OutboxEventSlotFreed,
		BookingID: bookingID,
		Payload:   payload,
		CreatedAt: at,
	}); err != nil {
		return nil, err
	}

	metrics.AddWatchesNotified(len(ids))
	return ids, nil
}

// MarkSlotWatchesNotified runs the marker on its own for a key that is no
// longer occupied, e.g. when replaying a missed cancellation. It is a no-op
// while an active booking still holds the key.
func (s *SlotWatchService) MarkSlotWatchesNotified(ctx context.Context, key models.SlotKey) (int, error) {
	var marked int
	err := s.ledger.RunInTx(ctx, func(tx repositories.LedgerTx) error {
		if err := tx.LockPartition(ctx, key.RoomID, key.Date); err != nil {
			return err
		}
		existing, err := tx.ListBookingsForDate(ctx, key.RoomID, key.Date)
		if err != nil {
			return err
		}
		if HasConflict(existing, key.Time, nil) {
			return nil
		}
		ids, err := s.MarkFreedInTx(ctx, tx, key, uuid.Nil)
		marked = len(ids)
		return err
	})
	return marked, err
}

// ----------------------------------------------------------------
// Subscriptions
// ----------------------------------------------------------------

// ToggleSlotWatch subscribes a registered user, or removes the existing
// watch when one is already armed. A watch that already fired is re-armed
// instead of removed: the user is asking to hear about the slot again.
func (s *SlotWatchService) ToggleSlotWatch(ctx context.Context, userID string, key models.SlotKey) (bool, error) {
	if err := s.validateKey(ctx, key); err != nil {
		return false, err
	}

	existing, err := s.watches.FindByUser(ctx, key, userID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if existing.Notified {
			return s.rearm(ctx, existing, logrus.Fields{"user_id": userID})
		}
		if err := s.watches.Delete(ctx, existing.ID); err != nil {
			return false, err
		}
		utils.Logger.WithFields(logrus.Fields{"user_id": userID, "watch_id": existing.ID}).Info("Slot watch removed")
		return false, nil
	}

	w := &models.SlotWatch{
		ID:        uuid.New(),
		RoomID:    key.RoomID,
		Date:      key.Date,
		Time:      key.Time,
		UserID:    &userID,
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.watches.Create(ctx, w); err != nil {
		return false, err
	}
	utils.Logger.WithFields(logrus.Fields{"user_id": userID, "watch_id": w.ID}).Info("Slot watch created")
	return true, nil
}

// SubscribeGuest registers a guest contact. Repeating the call is harmless,
// and repeating it after the watch fired arms it again.
func (s *SlotWatchService) SubscribeGuest(ctx context.Context, contact string, key models.SlotKey) (bool, error) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return false, utils.NewValidationError("contact", "is required")
	}
	if err := s.validateKey(ctx, key); err != nil {
		return false, err
	}

	existing, err := s.watches.FindByGuest(ctx, key, contact)
	if err != nil {
		return false, err
	}
	if existing == nil {
		created, err := s.watches.Create(ctx, &models.SlotWatch{
			ID:           uuid.New(),
			RoomID:       key.RoomID,
			Date:         key.Date,
			Time:         key.Time,
			GuestContact: &contact,
			CreatedAt:    s.now().UTC(),
		})
		if err != nil || created {
			return created, err
		}
		// Lost a race with a concurrent subscribe for the same contact.
		existing, err = s.watches.FindByGuest(ctx, key, contact)
		if err != nil {
			return false, err
		}
		if existing == nil {
			return false, nil
		}
	}
	if existing.Notified {
		return s.rearm(ctx, existing, logrus.Fields{"guest": true})
	}
	return true, nil
}

func (s *SlotWatchService) rearm(ctx context.Context, w *models.SlotWatch, fields logrus.Fields) (bool, error) {
	if _, err := s.watches.Rearm(ctx, w.ID); err != nil {
		return false, err
	}
	fields["watch_id"] = w.ID
	utils.Logger.WithFields(fields).Info("Slot watch re-armed")
	return true, nil
}

// Cleanup deletes watches notified longer than the retention window ago and
// every watch for a date already in the past.
func (s *SlotWatchService) Cleanup(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	deleted, err := s.watches.DeleteStale(ctx, now.Add(-s.retention), now.Format(civilDateLayout))
	if err != nil {
		return 0, err
	}
	utils.Logger.Infof("Slot watch cleanup removed %d watches", deleted)
	return deleted, nil
}

func (s *SlotWatchService) validateKey(ctx context.Context, key models.SlotKey) error {
	if err := validateSlotInput(key.Date, key.Time); err != nil {
		return err
	}
	room, err := s.rooms.GetByID(ctx, key.RoomID)
	if err != nil {
		return err
	}
	if room == nil {
		return utils.ErrRoomNotFound
	}
	return nil
}
