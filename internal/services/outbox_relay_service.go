package services

import (
	"context"

	"github.com/dstroumpakos/escape-app-sub001/internal/constants"
	"github.com/dstroumpakos/escape-app-sub001/internal/metrics"
	"github.com/dstroumpakos/escape-app-sub001/internal/repositories"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
)

// EventPublisher is satisfied by *mq.Publisher.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key, messageID string, v any) error
}

// OutboxRelayService forwards committed ledger events to the broker. An
// event is stamped published only after the broker accepted it, so delivery
// is at-least-once.
type OutboxRelayService struct {
	outbox    repositories.OutboxRepository
	publisher EventPublisher
	batchSize int
}

func NewOutboxRelayService(outbox repositories.OutboxRepository, publisher EventPublisher) *OutboxRelayService {
	return &OutboxRelayService{
		outbox:    outbox,
		publisher: publisher,
		batchSize: constants.OutboxRelayBatchSize,
	}
}

// RunRelay publishes one batch of pending events and returns how many were
// delivered. It stops at the first publish failure to keep ordering.
func (s *OutboxRelayService) RunRelay(ctx context.Context) (int, error) {
	if s.publisher == nil {
		return 0, nil
	}

	events, err := s.outbox.ListUnpublished(ctx, s.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, e := range events {
		if err := s.publisher.PublishJSON(ctx, e.Type, e.ID.String(), e); err != nil {
			metrics.IncOutboxPublished("error")
			utils.Logger.WithError(err).WithField("event_id", e.ID).Error("Failed to publish outbox event")
			return sent, err
		}
		if err := s.outbox.MarkPublished(ctx, e.ID); err != nil {
			return sent, err
		}
		metrics.IncOutboxPublished("ok")
		sent++
	}
	if sent > 0 {
		utils.Logger.Infof("Outbox relay published %d events", sent)
	}
	return sent, nil
}
