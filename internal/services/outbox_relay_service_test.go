package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dstroumpakos/escape-app-sub001/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	failAfter int
	sent      []string
}

func (p *fakePublisher) PublishJSON(_ context.Context, key, messageID string, _ any) error {
	if p.failAfter >= 0 && len(p.sent) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, key+"/"+messageID)
	return nil
}

func freeSlots(t *testing.T, env *testEnv, times ...string) {
	t.Helper()
	for _, tm := range times {
		key := env.key(testhelpers.Friday, tm)
		env.store.AddWatch(t, key, "watcher-"+tm)
		_, err := env.watches.MarkSlotWatchesNotified(context.Background(), key)
		require.NoError(t, err)
	}
}

func TestRunRelay_PublishesAndStamps(t *testing.T) {
	env := newTestEnv(t)
	freeSlots(t, env, "18:00", "20:00")
	pub := &fakePublisher{failAfter: -1}
	relay := NewOutboxRelayService(env.store.Outbox(), pub)

	sent, err := relay.RunRelay(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, sent)
	events := env.store.OutboxEvents()
	require.Equal(t, "slot.freed/"+events[0].ID.String(), pub.sent[0])
	for _, e := range events {
		require.NotNil(t, e.PublishedAt)
	}

	sent, err = relay.RunRelay(context.Background())
	require.NoError(t, err)
	require.Zero(t, sent)
}

func TestRunRelay_StopsAtFirstFailure(t *testing.T) {
	env := newTestEnv(t)
	freeSlots(t, env, "18:00", "20:00", "22:00")
	pub := &fakePublisher{failAfter: 1}
	relay := NewOutboxRelayService(env.store.Outbox(), pub)

	sent, err := relay.RunRelay(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, sent)

	events := env.store.OutboxEvents()
	require.NotNil(t, events[0].PublishedAt)
	require.Nil(t, events[1].PublishedAt)
	require.Nil(t, events[2].PublishedAt)

	// Broker back: the rest go out on the next tick.
	pub.failAfter = -1
	sent, err = relay.RunRelay(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, sent)
}

func TestRunRelay_NoPublisher(t *testing.T) {
	env := newTestEnv(t)
	freeSlots(t, env, "18:00")

	sent, err := NewOutboxRelayService(env.store.Outbox(), nil).RunRelay(context.Background())
	require.NoError(t, err)
	require.Zero(t, sent)
	require.Nil(t, env.store.OutboxEvents()[0].PublishedAt)
}
