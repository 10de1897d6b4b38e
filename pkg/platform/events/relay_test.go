package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulseaid/pkg/platform/events"
	"pulseaid/pkg/platform/events/store/memory"
)

type recordingSink struct {
	batches [][]events.Event
	err     error
}

func (s *recordingSink) Publish(_ context.Context, batch []events.Event) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, batch)
	return nil
}

func seed(t *testing.T, store *memory.InMemoryStore, n int) {
	t.Helper()
	pub := events.NewPublisher(store)
	for range n {
		require.NoError(t, pub.Emit(context.Background(), events.Event{
			Type:          events.DonationReceived,
			AggregateType: events.AggregateCampaign,
			AggregateID:   "9",
		}))
	}
}

func TestRelay_FlushDrainsInBatches(t *testing.T) {
	store := memory.NewInMemoryStore()
	seed(t, store, 5)
	sink := &recordingSink{}
	relay := events.NewRelay(store, sink, events.WithBatchSize(2))

	n, err := relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, sink.batches, 3)

	pending, err := store.Pending(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRelay_SinkFailureLeavesEntriesPending(t *testing.T) {
	store := memory.NewInMemoryStore()
	seed(t, store, 3)
	relay := events.NewRelay(store, &recordingSink{err: errors.New("broker down")})

	n, err := relay.Flush(context.Background())
	require.Error(t, err)
	assert.Zero(t, n)

	pending, err := store.Pending(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}
