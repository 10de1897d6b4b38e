package fees

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulseaid/pkg/domain"
	dErrors "pulseaid/pkg/domain-errors"
	"pulseaid/pkg/platform/events"
	eventstore "pulseaid/pkg/platform/events/store/memory"
)

var (
	treasury = common.HexToAddress("0x00000000000000000000000000000000000000fe")
	payer    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollectRecordsPayout(t *testing.T) {
	ctx := context.Background()
	outbox := eventstore.NewInMemoryStore()
	sink, err := NewSink(events.NewPublisher(outbox), treasury, WithLogger(discard()))
	require.NoError(t, err)

	require.NoError(t, sink.Collect(ctx, domain.CampaignID(7), payer, domain.NewAmount(1000)))

	payouts, err := outbox.ListByType(ctx, events.Payout)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, events.PayoutStorageFee, payouts[0].PayoutReason())
	assert.Equal(t, "1000", payouts[0].PayoutAmount().String())
	assert.Equal(t, treasury.Hex(), payouts[0].Attributes["recipient"])
	assert.Equal(t, events.AggregateCampaign, payouts[0].AggregateType)
	assert.Equal(t, "7", payouts[0].AggregateID)
}

func TestCollectZeroFeeIsNoop(t *testing.T) {
	ctx := context.Background()
	outbox := eventstore.NewInMemoryStore()
	sink, err := NewSink(events.NewPublisher(outbox), treasury, WithLogger(discard()))
	require.NoError(t, err)

	require.NoError(t, sink.Collect(ctx, domain.CampaignID(7), payer, domain.Amount{}))

	all, err := outbox.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

type failingLedger struct{}

func (failingLedger) Pay(context.Context, string, string, common.Address, domain.Amount, events.PayoutReason) error {
	return errors.New("outbox unavailable")
}

func TestCollectFailureIsInternal(t *testing.T) {
	sink, err := NewSink(failingLedger{}, treasury, WithLogger(discard()))
	require.NoError(t, err)

	err = sink.Collect(context.Background(), domain.CampaignID(1), payer, domain.NewAmount(5))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestNewSinkValidation(t *testing.T) {
	_, err := NewSink(nil, treasury)
	require.Error(t, err)

	_, err = NewSink(failingLedger{}, common.Address{})
	require.Error(t, err)
}
