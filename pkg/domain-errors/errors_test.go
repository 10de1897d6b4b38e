package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindMapping(t *testing.T) {
	cases := map[Code]Kind{
		CodeInvalidGoal:        KindValidation,
		CodeUnauthorized:       KindAuthorization,
		CodeCampaignNotActive:  KindState,
		CodeWindowStillOpen:    KindState,
		CodeInsufficientStake:  KindResource,
		CodeInsufficientWeight: KindResource,
		CodeAlreadyReleased:    KindIdempotency,
		CodeAlreadyVoted:       KindIdempotency,
		CodeAlreadyClaimed:     KindIdempotency,
		CodeNotFound:           KindNotFound,
		Code("made_up"):        KindInternal,
	}
	for code, want := range cases {
		assert.Equal(t, want, code.Kind(), string(code))
	}
}

func TestHasCodeThroughWrapping(t *testing.T) {
	base := New(CodeNothingToRefund, "nothing left").With("campaign_id", 7).With("donor", "0xabc")
	wrapped := fmt.Errorf("claim refund: %w", base)

	require.True(t, HasCode(wrapped, CodeNothingToRefund))
	assert.False(t, HasCode(wrapped, CodeNotCancelled))
	assert.Equal(t, KindResource, KindOf(wrapped))

	de, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "7", de.Entities["campaign_id"])
	assert.Equal(t, "nothing_to_refund: nothing left [campaign_id=7 donor=0xabc]", de.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to load campaign")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(cause))
}
