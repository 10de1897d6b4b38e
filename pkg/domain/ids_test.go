package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pulseaid/pkg/domain-errors"
)

// TestParseCampaignID validates the parsing invariant: ids are positive base-10 integers.
func TestParseCampaignID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseCampaignID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero", func(t *testing.T) {
		_, err := ParseCampaignID("0")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects negative and non-numeric", func(t *testing.T) {
		for _, in := range []string{"-1", "abc", "1.5"} {
			_, err := ParseCampaignID(in)
			assert.Error(t, err, in)
		}
	})

	t.Run("accepts positive id", func(t *testing.T) {
		id, err := ParseCampaignID(" 42 ")
		require.NoError(t, err)
		assert.Equal(t, CampaignID(42), id)
		assert.Equal(t, "42", id.String())
	})
}

func TestParseDisputeID(t *testing.T) {
	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseDisputeID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("round trips through text", func(t *testing.T) {
		id := NewDisputeID()
		b, err := id.MarshalText()
		require.NoError(t, err)

		var parsed DisputeID
		require.NoError(t, parsed.UnmarshalText(b))
		assert.Equal(t, id, parsed)
	})
}

func TestParseAddress(t *testing.T) {
	t.Run("accepts checksummed and lowercase forms", func(t *testing.T) {
		a, err := ParseAddress("0x486733393755Af15B550AF88733CEeE19FD3F254")
		require.NoError(t, err)
		b, err := ParseAddress("0x486733393755af15b550af88733ceee19fd3f254")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("rejects malformed address", func(t *testing.T) {
		_, err := ParseAddress("xfAd776ED103C64bC1f7ADcddFafa38D779b30061")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero address", func(t *testing.T) {
		_, err := ParseAddress("0x0000000000000000000000000000000000000000")
		require.Error(t, err)
	})
}
