package signature

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestMessage(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	msg := NewRequestMessage(now)

	nonce, ts, err := ParseRequestMessage(msg, now.Add(10*time.Second), time.Minute)
	require.NoError(t, err)
	assert.Len(t, nonce, 36)
	assert.Equal(t, now.Unix(), ts.Unix())

	assert.NotEqual(t, msg, NewRequestMessage(now))
}

func TestParseRequestMessage_Stale(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	msg := NewRequestMessage(now.Add(-2 * time.Minute))

	_, _, err := ParseRequestMessage(msg, now, time.Minute)
	assert.ErrorIs(t, err, ErrStaleMessage)

	_, _, err = ParseRequestMessage(NewRequestMessage(now.Add(2*time.Minute)), now, time.Minute)
	assert.ErrorIs(t, err, ErrStaleMessage)

	_, _, err = ParseRequestMessage(msg, now, 0)
	assert.NoError(t, err)
}

func TestParseRequestMessage_Malformed(t *testing.T) {
	now := time.Now()
	for _, msg := range []string{
		"",
		"no-dot",
		"not-a-uuid.123",
		fmt.Sprintf("%s.", "1b4e28ba-2fa1-11d2-883f-0016d3cca427"),
		"1b4e28ba-2fa1-11d2-883f-0016d3cca427.abc",
	} {
		_, _, err := ParseRequestMessage(msg, now, time.Minute)
		assert.ErrorIs(t, err, ErrMalformedMessage, msg)
	}
}
