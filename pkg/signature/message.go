package signature

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewRequestMessage builds the signed x-message value: "<uuid>.<unix-seconds>".
func NewRequestMessage(now time.Time) string {
	return fmt.Sprintf("%s.%d", uuid.NewString(), now.Unix())
}

// ParseRequestMessage splits a request message into its nonce and timestamp
// and rejects it when the timestamp is further than maxSkew from now.
// A non-positive maxSkew disables the freshness check.
func ParseRequestMessage(message string, now time.Time, maxSkew time.Duration) (string, time.Time, error) {
	idx := strings.LastIndex(message, ".")
	if idx <= 0 || idx == len(message)-1 {
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrMalformedMessage, message)
	}

	nonce := message[:idx]
	if _, err := uuid.Parse(nonce); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: bad nonce: %w", ErrMalformedMessage, err)
	}

	secs, err := strconv.ParseInt(message[idx+1:], 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: bad timestamp: %w", ErrMalformedMessage, err)
	}
	ts := time.Unix(secs, 0)

	if maxSkew > 0 {
		skew := now.Sub(ts)
		if skew < 0 {
			skew = -skew
		}
		if skew > maxSkew {
			return "", time.Time{}, fmt.Errorf("%w: skew %s", ErrStaleMessage, skew)
		}
	}
	return nonce, ts, nil
}
