package synapse

import (
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultNonceCacheSize bounds the number of remembered request nonces.
	DefaultNonceCacheSize = 1 << 16
	// DefaultNonceTTL is used when the clock skew check is disabled.
	DefaultNonceTTL = 10 * time.Minute
)

var ErrReplayedMessage = errors.New("request message was already used")

// nonceGuard remembers (hotkey, nonce) pairs for long enough that a message
// replayed inside the clock skew window is rejected.
type nonceGuard struct {
	mu   sync.Mutex
	seen *lru.LRU[string, struct{}]
}

// nonceTTL covers a message signed maxSkew in the future and received
// maxSkew in the past.
func nonceTTL(maxSkew time.Duration) time.Duration {
	if maxSkew <= 0 {
		return DefaultNonceTTL
	}
	return 2*maxSkew + time.Second
}

func newNonceGuard(size int, ttl time.Duration) *nonceGuard {
	if size <= 0 {
		size = DefaultNonceCacheSize
	}
	return &nonceGuard{seen: lru.NewLRU[string, struct{}](size, nil, ttl)}
}

// claim records the pair and reports false if it was already recorded.
func (g *nonceGuard) claim(hotkey, nonce string) bool {
	key := hotkey + "|" + nonce

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen.Contains(key) {
		return false
	}
	g.seen.Add(key, struct{}{})
	return true
}
