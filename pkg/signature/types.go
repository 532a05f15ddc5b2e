// Package signature signs and verifies synapse requests with sr25519 hotkeys.
package signature

import (
	"errors"

	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	SubstrateNetworkId = 42

	signatureLength = 64

	// DefaultKeyCacheSize bounds the public keys a Verifier remembers.
	DefaultKeyCacheSize = 256

	DefaultBittensorDir  = "~/.bittensor"
	DefaultWalletColdkey = "default"
)

var (
	ErrMalformedMessage   = errors.New("malformed request message")
	ErrStaleMessage       = errors.New("request message is outside the allowed clock skew")
	ErrMalformedSignature = errors.New("malformed signature")
)

type SignatureVerifier interface {
	// Verify reports whether signature is ss58Address's signature of message.
	Verify(message, signature, ss58Address string) (bool, error)
}

// Verifier remembers the decoded public keys of addresses that produced a
// valid signature, least recently used first out. A nil cache disables it.
type Verifier struct {
	keys *lru.Cache[string, *sr25519.PublicKey]
}

type SignatureProvider interface {
	Sign(message string) (string, error)
	// Hotkey returns the SS58 address of the signing key.
	Hotkey() string
}

type Provider struct {
	keypair *sr25519.Keypair
	hotkey  string
}

type walletEnv struct {
	BittensorDir string `env:"BITTENSOR_DIR, default=~/.bittensor"`
}
