package signature

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/vedhavyas/go-subkey"
)

func NewProvider(keypair *sr25519.Keypair) (*Provider, error) {
	if keypair == nil {
		return nil, fmt.Errorf("keypair is nil")
	}
	return &Provider{
		keypair: keypair,
		hotkey:  ToSs58Address(keypair),
	}, nil
}

// Sign returns the 0x-prefixed hex signature of message.
func (p *Provider) Sign(message string) (string, error) {
	if p.keypair == nil {
		return "", fmt.Errorf("provider has no keypair")
	}
	sig, err := p.keypair.Sign([]byte(message))
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	return "0x" + hex.EncodeToString(sig), nil
}

func (p *Provider) Hotkey() string {
	return p.hotkey
}

// SignRequest creates a fresh request message and signs it.
func SignRequest(signer SignatureProvider, now time.Time) (message, sig string, err error) {
	message = NewRequestMessage(now)
	sig, err = signer.Sign(message)
	if err != nil {
		return "", "", err
	}
	return message, sig, nil
}

func ToSs58Address(keypair *sr25519.Keypair) string {
	return subkey.SS58Encode(keypair.Public().Encode(), SubstrateNetworkId)
}
