package signature

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vedhavyas/go-subkey"
)

func NewVerifier() *Verifier {
	v, err := NewVerifierWithCacheSize(DefaultKeyCacheSize)
	if err != nil {
		return &Verifier{}
	}
	return v
}

// NewVerifierWithCacheSize keeps at most size verified public keys.
func NewVerifierWithCacheSize(size int) (*Verifier, error) {
	keys, err := lru.New[string, *sr25519.PublicKey](size)
	if err != nil {
		return nil, fmt.Errorf("could not create key cache: %w", err)
	}
	return &Verifier{keys: keys}, nil
}

func (v *Verifier) Verify(message, signature, ss58Address string) (bool, error) {
	sig, err := decodeSignature(signature)
	if err != nil {
		return false, err
	}

	key, cached := v.cachedKey(ss58Address)
	if !cached {
		if key, err = decodeAddress(ss58Address); err != nil {
			return false, err
		}
	}

	ok, err := key.Verify([]byte(message), sig)
	if err != nil || !ok {
		return ok, err
	}
	// only signers that proved they hold the key take a cache slot
	if !cached && v.keys != nil {
		v.keys.Add(ss58Address, key)
	}
	return true, nil
}

func (v *Verifier) cachedKey(ss58Address string) (*sr25519.PublicKey, bool) {
	if v.keys == nil {
		return nil, false
	}
	return v.keys.Get(ss58Address)
}

// Verify checks a 0x-prefixed hex sr25519 signature of message against the
// public key encoded in ss58Address.
func Verify(message, signature, ss58Address string) (bool, error) {
	sig, err := decodeSignature(signature)
	if err != nil {
		return false, err
	}
	key, err := decodeAddress(ss58Address)
	if err != nil {
		return false, err
	}
	return key.Verify([]byte(message), sig)
}

func decodeSignature(signature string) ([]byte, error) {
	raw, ok := strings.CutPrefix(signature, "0x")
	if !ok {
		return nil, fmt.Errorf("%w: missing 0x prefix", ErrMalformedSignature)
	}
	sig, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSignature, err)
	}
	if len(sig) != signatureLength {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedSignature, signatureLength, len(sig))
	}
	return sig, nil
}

func decodeAddress(ss58Address string) (*sr25519.PublicKey, error) {
	_, pub, err := subkey.SS58Decode(ss58Address)
	if err != nil {
		return nil, fmt.Errorf("failed to decode SS58 address: %w", err)
	}
	key, err := sr25519.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to create public key: %w", err)
	}
	return key, nil
}
