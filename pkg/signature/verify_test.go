package signature

import (
	"testing"

	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	knownAddress   = "5Eq1FDc9oz1tTm4MqGLdH4ajgz9eMgQ5To812axojN121DiQ"
	knownMessage   = "I solemnly swear that I am up to some good. Hotkey: 5Eq1FDc9oz1tTm4MqGLdH4ajgz9eMgQ5To812axojN121DiQ"
	knownSignature = "0x8ee4ce50165f23b739ec55c2beeafcd273685819c32470df26b0641d15593d3b08b8aef7c391f01e7c2e34c2ee12b80df0c4b615cc0d0966be0dc81192bbc286"
)

func TestVerify_KnownVector(t *testing.T) {
	ok, err := Verify(knownMessage, knownSignature, knownAddress)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = NewVerifier().Verify("tampered", knownSignature, knownAddress)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifier_CachesVerifiedKeys(t *testing.T) {
	v := NewVerifier()
	for i := 0; i < 2; i++ {
		ok, err := v.Verify(knownMessage, knownSignature, knownAddress)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.True(t, v.keys.Contains(knownAddress))
	assert.Equal(t, 1, v.keys.Len())

	ok, err := v.Verify("tampered", knownSignature, knownAddress)
	require.NoError(t, err)
	assert.False(t, ok, "a cached key still checks the signature")

	_, err = v.Verify(knownMessage, knownSignature, "invalid-address")
	assert.Error(t, err)
	assert.False(t, v.keys.Contains("invalid-address"))
}

func TestVerifier_BogusCallersTakeNoCacheSlot(t *testing.T) {
	v := NewVerifier()
	for i := 0; i < 50; i++ {
		kp, err := sr25519.GenerateKeypair()
		require.NoError(t, err)
		p, err := NewProvider(kp)
		require.NoError(t, err)
		sig, err := p.Sign("something else")
		require.NoError(t, err)

		ok, err := v.Verify("request", sig, p.Hotkey())
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Zero(t, v.keys.Len())
}

func TestVerifier_CacheIsBounded(t *testing.T) {
	v, err := NewVerifierWithCacheSize(2)
	require.NoError(t, err)

	hotkeys := make([]string, 3)
	for i := range hotkeys {
		kp, err := sr25519.GenerateKeypair()
		require.NoError(t, err)
		p, err := NewProvider(kp)
		require.NoError(t, err)
		sig, err := p.Sign("request")
		require.NoError(t, err)

		ok, err := v.Verify("request", sig, p.Hotkey())
		require.NoError(t, err)
		require.True(t, ok)
		hotkeys[i] = p.Hotkey()
	}

	assert.Equal(t, 2, v.keys.Len())
	assert.False(t, v.keys.Contains(hotkeys[0]), "oldest key is evicted")
	assert.True(t, v.keys.Contains(hotkeys[2]))

	_, err = NewVerifierWithCacheSize(0)
	assert.Error(t, err)
}

func TestVerifier_ZeroValueVerifies(t *testing.T) {
	ok, err := (&Verifier{}).Verify(knownMessage, knownSignature, knownAddress)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_Malformed(t *testing.T) {
	cases := map[string]struct {
		sig, addr string
	}{
		"missing prefix": {knownSignature[2:], knownAddress},
		"short":          {knownSignature[:66], knownAddress},
		"not hex":        {"0xzz" + knownSignature[4:], knownAddress},
		"bad address":    {knownSignature, "invalid-address"},
	}
	_, err := Verify("m", "0x00", knownAddress)
	assert.ErrorIs(t, err, ErrMalformedSignature)

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ok, err := Verify("test message", tc.sig, tc.addr)
			assert.Error(t, err)
			assert.False(t, ok)

			ok, err = NewVerifier().Verify("test message", tc.sig, tc.addr)
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}
