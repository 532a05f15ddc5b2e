package kami

import (
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/reprompt/internal/config"
)

func TestKamiIntegration_ReadOnly(t *testing.T) {
	if os.Getenv("KAMI_INTEGRATION") != "1" {
		t.Skip("KAMI_INTEGRATION!=1; skipping real Kami integration test")
	}

	host := os.Getenv("KAMI_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	port := os.Getenv("KAMI_PORT")
	if port == "" {
		port = "3000"
	}

	k, err := NewKami(&config.KamiEnvConfig{KamiHost: host, KamiPort: port, KamiRetryMax: 1})
	require.NoError(t, err)

	lb, err := k.GetLatestBlock()
	require.NoError(t, err)
	assert.True(t, lb.Success)

	kr, err := k.GetKeyringPair()
	require.NoError(t, err)
	assert.NotEmpty(t, kr.Data.KeyringPair.Address)

	if netuidStr := os.Getenv("KAMI_NETUID"); netuidStr != "" {
		netuid, perr := strconv.Atoi(netuidStr)
		if perr == nil {
			mg, merr := k.GetMetagraph(netuid)
			require.NoError(t, merr)
			assert.Equal(t, netuid, mg.Data.Netuid)
		}
	}
}
