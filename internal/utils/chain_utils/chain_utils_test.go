package chainutils

import (
	"math"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/reprompt/internal/kami"
)

func TestEmitWeights(t *testing.T) {
	uids, weights := EmitWeights([]float64{0.5, 1.0, 0})
	assert.Equal(t, []int{0, 1}, uids)
	assert.Equal(t, []int{32768, U16MAX}, weights)

	uids, weights = EmitWeights([]float64{-0.5, 0.25, math.NaN(), math.Inf(1), 1})
	assert.Equal(t, []int{1, 4}, uids)
	assert.Equal(t, []int{16384, U16MAX}, weights)

	uids, weights = EmitWeights([]float64{0, 0})
	assert.Empty(t, uids)
	assert.Empty(t, weights)

	uids, _ = EmitWeights(nil)
	assert.Empty(t, uids)

	uids, weights = EmitWeights([]float64{1, 1e-9})
	assert.Equal(t, []int{0}, uids, "weights rounding to zero are dropped")
	assert.Equal(t, []int{U16MAX}, weights)
}

func TestCheckIfMiner(t *testing.T) {
	assert.True(t, CheckIfMiner(500, 0, "dev"))
	assert.False(t, CheckIfMiner(500, 10000, "dev"))
	assert.True(t, CheckIfMiner(5000, 0, "prod"))
	assert.False(t, CheckIfMiner(20000, 0, "prod"))
}

func TestIPv4ToInt(t *testing.T) {
	v, err := IPv4ToInt(net.ParseIP("1.2.3.4"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), v)

	_, err = IPv4ToInt(net.ParseIP("::1"))
	assert.Error(t, err)

	v, err = ResolveIPv4("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0a000001), v)
}

func testMetagraph() *kami.SubnetMetagraph {
	return &kami.SubnetMetagraph{
		Hotkeys:         []string{"validator", "miner-a", "miner-b", "unserved"},
		Coldkeys:        []string{"c0", "c1", "c2", "c3"},
		ValidatorPermit: []bool{true, false, false, false},
		AlphaStake:      []float64{50000, 10, 20, 0},
		TaoStake:        []float64{0, 0, 0, 0},
		TotalStake:      []float64{50000, 10, 20, 0},
		Axons: []kami.AxonInfo{
			{IP: "10.0.0.1", Port: 8080},
			{IP: "10.0.0.2", Port: 8080},
			{IP: "10.0.0.3", Port: 8081},
			{IP: "0.0.0.0", Port: 0},
		},
	}
}

func TestMetagraphLookups(t *testing.T) {
	mg := testMetagraph()

	uid, ok := UIDForHotkey(mg, "miner-b")
	require.True(t, ok)
	assert.Equal(t, 2, uid)

	_, ok = UIDForHotkey(mg, "stranger")
	assert.False(t, ok)
	_, ok = UIDForHotkey(nil, "miner-b")
	assert.False(t, ok)

	assert.Equal(t, "c1", GetColdkeyForHotkey(mg, "miner-a"))
	assert.Equal(t, "", GetColdkeyForHotkey(mg, "stranger"))
	assert.True(t, HasValidatorPermit(mg, 0))
	assert.False(t, HasValidatorPermit(mg, 9))
	assert.Equal(t, 20.0, TotalStake(mg, 2))
	assert.Equal(t, 0.0, TotalStake(mg, -1))
}

func TestMinerUIDs(t *testing.T) {
	mg := testMetagraph()
	assert.Equal(t, []int{1, 2}, MinerUIDs(mg, "validator", "dev"))
	assert.Equal(t, []int{2}, MinerUIDs(mg, "miner-a", "dev"))
	assert.Nil(t, MinerUIDs(nil, "", "dev"))
}
