package kami

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/reprompt/internal/config"
)

func newTestServer(t *testing.T, retryMax int, handler http.HandlerFunc) *Kami {
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	addr := ts.Listener.Addr().(*net.TCPAddr)
	k, err := NewKami(&config.KamiEnvConfig{
		KamiHost:     addr.IP.String(),
		KamiPort:     fmt.Sprint(addr.Port),
		KamiRetryMax: retryMax,
	})
	require.NoError(t, err)
	assert.Equal(t, ts.URL, k.BaseURL)
	return k
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func TestNewKami_NilConfig(t *testing.T) {
	_, err := NewKami(nil)
	assert.Error(t, err)
}

func TestServeAxon_Success(t *testing.T) {
	k := newTestServer(t, 0, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chain/serve-axon" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"port":8091`)
		writeJSON(w, `{"statusCode":200,"success":true,"data":"0xabc","error":null}`)
	})

	res, err := k.ServeAxon(ServeAxonParams{Port: 8091})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "0xabc", res.Data)
}

func TestServeAxon_HTTPError(t *testing.T) {
	k := newTestServer(t, 0, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad"))
	})
	_, err := k.ServeAxon(ServeAxonParams{})
	assert.Error(t, err)
}

func TestServeAxon_ResponseErrorField(t *testing.T) {
	k := newTestServer(t, 0, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"statusCode":200,"success":false,"data":"","error":{"msg":"boom"}}`)
	})
	_, err := k.ServeAxon(ServeAxonParams{})
	assert.Error(t, err)
}

func TestGetMetagraph_Success(t *testing.T) {
	payload := `{"statusCode":200,"success":true,"data":{"netuid":1,"name":"n","symbol":"s","block":10,` +
		`"hotkeys":["h0","h1"],"coldkeys":["c0","c1"],` +
		`"axons":[{"ip":"10.0.0.1","port":8080},{"ip":"10.0.0.2","port":8081}],` +
		`"validatorPermit":[true,false],"alphaStake":[5000,1],"taoStake":[0,0],"totalStake":[5000,1]},"error":null}`
	k := newTestServer(t, 0, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chain/subnet-metagraph/1" || r.Method != http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, payload)
	})

	res, err := k.GetMetagraph(1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Data.Netuid)
	assert.Equal(t, []string{"h0", "h1"}, res.Data.Hotkeys)
	assert.Equal(t, 8081, res.Data.Axons[1].Port)
	assert.Equal(t, []bool{true, false}, res.Data.ValidatorPermit)

	require.Len(t, res.Data.Axons, 2)
	assert.Equal(t, "10.0.0.2", res.Data.Axons[1].IP)
}

func TestGetLatestBlock_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	k := newTestServer(t, 2, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, `{"statusCode":200,"success":true,"data":{"parentHash":"0x1","blockNumber":42,"stateRoot":"0x2","extrinsicsRoot":"0x3"},"error":null}`)
	})

	res, err := k.GetLatestBlock()
	require.NoError(t, err)
	assert.Equal(t, 42, res.Data.BlockNumber)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSetWeights_Success(t *testing.T) {
	k := newTestServer(t, 0, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chain/set-weights" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, `{"statusCode":200,"success":true,"data":"0xdead","error":null}`)
	})

	res, err := k.SetWeights(SetWeightsParams{Netuid: 1, Dests: []int{0}, Weights: []int{65535}})
	require.NoError(t, err)
	assert.Equal(t, "0xdead", res.Data)
}

func TestSignVerifyAndKeyring_Success(t *testing.T) {
	k := newTestServer(t, 0, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/substrate/sign-message/sign":
			writeJSON(w, `{"statusCode":200,"success":true,"data":{"signature":"sig"},"error":null}`)
		case "/substrate/sign-message/verify":
			writeJSON(w, `{"statusCode":200,"success":true,"data":{"valid":true},"error":null}`)
		case "/substrate/keyring-pair-info":
			writeJSON(w, `{"statusCode":200,"success":true,"data":{"keyringPair":{"address":"addr","isLocked":false,"meta":{},"type":"sr25519"},"walletColdkey":"cold"},"error":null}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	sig, err := k.SignMessage(SignMessageParams{Message: "m"})
	require.NoError(t, err)
	assert.Equal(t, "sig", sig.Data.Signature)

	ver, err := k.VerifyMessage(VerifyMessageParams{Message: "m", Signature: "s", SigneeAddress: "a"})
	require.NoError(t, err)
	assert.True(t, ver.Data.Valid)

	hotkey, err := GetHotkey(k)
	require.NoError(t, err)
	assert.Equal(t, "addr", hotkey)
}
