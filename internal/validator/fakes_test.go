package validator

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/reprompt/internal/kami"
	"github.com/tensorplex-labs/reprompt/internal/synapse"
)

var errSynthesis = errors.New("synthesis failed")

type fakeSynth struct {
	mu      sync.Mutex
	images  map[string]string
	prompts []string
	// onPrompt runs before each lookup, outside the lock
	onPrompt func(prompt string)
}

func (f *fakeSynth) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if f.onPrompt != nil {
		f.onPrompt(prompt)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	url, ok := f.images[prompt]
	if !ok {
		return "", errSynthesis
	}
	return url, nil
}

type fakeScorer struct {
	rewards map[string]float64
	panicOn string
}

func (f *fakeScorer) Reward(ctx context.Context, referenceURL, candidateURL string) float64 {
	if candidateURL == f.panicOn {
		panic("scorer exploded")
	}
	return f.rewards[candidateURL]
}

type fakeQuerier struct {
	responses map[int]*synapse.ReversePrompt
	gotAxons  []synapse.Axon
	gotReq    synapse.ReversePrompt
	answered  func()
}

func (f *fakeQuerier) QueryReversePrompt(ctx context.Context, axons []synapse.Axon, req synapse.ReversePrompt) []*synapse.ReversePrompt {
	f.gotAxons = axons
	f.gotReq = req
	out := make([]*synapse.ReversePrompt, len(axons))
	for i, a := range axons {
		out[i] = f.responses[a.UID]
	}
	if f.answered != nil {
		f.answered()
	}
	return out
}

type fakeKami struct {
	kami.KamiInterface
	mu        sync.Mutex
	metagraph kami.SubnetMetagraph
	block     int
	weights   []kami.SetWeightsParams
	failSet   bool
}

func (f *fakeKami) GetKeyringPair() (kami.KeyringPairInfoResponse, error) {
	return kami.KeyringPairInfoResponse{Success: true, Data: kami.KeyringPairInfo{KeyringPair: kami.KeyringPair{Address: "self"}}}, nil
}

func (f *fakeKami) GetLatestBlock() (kami.LatestBlockResponse, error) {
	return kami.LatestBlockResponse{Success: true, Data: kami.LatestBlock{BlockNumber: f.block}}, nil
}

func (f *fakeKami) GetMetagraph(netuid int) (kami.SubnetMetagraphResponse, error) {
	return kami.SubnetMetagraphResponse{Success: true, Data: f.metagraph}, nil
}

func (f *fakeKami) SetWeights(params kami.SetWeightsParams) (kami.ExtrinsicHashResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet {
		return kami.ExtrinsicHashResponse{}, errors.New("chain unavailable")
	}
	f.weights = append(f.weights, params)
	return kami.ExtrinsicHashResponse{Success: true, Data: "0xfeed"}, nil
}

type fakeRedis struct {
	mu     sync.Mutex
	values map[string]string
	lists  map[string][]string
	counts map[string]int64
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, lists: map[string][]string{}, counts: map[string]int64{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], nil
}

func (f *fakeRedis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeRedis) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeRedis) PushCapped(ctx context.Context, key, value string, maxLen int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := append([]string{value}, f.lists[key]...)
	if int64(len(l)) > maxLen {
		l = l[:maxLen]
	}
	f.lists[key] = l
	return nil
}

func (f *fakeRedis) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.lists[key]
	if stop < 0 || stop >= int64(len(l)) {
		stop = int64(len(l)) - 1
	}
	if start > stop {
		return []string{}, nil
	}
	return append([]string(nil), l[start:stop+1]...), nil
}

func (f *fakeRedis) Close() {}

// writeImage writes a PNG with a colored left half and a gray right half.
func writeImage(t *testing.T, dir, name string, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if x < 32 {
				img.Set(x, y, c)
			} else {
				img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
			}
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// roundMetagraph has the validator at uid 0 and three miners at uids 1-3.
func roundMetagraph() kami.SubnetMetagraph {
	axon := func(ip string) kami.AxonInfo { return kami.AxonInfo{IP: ip, Port: 8091} }
	return kami.SubnetMetagraph{
		Netuid:           98,
		Hotkeys:          []string{"self", "m1", "m2", "m3"},
		Coldkeys:         []string{"c0", "c1", "c2", "c3"},
		Axons:            []kami.AxonInfo{axon("10.0.0.1"), axon("10.0.0.2"), axon("10.0.0.3"), axon("10.0.0.4")},
		ValidatorPermit:  []bool{true, false, false, false},
		AlphaStake:       []float64{50000, 10, 10, 10},
		TaoStake:         []float64{0, 0, 0, 0},
		TotalStake:       []float64{50000, 10, 10, 10},
		LastUpdate:       []int{0, 0, 0, 0},
		WeightsRateLimit: 0,
	}
}
