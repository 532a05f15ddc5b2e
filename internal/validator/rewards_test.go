package validator

import (
	"context"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tensorplex-labs/reprompt/internal/imageio"
	"github.com/tensorplex-labs/reprompt/internal/scoring"
)

func strPtr(s string) *string { return &s }

func TestNewRewardAggregator_Validation(t *testing.T) {
	_, err := NewRewardAggregator(nil, &fakeScorer{}, 1)
	assert.Error(t, err)
	_, err = NewRewardAggregator(&fakeSynth{}, nil, 1)
	assert.Error(t, err)

	a, err := NewRewardAggregator(&fakeSynth{}, &fakeScorer{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, a.workers)
}

func TestCompute_MissingResponsesScoreZero(t *testing.T) {
	synth := &fakeSynth{images: map[string]string{"a cat": "cat.png"}}
	a, err := NewRewardAggregator(synth, &fakeScorer{rewards: map[string]float64{"cat.png": 0.8}}, 2)
	require.NoError(t, err)

	rewards := a.Compute(context.Background(), "ref.png", []int{4, 7, 9}, []*string{nil, strPtr("a cat"), strPtr("   ")})
	assert.Equal(t, map[int]float64{4: 0, 7: 0.8, 9: 0}, rewards)
	assert.Equal(t, []string{"a cat"}, synth.prompts, "blank and missing outputs are not synthesized")
}

func TestCompute_ShortOutputsSlice(t *testing.T) {
	a, err := NewRewardAggregator(&fakeSynth{}, &fakeScorer{}, 1)
	require.NoError(t, err)

	rewards := a.Compute(context.Background(), "ref.png", []int{1, 2}, nil)
	assert.Equal(t, map[int]float64{1: 0, 2: 0}, rewards)
}

func TestCompute_SynthesisErrorAndPanicScoreZero(t *testing.T) {
	synth := &fakeSynth{images: map[string]string{"ok": "ok.png", "boom": "boom.png"}}
	scorer := &fakeScorer{rewards: map[string]float64{"ok.png": 0.5}, panicOn: "boom.png"}
	a, err := NewRewardAggregator(synth, scorer, 3)
	require.NoError(t, err)

	rewards := a.Compute(context.Background(), "ref.png", []int{0, 1, 2},
		[]*string{strPtr("ok"), strPtr("boom"), strPtr("unknown prompt")})
	assert.Equal(t, map[int]float64{0: 0.5, 1: 0, 2: 0}, rewards)
}

func TestCompute_CancelledContext(t *testing.T) {
	synth := &fakeSynth{images: map[string]string{"ok": "ok.png"}}
	a, err := NewRewardAggregator(synth, &fakeScorer{rewards: map[string]float64{"ok.png": 1}}, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rewards := a.Compute(ctx, "ref.png", []int{3}, []*string{strPtr("ok")})
	assert.Equal(t, map[int]float64{3: 0}, rewards)
	assert.Empty(t, synth.prompts)
}

// Three peers: no response, a good prompt, and a prompt whose synthesis
// fails. Scored with the in-process back ends on real images.
func TestCompute_ThreePeerScenario(t *testing.T) {
	dir := t.TempDir()
	ref := writeImage(t, dir, "ref.png", color.RGBA{R: 200, G: 20, B: 20, A: 255})
	cand := writeImage(t, dir, "apple.png", color.RGBA{R: 190, G: 40, B: 30, A: 255})

	synth := &fakeSynth{images: map[string]string{"a red apple": cand}}
	scorer, err := scoring.NewSimilarityScorer(imageio.NewLoader(time.Second), scoring.NewHistogramEmbedder(), scoring.NewPyramidPerceptual())
	require.NoError(t, err)
	a, err := NewRewardAggregator(synth, scorer, 1)
	require.NoError(t, err)

	uids := []int{1, 2, 3}
	rewards, replaced := Sanitize(a.Compute(context.Background(), ref, uids,
		[]*string{nil, strPtr("a red apple"), strPtr("synthesis will fail")}), uids)

	assert.Zero(t, replaced)
	require.Len(t, rewards, 3)
	assert.Equal(t, 0.0, rewards[0])
	assert.Greater(t, rewards[1], 0.0)
	assert.LessOrEqual(t, rewards[1], 1.0)
	assert.GreaterOrEqual(t, rewards[1], 1e-4)
	assert.Equal(t, 0.0, rewards[2])
}

func TestCompute_IdenticalImagesRewardOne(t *testing.T) {
	dir := t.TempDir()
	ref := writeImage(t, dir, "ref.png", color.RGBA{R: 10, G: 200, B: 90, A: 255})

	synth := &fakeSynth{images: map[string]string{"same": ref}}
	scorer, err := scoring.NewSimilarityScorer(imageio.NewLoader(time.Second), scoring.NewHistogramEmbedder(), scoring.NewPyramidPerceptual())
	require.NoError(t, err)
	a, err := NewRewardAggregator(synth, scorer, 1)
	require.NoError(t, err)

	rewards := a.Compute(context.Background(), ref, []int{5}, []*string{strPtr("same")})
	assert.InDelta(t, 1.0, rewards[5], 1e-9)
}

func TestSanitize(t *testing.T) {
	rewards := map[int]float64{
		1: 0.3,
		2: math.NaN(),
		3: math.Inf(1),
		4: math.Inf(-1),
	}
	dense, replaced := Sanitize(rewards, []int{4, 1, 2, 3, 9})
	assert.Equal(t, []float64{0, 0.3, 0, 0, 0}, dense)
	assert.Equal(t, 3, replaced)

	dense, replaced = Sanitize(nil, nil)
	assert.Empty(t, dense)
	assert.Zero(t, replaced)
}
