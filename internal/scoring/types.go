package scoring

import (
	"context"
	"errors"
	"image"
)

var ErrScoring = errors.New("similarity scoring failed")

// ImageLoader resolves a URL or path to an RGB image.
type ImageLoader interface {
	Load(ctx context.Context, src string) (image.Image, error)
}

// Embedder maps images to semantic embedding vectors, one per input, in order.
type Embedder interface {
	EmbedImages(ctx context.Context, imgs ...image.Image) ([][]float64, error)
}

// PerceptualMetric returns a perceptual distance where 0 means identical.
type PerceptualMetric interface {
	Distance(ctx context.Context, a, b image.Image) (float64, error)
}

type Params struct {
	SemanticWeight   float64
	PerceptualWeight float64
	Exponent         float64
	MinReward        float64
	MaxReward        float64
	PerceptualSize   int
}

// Similarity holds every intermediate score of one comparison.
type Similarity struct {
	Cosine             float64 `json:"cosine"`
	Semantic           float64 `json:"semantic"`
	PerceptualDistance float64 `json:"perceptualDistance"`
	Perceptual         float64 `json:"perceptual"`
	Combined           float64 `json:"combined"`
	Reward             float64 `json:"reward"`
}
