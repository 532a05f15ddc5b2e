// Package inference talks to the model-serving sidecar that hosts the vision
// encoder and the learned perceptual metric used for scoring.
package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/config"
)

type InferenceInterface interface {
	EmbedImages(ctx context.Context, imgs ...image.Image) ([][]float64, error)
	Distance(ctx context.Context, a, b image.Image) (float64, error)
}

type Client struct {
	cfg    *config.ScoringEnvConfig
	client *resty.Client
}

var _ InferenceInterface = (*Client)(nil)

func NewClient(cfg *config.ScoringEnvConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if cfg.InferenceAPIURL == "" {
		return nil, fmt.Errorf("INFERENCE_API_URL is required for the remote scoring backend")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.InferenceAPIURL, "/")).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetTimeout(cfg.InferenceTimeout)

	return &Client{cfg: cfg, client: client}, nil
}

// EmbedImages returns one semantic embedding per image, in input order.
func (c *Client) EmbedImages(ctx context.Context, imgs ...image.Image) ([][]float64, error) {
	encoded := make([]string, len(imgs))
	for i, img := range imgs {
		s, err := EncodePNG(img)
		if err != nil {
			return nil, fmt.Errorf("encode image %d: %w", i, err)
		}
		encoded[i] = s
	}

	var out EmbedImagesResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(EmbedImagesRequest{Model: SemanticModel, Images: encoded}).
		SetResult(&out).
		Post("/embed-images")
	if err != nil {
		log.Error().Err(err).Msg("embed-images request failed")
		return nil, fmt.Errorf("embed images: %w", err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Msg("embed-images non-2xx")
		return nil, fmt.Errorf("embed-images status %d: %s", resp.StatusCode(), resp.String())
	}
	if !out.Success {
		return nil, fmt.Errorf("embed-images api returned success=false: %s", out.Error)
	}
	if len(out.Embeddings) != len(imgs) {
		return nil, fmt.Errorf("embed-images returned %d embeddings for %d images", len(out.Embeddings), len(imgs))
	}
	return out.Embeddings, nil
}

// Distance returns the perceptual distance between a and b.
func (c *Client) Distance(ctx context.Context, a, b image.Image) (float64, error) {
	ref, err := EncodePNG(a)
	if err != nil {
		return 0, fmt.Errorf("encode reference: %w", err)
	}
	cand, err := EncodePNG(b)
	if err != nil {
		return 0, fmt.Errorf("encode candidate: %w", err)
	}

	var out PerceptualDistanceResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(PerceptualDistanceRequest{Model: PerceptualModel, Reference: ref, Candidate: cand}).
		SetResult(&out).
		Post("/perceptual-distance")
	if err != nil {
		log.Error().Err(err).Msg("perceptual-distance request failed")
		return 0, fmt.Errorf("perceptual distance: %w", err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("body", resp.String()).Msg("perceptual-distance non-2xx")
		return 0, fmt.Errorf("perceptual-distance status %d: %s", resp.StatusCode(), resp.String())
	}
	if !out.Success {
		return 0, fmt.Errorf("perceptual-distance api returned success=false: %s", out.Error)
	}
	return out.Distance, nil
}

// EncodePNG returns img as base64-encoded PNG.
func EncodePNG(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
