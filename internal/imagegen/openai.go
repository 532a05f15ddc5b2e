// Package imagegen synthesizes images from text prompts with the OpenAI
// images API.
package imagegen

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/config"
)

type OpenAI struct {
	client *resty.Client
	apiKey string
	model  string
	size   string
}

var _ SynthesizerInterface = (*OpenAI)(nil)

func NewOpenAI(cfg *config.OpenAIEnvConfig) (*OpenAI, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	model := cfg.OpenAIImageModel
	if model == "" {
		model = DefaultModel
	}
	size := cfg.OpenAIImageSize
	if size == "" {
		size = DefaultSize
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.OpenAIAPIURL, "/")).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetTimeout(cfg.OpenAITimeout)

	return &OpenAI{client: client, apiKey: cfg.OpenAIAPIKey, model: model, size: size}, nil
}

// GenerateImage requests one image for prompt and returns its URL. The key
// is checked per call so a validator can start without it.
func (o *OpenAI) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if o.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt", ErrProvider)
	}

	var result generationResponse
	var apiErr apiError
	resp, err := o.client.R().
		SetContext(ctx).
		SetAuthToken(o.apiKey).
		SetBody(generationRequest{
			Model:          o.model,
			Prompt:         prompt,
			N:              1,
			Size:           o.size,
			ResponseFormat: "url",
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/v1/images/generations")
	if err != nil {
		return "", fmt.Errorf("%w: images/generations: %w", ErrProvider, err)
	}
	if resp.IsError() {
		log.Error().
			Int("status", resp.StatusCode()).
			Str("type", apiErr.Error.Type).
			Str("message", apiErr.Error.Message).
			Msg("openai image generation failed")
		return "", fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode(), apiErr.Error.Message)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return "", fmt.Errorf("%w: response carried no image url", ErrProvider)
	}
	return result.Data[0].URL, nil
}
