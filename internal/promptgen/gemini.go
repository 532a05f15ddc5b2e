// Package promptgen turns an image into a text prompt that could regenerate
// it, using the Gemini generateContent REST API.
package promptgen

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/config"
)

// ImageFetcher returns the raw bytes of an image URL or path.
type ImageFetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

type Gemini struct {
	client   *resty.Client
	fetcher  ImageFetcher
	apiKey   string
	model    string
	maxWords int
}

var _ GeneratorInterface = (*Gemini)(nil)

func NewGemini(cfg *config.GeminiEnvConfig, fetcher ImageFetcher) (*Gemini, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("image fetcher cannot be nil")
	}

	model := cfg.GeminiModel
	if model == "" {
		model = DefaultModel
	}
	maxWords := cfg.PromptMaxWords
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.GeminiAPIURL, "/")).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetTimeout(cfg.GeminiTimeout)

	return &Gemini{
		client:   client,
		fetcher:  fetcher,
		apiKey:   cfg.GeminiAPIKey,
		model:    model,
		maxWords: maxWords,
	}, nil
}

// GeneratePrompt describes the image at source. The API key is checked
// before anything touches the network, including the image fetch.
func (g *Gemini) GeneratePrompt(ctx context.Context, source string) (string, error) {
	if g.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	data, err := g.fetcher.Fetch(ctx, source)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	return g.DescribeImage(ctx, data)
}

// DescribeImage sends the image followed by Instruction and returns the
// first candidate's text capped at the configured word limit.
func (g *Gemini) DescribeImage(ctx context.Context, image []byte) (string, error) {
	if g.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrProvider)
	}

	body := generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &inlineData{MimeType: mimeTypeOf(image), Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: Instruction},
			},
		}},
	}

	var result generateContentResponse
	var apiErr apiError
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", g.apiKey).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.model))
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %w", ErrProvider, err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Str("message", apiErr.Error.Message).Msg("gemini request failed")
		return "", fmt.Errorf("%w: status %d: %s", ErrProvider, resp.StatusCode(), apiErr.Error.Message)
	}

	text := firstText(result)
	if text == "" {
		reason := result.PromptFeedback.BlockReason
		if reason == "" && len(result.Candidates) > 0 {
			reason = result.Candidates[0].FinishReason
		}
		return "", fmt.Errorf("%w: empty response (reason %q)", ErrProvider, reason)
	}
	return LimitWords(text, g.maxWords), nil
}

func firstText(r generateContentResponse) string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

// LimitWords collapses whitespace and keeps at most n words.
func LimitWords(text string, n int) string {
	words := strings.Fields(text)
	if n > 0 && len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

func mimeTypeOf(data []byte) string {
	mt := http.DetectContentType(data)
	if strings.HasPrefix(mt, "image/") {
		return mt
	}
	return defaultMIMEType
}
