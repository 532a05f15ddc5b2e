package synapse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tensorplex-labs/reprompt/internal/config"
	"github.com/tensorplex-labs/reprompt/pkg/signature"
)

const DefaultMaxConcurrent = 64

// NewClient creates a signing synapse client. maxConcurrent bounds the
// number of in-flight requests of a single Query.
func NewClient(signer signature.SignatureProvider, cfg *config.ClientEnvConfig, maxConcurrent int) (*Client, error) {
	if signer == nil {
		return nil, fmt.Errorf("signature provider is required")
	}
	timeout := 10 * time.Second
	if cfg != nil && cfg.ClientTimeout > 0 {
		timeout = cfg.ClientTimeout
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	rest := resty.New().
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	return &Client{
		signer:        signer,
		timeout:       timeout,
		maxConcurrent: maxConcurrent,
		rest:          rest,
		encoder:       encoder,
		decoder:       decoder,
	}, nil
}

func (c *Client) Close() {
	c.encoder.Close()
	c.decoder.Close()
}

func (c *Client) Timeout() time.Duration {
	return c.timeout
}

func (c *Client) headers() (map[string]string, error) {
	message, sig, err := signature.SignRequest(c.signer, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	return map[string]string{
		"Content-Type":     "application/json",
		"Accept-Encoding":  "zstd",
		"Content-Encoding": "zstd",
		SignatureHeader:    sig,
		MessageHeader:      message,
		HotkeyHeader:       c.signer.Hotkey(),
	}, nil
}

// Send posts req to one axon and returns the decoded response body.
func Send[T any](ctx context.Context, c *Client, axon Axon, req T, timeout time.Duration) (*T, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	headers, err := c.headers()
	if err != nil {
		return nil, err
	}

	payload, err := sonic.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(axon.URL(), "/") + "/" + RouteName[T]()
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(c.encoder.EncodeAll(payload, nil)).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	body := resp.Body()
	if strings.EqualFold(resp.Header().Get("Content-Encoding"), "zstd") {
		body, err = c.decoder.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress response: %w", err)
		}
	}

	var envelope StdResponse[T]
	if err := sonic.Unmarshal(body, &envelope); err != nil {
		if resp.IsError() {
			return nil, fmt.Errorf("HTTP error %d: %s", resp.StatusCode(), string(body))
		}
		return nil, fmt.Errorf("failed to unmarshal StdResponse: %w", err)
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("server error %d: %s", resp.StatusCode(), *envelope.Error)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("HTTP error %d", resp.StatusCode())
	}
	return &envelope.Body, nil
}

// Query sends req to every axon concurrently. The result is aligned with
// axons; any failure leaves nil at that position.
func Query[T any](ctx context.Context, c *Client, axons []Axon, req T, timeout time.Duration) []*T {
	results := make([]*T, len(axons))

	var g errgroup.Group
	g.SetLimit(c.maxConcurrent)
	for i, axon := range axons {
		g.Go(func() error {
			resp, err := Send(ctx, c, axon, req, timeout)
			if err != nil {
				log.Debug().Err(err).Int("uid", axon.UID).Str("hotkey", axon.Hotkey).Msg("Synapse query failed")
				return nil
			}
			results[i] = resp
			return nil
		})
	}
	_ = g.Wait()
	return results
}
