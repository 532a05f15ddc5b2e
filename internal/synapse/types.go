// Package synapse is the request/response transport between validators and
// miners: a fiber server for the miner axon and a fan-out client for the
// validator.
package synapse

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/tensorplex-labs/reprompt/internal/config"
	"github.com/tensorplex-labs/reprompt/internal/metrics"
	"github.com/tensorplex-labs/reprompt/pkg/signature"
)

const (
	SignatureHeader string = "x-signature"
	HotkeyHeader    string = "x-hotkey"
	MessageHeader   string = "x-message"

	DefaultBodyLimit = 4 * 1024 * 1024

	callerLocalsKey = "synapse.caller"
)

var whitelistedRoutes = []string{"/health", "/metrics"}

// ReversePrompt asks a miner for a prompt that would regenerate the image at
// PathToImage. The miner fills Output.
type ReversePrompt struct {
	PathToImage string `json:"path_to_image"`
	Output      string `json:"output"`
}

// Caller identifies the signed sender of a request.
type Caller struct {
	Hotkey    string
	Message   string
	Signature string
}

// Handler is the capability a miner exposes for one synapse type.
type Handler[T any] interface {
	HandleRequest(ctx context.Context, caller Caller, req T) (T, error)
	ShouldReject(caller Caller) (bool, string)
	PriorityOf(caller Caller) float64
}

// StdResponse represents the standardized response structure
type StdResponse[T any] struct {
	Body  T       `json:"body"`
	Error *string `json:"error,omitempty"`
}

// Axon is a reachable miner endpoint.
type Axon struct {
	UID    int
	Hotkey string
	IP     string
	Port   int
}

func (a Axon) URL() string {
	return fmt.Sprintf("http://%s:%d", a.IP, a.Port)
}

type Server struct {
	App      *fiber.App
	config   *config.ServerEnvConfig
	gate     *PriorityGate
	verifier signature.SignatureVerifier
	metrics  *metrics.Collector
}

type Client struct {
	signer        signature.SignatureProvider
	timeout       time.Duration
	maxConcurrent int
	rest          *resty.Client
	encoder       *zstd.Encoder
	decoder       *zstd.Decoder
}

func createResponse[T any](body T, err error) StdResponse[T] {
	if err != nil {
		errMsg := err.Error()
		return StdResponse[T]{Body: body, Error: &errMsg}
	}
	return StdResponse[T]{Body: body}
}

// CallerFromCtx returns the verified caller stored by SignatureMiddleware.
func CallerFromCtx(c *fiber.Ctx) Caller {
	if caller, ok := c.Locals(callerLocalsKey).(Caller); ok {
		return caller
	}
	return Caller{}
}
