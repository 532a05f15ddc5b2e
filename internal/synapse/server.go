package synapse

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/internal/config"
	"github.com/tensorplex-labs/reprompt/internal/metrics"
	"github.com/tensorplex-labs/reprompt/pkg/signature"
)

type ServerOption func(*Server)

// WithMetrics records per-route request metrics and mounts GET /metrics.
func WithMetrics(collector *metrics.Collector) ServerOption {
	return func(s *Server) {
		s.metrics = collector
	}
}

// NewServer creates the axon server. Signed routes registered with
// ServeRoute pass through zstd, signature, blacklist and priority checks.
func NewServer(cfg *config.ServerEnvConfig, verifier signature.SignatureVerifier, opts ...ServerOption) *Server {
	if cfg == nil {
		cfg = &config.ServerEnvConfig{Address: "0.0.0.0", Port: 8080, MaxConcurrent: 1}
	}
	if verifier == nil {
		verifier = signature.NewVerifier()
	}
	bodyLimit := cfg.BodySizeLimit
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		Prefork:               false,
		DisableStartupMessage: true,
		ErrorHandler:          fiberErrHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		BodyLimit:             bodyLimit,
	})

	s := &Server{
		App:      app,
		config:   cfg,
		gate:     NewPriorityGate(cfg.MaxConcurrent),
		verifier: verifier,
	}
	for _, opt := range opts {
		opt(s)
	}

	app.Use(recover.New())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		// zstd callers are served by ZstdMiddleware
		Next: func(c *fiber.Ctx) bool {
			return strings.Contains(strings.ToLower(c.Get(fiber.HeaderAcceptEncoding)), "zstd")
		},
	}))
	app.Use(ZstdMiddleware(whitelistedRoutes))
	app.Use(SignatureMiddleware(verifier, cfg.MaxClockSkew, whitelistedRoutes))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(createResponse(map[string]any{"status": "ok"}, nil))
	})
	if s.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	log.Info().
		Str("address", cfg.Address).
		Int("port", cfg.Port).
		Int("max_concurrent", cfg.MaxConcurrent).
		Dur("max_clock_skew", cfg.MaxClockSkew).
		Msg("Axon server configured")

	return s
}

func fiberErrHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	log.Error().
		Err(err).
		Int("status_code", code).
		Str("path", ctx.Path()).
		Str("method", ctx.Method()).
		Msg("Fiber error handler triggered")

	return ctx.Status(code).JSON(createResponse(map[string]any{}, err))
}

// RouteName is the path segment a synapse type is served under.
func RouteName[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// ServeRoute registers POST /<TypeName> for handler.
func ServeRoute[T any](s *Server, handler Handler[T]) {
	name := RouteName[T]()
	route := "/" + name

	s.App.Post(route, func(c *fiber.Ctx) error {
		start := time.Now()
		status := fiber.StatusOK
		defer func() {
			s.metrics.RequestHandled(name, status, time.Since(start))
		}()

		var zero T
		caller := CallerFromCtx(c)

		if reject, reason := handler.ShouldReject(caller); reject {
			status = fiber.StatusForbidden
			log.Debug().Str("hotkey", caller.Hotkey).Str("reason", reason).Str("route", route).Msg("Blacklisted request")
			return c.Status(status).JSON(createResponse(zero, fmt.Errorf("blacklisted: %s", reason)))
		}

		priority := handler.PriorityOf(caller)
		if err := s.gate.Acquire(c.UserContext(), priority); err != nil {
			status = fiber.StatusServiceUnavailable
			return c.Status(status).JSON(createResponse(zero, err))
		}
		defer s.gate.Release()

		var req T
		if err := c.BodyParser(&req); err != nil {
			status = fiber.StatusBadRequest
			log.Error().Err(err).Str("route", route).Msg("Failed to parse request body")
			return c.Status(status).JSON(createResponse(zero, err))
		}

		resp, err := handler.HandleRequest(c.UserContext(), caller, req)
		if err != nil {
			status = fiber.StatusInternalServerError
			log.Error().Err(err).Str("route", route).Str("hotkey", caller.Hotkey).Msg("Handler returned error")
			return c.Status(status).JSON(createResponse(zero, err))
		}

		return c.JSON(createResponse(resp, nil))
	})
}

func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)
}

// Start listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr()).Msg("Axon server listening")
		errCh <- s.App.Listen(s.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.App.ShutdownWithTimeout(10 * time.Second); err != nil {
			return fmt.Errorf("failed to shut down axon server: %w", err)
		}
		return nil
	}
}
