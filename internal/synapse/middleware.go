package synapse

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/reprompt/pkg/signature"
)

func isWhitelisted(path string, whitelist []string) bool {
	return slices.Contains(whitelist, path)
}

// ZstdMiddleware decompresses zstd request bodies and compresses responses
// for callers that accept zstd. Whitelisted routes are passed through.
func ZstdMiddleware(whitelist []string) fiber.Handler {
	if whitelist == nil {
		whitelist = whitelistedRoutes
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("zstd decoder: %v", err))
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic(fmt.Sprintf("zstd encoder: %v", err))
	}

	return func(c *fiber.Ctx) error {
		if isWhitelisted(c.Path(), whitelist) {
			return c.Next()
		}

		if strings.EqualFold(c.Get(fiber.HeaderContentEncoding), "zstd") {
			if body := c.Body(); len(body) > 0 {
				decompressed, err := decoder.DecodeAll(body, nil)
				if err != nil {
					log.Debug().Err(err).Str("path", c.Path()).Msg("Failed to decompress request")
					return c.Status(fiber.StatusBadRequest).JSON(
						createResponse(map[string]any{}, fmt.Errorf("failed to decompress zstd data: %w", err)))
				}
				c.Request().SetBody(decompressed)
				c.Request().Header.Del(fiber.HeaderContentEncoding)
			}
		}

		if err := c.Next(); err != nil {
			return err
		}

		if strings.Contains(strings.ToLower(c.Get(fiber.HeaderAcceptEncoding)), "zstd") {
			if body := c.Response().Body(); len(body) > 0 {
				compressed := encoder.EncodeAll(body, nil)
				c.Response().SetBodyRaw(compressed)
				c.Set(fiber.HeaderContentEncoding, "zstd")
				c.Set(fiber.HeaderContentLength, strconv.Itoa(len(compressed)))
			}
		}
		return nil
	}
}

// SignatureMiddleware verifies the x-hotkey / x-signature / x-message triple
// and the freshness of the message, then stores the Caller in the context.
// A message is accepted once per hotkey; replays get 401.
func SignatureMiddleware(verifier signature.SignatureVerifier, maxSkew time.Duration, whitelist []string) fiber.Handler {
	if whitelist == nil {
		whitelist = whitelistedRoutes
	}
	nonces := newNonceGuard(DefaultNonceCacheSize, nonceTTL(maxSkew))

	return func(c *fiber.Ctx) error {
		if isWhitelisted(c.Path(), whitelist) {
			return c.Next()
		}

		caller := Caller{
			Hotkey:    c.Get(HotkeyHeader),
			Signature: c.Get(SignatureHeader),
			Message:   c.Get(MessageHeader),
		}

		if caller.Hotkey == "" || caller.Signature == "" || caller.Message == "" {
			return c.Status(fiber.StatusBadRequest).JSON(createResponse(map[string]any{},
				fmt.Errorf("%s, missing headers, expected: %s, %s, %s",
					http.StatusText(http.StatusBadRequest), SignatureHeader, HotkeyHeader, MessageHeader)))
		}

		nonce, _, err := signature.ParseRequestMessage(caller.Message, time.Now(), maxSkew)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(createResponse(map[string]any{}, err))
		}

		ok, err := verifier.Verify(caller.Message, caller.Signature, caller.Hotkey)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(createResponse(map[string]any{},
				fmt.Errorf("signature verification error: %w", err)))
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(createResponse(map[string]any{},
				fmt.Errorf("%s due to invalid signature", http.StatusText(http.StatusForbidden))))
		}

		// only verified signers take a slot
		if !nonces.claim(caller.Hotkey, nonce) {
			log.Warn().Str("hotkey", caller.Hotkey).Str("path", c.Path()).Msg("Rejected replayed request")
			return c.Status(fiber.StatusUnauthorized).JSON(createResponse(map[string]any{}, ErrReplayedMessage))
		}

		log.Trace().Str("hotkey", caller.Hotkey).Str("path", c.Path()).Msg("Verified signature")
		c.Locals(callerLocalsKey, caller)
		return c.Next()
	}
}
