// Package imageio fetches images from URLs or the filesystem and normalizes
// them to 3-channel RGB.
package imageio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

var (
	ErrNetwork = errors.New("image fetch failed")
	ErrIO      = errors.New("image read failed")
	ErrDecode  = errors.New("image decode failed")
)

const DefaultFetchTimeout = 10 * time.Second

// Loader fetches image bytes and decodes them. It keeps no cache; every call
// hits the source again.
type Loader struct {
	client *resty.Client
}

func NewLoader(timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Loader{
		client: resty.New().SetTimeout(timeout),
	}
}

// IsURL reports whether src is fetched over HTTP rather than read from disk.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Fetch returns the raw bytes at src.
func (l *Loader) Fetch(ctx context.Context, src string) ([]byte, error) {
	if !IsURL(src) {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrIO, src, err)
		}
		return data, nil
	}

	resp, err := l.client.R().
		SetContext(ctx).
		Get(src)
	if err != nil {
		log.Debug().Err(err).Str("url", src).Msg("image request failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrNetwork, src, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrNetwork, src, resp.StatusCode())
	}
	return resp.Body(), nil
}

// Load fetches src and returns it as an opaque RGB image.
func (l *Loader) Load(ctx context.Context, src string) (image.Image, error) {
	data, err := l.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}
	return img, nil
}

// Decode decodes JPEG, PNG, GIF or WebP bytes into RGB.
func Decode(data []byte) (*image.RGBA, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	log.Trace().Str("format", format).Int("bytes", len(data)).Msg("decoded image")
	return ToRGB(img), nil
}

// ToRGB drops the alpha channel: every pixel of the result is opaque and
// carries the source's straight (non-premultiplied) colour.
func ToRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			i := out.PixOffset(x-b.Min.X, y-b.Min.Y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = c.R, c.G, c.B, 0xff
		}
	}
	return out
}
