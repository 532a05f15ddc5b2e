package scoring

import (
	"context"
	"fmt"
	"image"

	"gonum.org/v1/gonum/floats"
)

// HistogramEmbedder is an in-process stand-in for a vision encoder: it
// embeds an image as per-cell colour histograms over a Grid×Grid layout.
// Used with SCORING_BACKEND=local and in tests.
type HistogramEmbedder struct {
	Grid int
	Bins int
}

func NewHistogramEmbedder() *HistogramEmbedder {
	return &HistogramEmbedder{Grid: 2, Bins: 4}
}

const histogramSampleSize = 64

func (h *HistogramEmbedder) EmbedImages(ctx context.Context, imgs ...image.Image) ([][]float64, error) {
	out := make([][]float64, 0, len(imgs))
	for i, img := range imgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if img == nil || img.Bounds().Empty() {
			return nil, fmt.Errorf("image %d is empty", i)
		}
		out = append(out, h.embed(img))
	}
	return out, nil
}

func (h *HistogramEmbedder) embed(img image.Image) []float64 {
	grid, bins := max(h.Grid, 1), max(h.Bins, 1)
	perCell := bins * bins * bins
	vec := make([]float64, grid*grid*perCell)

	small := Resize(img, histogramSampleSize, histogramSampleSize)
	cell := histogramSampleSize / grid
	for y := 0; y < histogramSampleSize; y++ {
		for x := 0; x < histogramSampleSize; x++ {
			i := small.PixOffset(x, y)
			r := int(small.Pix[i]) * bins / 256
			g := int(small.Pix[i+1]) * bins / 256
			b := int(small.Pix[i+2]) * bins / 256
			cx, cy := min(x/cell, grid-1), min(y/cell, grid-1)
			vec[(cy*grid+cx)*perCell+(r*bins+g)*bins+b]++
		}
	}
	floats.Scale(1.0/float64(histogramSampleSize*histogramSampleSize), vec)
	return vec
}

// PyramidPerceptual approximates a learned perceptual distance with the mean
// absolute RGB difference averaged over an image pyramid. 0 means identical
// and the distance never exceeds 1.
type PyramidPerceptual struct {
	Levels int
}

func NewPyramidPerceptual() *PyramidPerceptual {
	return &PyramidPerceptual{Levels: 3}
}

func (p *PyramidPerceptual) Distance(ctx context.Context, a, b image.Image) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if a == nil || b == nil || a.Bounds().Empty() || b.Bounds().Empty() {
		return 0, fmt.Errorf("images must be non-empty")
	}

	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	levels := max(p.Levels, 1)
	var total float64
	used := 0
	for l := 0; l < levels; l++ {
		lw, lh := w>>l, h>>l
		if lw < 1 || lh < 1 {
			break
		}
		va, vb := rgbVector(Resize(a, lw, lh)), rgbVector(Resize(b, lw, lh))
		total += floats.Distance(va, vb, 1) / float64(len(va))
		used++
	}
	return total / float64(used), nil
}

func rgbVector(img *image.RGBA) []float64 {
	b := img.Bounds()
	vec := make([]float64, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := img.PixOffset(x, y)
			vec = append(vec, float64(img.Pix[i])/255, float64(img.Pix[i+1])/255, float64(img.Pix[i+2])/255)
		}
	}
	return vec
}
