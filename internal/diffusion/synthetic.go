package diffusion

import (
	"context"
	"crypto/sha256"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/owlcode-mcp/text-to-video/internal/producer"
)

// Synthetic renders deterministic placeholder frames without any model
// backend. It keeps the pipeline (encoding, atomic publish, catalog, upload)
// fully exercisable on hosts where no diffusion server is configured, and it
// is what the test suite substitutes for the real model.
type Synthetic struct{}

// NewSynthetic returns the synthetic frame generator.
func NewSynthetic() *Synthetic {
	return &Synthetic{}
}

// Generate renders params.NumFrames gradient frames seeded by prompt and
// seed. Identical params always yield identical frames.
func (s *Synthetic) Generate(ctx context.Context, params producer.Params) ([]image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.NumFrames <= 0 {
		return nil, fmt.Errorf("diffusion: num_frames must be positive")
	}

	width, height := params.Width, params.Height
	if width <= 0 {
		width = 720
	}
	if height <= 0 {
		height = 480
	}

	base := seedColor(params.Prompt, params.Seed, 0)
	accent := seedColor(params.Prompt, params.Seed, 1)

	frames := make([]image.Image, params.NumFrames)
	for i := range frames {
		frames[i] = renderFrame(width, height, base, accent, i, params.NumFrames)
	}
	return frames, nil
}

// renderFrame draws a vertical gradient between the two seed colors with a
// band that drifts across the image over the clip, so the output is visibly
// a moving video rather than a still.
func renderFrame(width, height int, base, accent color.RGBA, index, total int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	phase := float64(index) / float64(total)
	bandCenter := int(phase * float64(height))
	bandHalf := height / 10
	if bandHalf < 4 {
		bandHalf = 4
	}

	for y := bandCenter - bandHalf; y <= bandCenter+bandHalf; y++ {
		if y < 0 || y >= height {
			continue
		}
		fade := 1 - math.Abs(float64(y-bandCenter))/float64(bandHalf)
		c := blend(base, accent, fade)
		band := image.Rect(0, y, width, y+1)
		draw.Draw(img, band, &image.Uniform{c}, image.Point{}, draw.Src)
	}
	return img
}

func seedColor(prompt string, seed int64, salt int) color.RGBA {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", prompt, seed, salt)))
	return color.RGBA{R: sum[0], G: sum[1], B: sum[2], A: 255}
}

func blend(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x)*(1-t) + float64(y)*t)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

var _ producer.Generator = (*Synthetic)(nil)
