package producer

import (
	"context"
	"image"

	"github.com/owlcode-mcp/text-to-video/internal/probe"
)

// Params carries everything a generative backend needs to render one clip.
// The producer derives precision and memory flags from the capability
// profile; the backend treats them as hints.
type Params struct {
	Prompt         string
	NumFrames      int
	Width          int
	Height         int
	FPS            int
	Seed           int64
	GuidanceScale  float64
	InferenceSteps int
	Precision      probe.Precision
	// LowMemory asks the backend to trade speed for footprint (attention
	// slicing, CPU offload of idle submodules).
	LowMemory bool
}

// Generator is the opaque model boundary: a thing that takes rendering
// parameters and returns frames. Implementations may take minutes per call
// and are invoked exactly once per request.
type Generator interface {
	Generate(ctx context.Context, params Params) ([]image.Image, error)
}

// Encoder turns a frame sequence into a playable container file at path.
type Encoder interface {
	Encode(ctx context.Context, frames []image.Image, fps int, path string) error
}
