// Package producer orchestrates a single generation request: it derives the
// rendering parameters from the validated plan and the host capability
// profile, invokes the generative backend exactly once, encodes the frames
// into a container, and publishes the artifact atomically.
package producer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/owlcode-mcp/text-to-video/internal/infra"
	"github.com/owlcode-mcp/text-to-video/internal/plan"
	"github.com/owlcode-mcp/text-to-video/internal/probe"
)

const (
	// defaultSeed keeps generation reproducible across runs of the same prompt.
	defaultSeed           = 42
	defaultGuidanceScale  = 6.0
	defaultInferenceSteps = 50

	partialSuffix = ".partial"
)

// Options configures a Producer.
type Options struct {
	Generator Generator
	Encoder   Encoder
	// MaxFrames caps duration*fps so a pathological request cannot tie up
	// the host for hours. Zero means DefaultMaxFrames.
	MaxFrames int
	Logger    *infra.Logger
}

// DefaultMaxFrames is the frame-budget ceiling applied when the caller does
// not configure one. At the default 8 fps this allows 3m45s of output.
const DefaultMaxFrames = 1800

// Producer coordinates generation, encoding, and atomic publication.
type Producer struct {
	gen       Generator
	enc       Encoder
	maxFrames int
	logger    infra.Logger
	now       func() time.Time
}

// New constructs a Producer.
func New(opts Options) (*Producer, error) {
	if opts.Generator == nil {
		return nil, errors.New("producer: generator is required")
	}
	if opts.Encoder == nil {
		return nil, errors.New("producer: encoder is required")
	}
	maxFrames := opts.MaxFrames
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	var logger infra.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Producer{
		gen:       opts.Generator,
		enc:       opts.Encoder,
		maxFrames: maxFrames,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Produce runs one generation request end to end and returns the published
// artifact. The frame budget is checked before the generator is ever
// touched; the generator is invoked exactly once and never retried. The
// output file becomes visible under its final name only after encoding
// completed, so a concurrent "pick the most recent file" reader can never
// observe a truncated artifact.
func (p *Producer) Produce(ctx context.Context, req *plan.Request, profile probe.Profile) (*Artifact, error) {
	frameCount := req.FrameCount()
	if frameCount > p.maxFrames {
		return nil, &plan.ResourceConstraintError{
			Reason: fmt.Sprintf("request needs %d frames (%ds at %d fps) which exceeds the ceiling of %d; shorten the duration or lower the fps",
				frameCount, req.DurationSeconds, req.FPS, p.maxFrames),
		}
	}

	clipFrames := frameCount
	if req.Model.ClipFrames > 0 && clipFrames > req.Model.ClipFrames {
		clipFrames = req.Model.ClipFrames
	}

	params := Params{
		Prompt:         req.Prompt,
		NumFrames:      clipFrames,
		Width:          req.Resolution.Width,
		Height:         req.Resolution.Height,
		FPS:            req.FPS,
		Seed:           defaultSeed,
		GuidanceScale:  defaultGuidanceScale,
		InferenceSteps: defaultInferenceSteps,
		Precision:      profile.Precision,
		LowMemory:      profile.LowMemory(req.Model.MinMemoryBytes),
	}

	p.logger.Info().
		Str("model", req.Model.ID).
		Str("backend", string(profile.Backend)).
		Int("clip_frames", clipFrames).
		Int("target_frames", frameCount).
		Bool("low_memory", params.LowMemory).
		Msg("producer: generating clip")

	start := p.now()
	frames, err := p.gen.Generate(ctx, params)
	if err != nil {
		var exhausted *BackendExhaustedError
		if errors.As(err, &exhausted) {
			return nil, err
		}
		return nil, fmt.Errorf("generate frames: %w", err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("generate frames: backend returned no frames")
	}
	p.logger.Info().
		Int("frames", len(frames)).
		Dur("elapsed", p.now().Sub(start)).
		Msg("producer: clip generated")

	frames = extendFrames(frames, frameCount)

	finalPath, err := p.resolveOutputPath(req)
	if err != nil {
		return nil, err
	}

	tmpPath := finalPath + partialSuffix
	if err := p.enc.Encode(ctx, frames, req.FPS, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return nil, &EncodingError{Cause: err}
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return nil, &EncodingError{Cause: fmt.Errorf("publish artifact: %w", err)}
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}
	checksum, err := fileSHA256(finalPath)
	if err != nil {
		return nil, fmt.Errorf("checksum artifact: %w", err)
	}

	artifact := &Artifact{
		Path:            finalPath,
		FrameCount:      len(frames),
		DurationSeconds: float64(len(frames)) / float64(req.FPS),
		Width:           req.Resolution.Width,
		Height:          req.Resolution.Height,
		SizeBytes:       info.Size(),
		SHA256:          checksum,
		CreatedAt:       p.now(),
	}

	p.logger.Info().
		Str("path", artifact.Path).
		Int64("size_bytes", artifact.SizeBytes).
		Msg("producer: artifact published")

	return artifact, nil
}

// resolveOutputPath ensures the output directory exists and returns the
// absolute final path for the artifact. Generated names embed a timestamp so
// a "most recent artifact" scan selects deterministically.
func (p *Producer) resolveOutputPath(req *plan.Request) (string, error) {
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure output directory: %w", err)
	}

	name := req.OutputName
	if name == "" {
		name = fmt.Sprintf("video_%s.mp4", p.now().Format("20060102_150405"))
	}

	path := filepath.Join(req.OutputDir, name)
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	return abs, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
