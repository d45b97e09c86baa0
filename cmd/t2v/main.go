// Command t2v generates a video from a text prompt and optionally uploads
// it to the configured FTP sink. The local artifact is always kept, whatever
// the upload outcome.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/owlcode-mcp/text-to-video/internal/catalog"
	"github.com/owlcode-mcp/text-to-video/internal/infra"
	"github.com/owlcode-mcp/text-to-video/internal/pipeline"
	"github.com/owlcode-mcp/text-to-video/internal/plan"
	"github.com/owlcode-mcp/text-to-video/internal/producer"
	"github.com/owlcode-mcp/text-to-video/internal/upload"
)

// Exit codes. Anything past successful generation leaves the artifact on
// disk, including a failed upload.
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitResource   = 3
	exitBackend    = 4
	exitEncoding   = 5
	exitUpload     = 6
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	logger := infra.NewLogger(cfg.AppEnv)

	var raw plan.RawRequest
	flag.StringVar(&raw.Prompt, "prompt", "", "text description of the video to generate (required)")
	flag.IntVar(&raw.Duration, "duration", cfg.Duration, "video duration in seconds")
	flag.StringVar(&raw.Resolution, "resolution", cfg.Resolution, "video resolution (480p, 720p, 1080p)")
	flag.StringVar(&raw.Model, "model", cfg.Model, "model to use (cogvideox-2b, cogvideox-5b)")
	flag.IntVar(&raw.FPS, "fps", cfg.FPS, "frames per second")
	flag.StringVar(&raw.OutputName, "output", "", "output filename (default: timestamped)")
	flag.StringVar(&raw.OutputDir, "output-dir", cfg.OutputDir, "output directory")
	flag.BoolVar(&raw.NoUpload, "no-upload", false, "skip the FTP upload")
	flag.Parse()

	// The flag defaults are positive, so a zero here can only be an explicit
	// -duration=0 or -fps=0; it must fail validation, not fall back to the
	// default the way an unset field does.
	if raw.Duration == 0 {
		return reportError(logger, &plan.ValidationError{Field: "duration", Reason: "must be a positive number of seconds"})
	}
	if raw.FPS == 0 {
		return reportError(logger, &plan.ValidationError{Field: "fps", Reason: "must be positive"})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		// The catalog is bookkeeping; generation still works without it.
		logger.Warn().Err(err).Msg("t2v: catalog unavailable")
		store = nil
	} else {
		defer store.Close()
	}

	pipe, err := pipeline.New(cfg, store, logger)
	if err != nil {
		logger.Error().Err(err).Msg("t2v: configuration failed")
		return exitFailure
	}

	result, err := pipe.Run(ctx, raw)
	if err != nil {
		return reportError(logger, err)
	}

	logger.Info().
		Str("path", result.Artifact.Path).
		Int("frames", result.Artifact.FrameCount).
		Int64("size_bytes", result.Artifact.SizeBytes).
		Msg("t2v: video generated")

	switch result.Upload.Status {
	case upload.StatusSucceeded:
		logger.Info().Str("remote_path", result.Upload.RemotePath).Msg("t2v: upload succeeded")
	case upload.StatusSkipped:
		logger.Info().Msg("t2v: upload skipped")
	case upload.StatusFailed:
		logger.Error().
			Str("reason", result.Upload.FailureReason).
			Str("local_path", result.Artifact.Path).
			Msg("t2v: upload failed, local artifact kept")
		return exitUpload
	}

	return exitOK
}

func reportError(logger infra.Logger, err error) int {
	var validation *plan.ValidationError
	if errors.As(err, &validation) {
		logger.Error().Msg(validation.Error())
		return exitValidation
	}
	var constraint *plan.ResourceConstraintError
	if errors.As(err, &constraint) {
		logger.Error().Msg(constraint.Error())
		return exitResource
	}
	var exhausted *producer.BackendExhaustedError
	if errors.As(err, &exhausted) {
		logger.Error().Msg(exhausted.Error())
		return exitBackend
	}
	var encoding *producer.EncodingError
	if errors.As(err, &encoding) {
		logger.Error().Msg(encoding.Error())
		return exitEncoding
	}
	logger.Error().Err(err).Msg("t2v: generation failed")
	return exitFailure
}
