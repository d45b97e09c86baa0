// Command uploader sends the most recent generated video to the configured
// FTP sink. It exists so a failed or skipped upload can be re-run at any
// time without regenerating anything.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/owlcode-mcp/text-to-video/internal/catalog"
	"github.com/owlcode-mcp/text-to-video/internal/infra"
	"github.com/owlcode-mcp/text-to-video/internal/pipeline"
	"github.com/owlcode-mcp/text-to-video/internal/producer"
	"github.com/owlcode-mcp/text-to-video/internal/upload"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := infra.NewLogger(cfg.AppEnv)

	var file string
	flag.StringVar(&file, "file", "", "video file to upload (default: most recent artifact)")
	flag.Parse()

	sinkCfg := pipeline.SinkConfigFromEnv(cfg)
	if !sinkCfg.Configured() {
		logger.Error().Msg("uploader: FTP sink not configured; set FTP_HOST, FTP_USER and FTP_PASSWORD")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	artifact, runID, err := selectArtifact(ctx, cfg, logger, file)
	if err != nil {
		logger.Error().Err(err).Msg("uploader: no artifact to upload")
		return 1
	}
	logger.Info().Str("path", artifact.Path).Int64("size_bytes", artifact.SizeBytes).Msg("uploader: selected artifact")

	dispatcher := upload.NewDispatcher(upload.NewFTPSink(sinkCfg), sinkCfg, logger)
	outcome := dispatcher.Dispatch(ctx, artifact, true)

	if runID != "" {
		recordOutcome(ctx, cfg, logger, runID, outcome)
	}

	if outcome.Status != upload.StatusSucceeded {
		logger.Error().Str("reason", outcome.FailureReason).Msg("uploader: upload failed, local artifact kept")
		return 1
	}
	logger.Info().Str("remote_path", outcome.RemotePath).Msg("uploader: upload verified")
	return 0
}

// selectArtifact picks the file to send: an explicit -file, else the newest
// completed catalog run, else the newest .mp4 in the output directory for
// setups that ran without a catalog.
func selectArtifact(ctx context.Context, cfg *infra.Config, logger infra.Logger, file string) (*producer.Artifact, string, error) {
	if file != "" {
		artifact, err := artifactFromFile(file)
		return artifact, "", err
	}

	if store, err := catalog.Open(cfg.CatalogPath); err == nil {
		defer store.Close()
		rec, err := store.MostRecentCompleted(ctx)
		if err == nil {
			if _, statErr := os.Stat(rec.Path); statErr == nil {
				return &producer.Artifact{
					Path:            rec.Path,
					FrameCount:      rec.FrameCount,
					DurationSeconds: rec.DurationSeconds,
					Width:           rec.Width,
					Height:          rec.Height,
					SizeBytes:       rec.SizeBytes,
					SHA256:          rec.Checksum,
					CreatedAt:       rec.CreatedAt,
				}, rec.ID, nil
			}
			logger.Warn().Str("path", rec.Path).Msg("uploader: catalog artifact missing on disk, scanning directory")
		} else if !errors.Is(err, catalog.ErrNotFound) {
			logger.Warn().Err(err).Msg("uploader: catalog lookup failed, scanning directory")
		}
	}

	newest, err := newestVideo(cfg.OutputDir)
	if err != nil {
		return nil, "", err
	}
	artifact, err := artifactFromFile(newest)
	return artifact, "", err
}

func artifactFromFile(path string) (*producer.Artifact, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%s is empty", abs)
	}
	return &producer.Artifact{
		Path:      abs,
		SizeBytes: info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

func newestVideo(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var candidates []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".mp4") {
			continue
		}
		candidates = append(candidates, e.Name())
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no videos found in %s", dir)
	}
	// Generated names embed a timestamp, so lexicographic order is
	// chronological.
	sort.Strings(candidates)
	return filepath.Join(dir, candidates[len(candidates)-1]), nil
}

func recordOutcome(ctx context.Context, cfg *infra.Config, logger infra.Logger, runID string, outcome upload.Outcome) {
	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return
	}
	defer store.Close()
	if err := store.RecordUpload(ctx, runID, outcome); err != nil {
		logger.Warn().Err(err).Msg("uploader: record outcome failed")
	}
}
