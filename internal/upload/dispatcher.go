package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/owlcode-mcp/text-to-video/internal/infra"
	"github.com/owlcode-mcp/text-to-video/internal/producer"
)

// Status describes what happened to an upload attempt.
type Status string

const (
	StatusSkipped   Status = "skipped"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Outcome reports the result of one dispatch. The artifact referenced here
// always still exists locally, whatever the status.
type Outcome struct {
	Artifact      *producer.Artifact
	RemotePath    string
	Status        Status
	FailureReason string
}

// Dispatcher hands artifacts to the configured sink. Uploads are attempted
// once and never retried automatically: the dominant failure causes (bad
// credentials, unreachable host) are not fixed by repetition. A caller can
// re-run dispatch against the existing local artifact at any time.
type Dispatcher struct {
	sink   Sink
	cfg    SinkConfig
	logger infra.Logger
}

// NewDispatcher constructs a dispatcher. sink may be nil when cfg is not
// configured; it is only touched for a real attempt.
func NewDispatcher(sink Sink, cfg SinkConfig, logger infra.Logger) *Dispatcher {
	return &Dispatcher{sink: sink, cfg: cfg, logger: logger}
}

// Dispatch uploads the artifact when requested and configured. When upload
// was not requested, or the sink configuration is incomplete, it returns
// StatusSkipped without any network activity. A transfer whose remote size
// does not match the local artifact's recorded size is reported as failed.
func (d *Dispatcher) Dispatch(ctx context.Context, artifact *producer.Artifact, uploadRequested bool) Outcome {
	outcome := Outcome{Artifact: artifact, Status: StatusSkipped}

	if !uploadRequested {
		d.logger.Info().Msg("upload: skipped (not requested)")
		return outcome
	}
	if d.sink == nil || !d.cfg.Configured() {
		d.logger.Info().Msg("upload: skipped (sink not configured)")
		return outcome
	}

	name := filepath.Base(artifact.Path)

	f, err := os.Open(artifact.Path)
	if err != nil {
		return d.failed(outcome, fmt.Sprintf("open artifact: %v", err))
	}
	defer f.Close()

	d.logger.Info().
		Str("host", d.cfg.Host).
		Str("name", name).
		Int64("size_bytes", artifact.SizeBytes).
		Msg("upload: starting transfer")

	remotePath, err := d.sink.Store(ctx, f, name)
	if err != nil {
		return d.failed(outcome, fmt.Sprintf("transfer: %v", err))
	}
	outcome.RemotePath = remotePath

	remoteSize, err := d.sink.StoredSize(ctx, name)
	if err != nil {
		return d.failed(outcome, fmt.Sprintf("verify remote size: %v", err))
	}
	if remoteSize != artifact.SizeBytes {
		return d.failed(outcome, fmt.Sprintf("size mismatch: local %d bytes, remote %d bytes", artifact.SizeBytes, remoteSize))
	}

	outcome.Status = StatusSucceeded
	d.logger.Info().Str("remote_path", remotePath).Msg("upload: transfer verified")
	return outcome
}

func (d *Dispatcher) failed(outcome Outcome, reason string) Outcome {
	outcome.Status = StatusFailed
	outcome.FailureReason = reason
	d.logger.Error().Str("reason", reason).Msg("upload: failed (local artifact preserved)")
	return outcome
}
