// Package pipeline binds the four stages of a generation run: capability
// probe, request resolution, artifact production, and upload dispatch. One
// run executes sequentially; the generative call is non-reentrant and
// memory-dominant, so a process never runs two generations at once.
package pipeline

import (
	"context"
	"sync"

	"github.com/owlcode-mcp/text-to-video/internal/catalog"
	"github.com/owlcode-mcp/text-to-video/internal/infra"
	"github.com/owlcode-mcp/text-to-video/internal/plan"
	"github.com/owlcode-mcp/text-to-video/internal/probe"
	"github.com/owlcode-mcp/text-to-video/internal/producer"
	"github.com/owlcode-mcp/text-to-video/internal/upload"
)

// Pipeline wires the stages together. Catalog is optional; when present
// every run is recorded in it.
type Pipeline struct {
	Probe      func() probe.Profile
	Producer   *producer.Producer
	Dispatcher *upload.Dispatcher
	Catalog    *catalog.Store
	Logger     infra.Logger
}

// Prepared is a validated run that has not generated anything yet. Prepare
// returning one costs no compute; everything expensive happens in Execute.
type Prepared struct {
	RunID   string
	Request *plan.Request
	Profile probe.Profile
}

// Result is the outcome of one complete run.
type Result struct {
	RunID    string
	Request  *plan.Request
	Artifact *producer.Artifact
	Upload   upload.Outcome
}

// Prepare validates the raw request, probes capability, and opens a catalog
// record. Validation failures surface before the host is probed, so a
// rejected request allocates nothing.
func (p *Pipeline) Prepare(ctx context.Context, raw plan.RawRequest) (*Prepared, error) {
	var (
		profOnce sync.Once
		prof     probe.Profile
	)
	profileOf := func() probe.Profile {
		profOnce.Do(func() {
			prof = p.Probe()
		})
		return prof
	}

	req, err := plan.Resolve(raw, profileOf)
	if err != nil {
		return nil, err
	}
	for _, warning := range req.Warnings {
		p.Logger.Warn().Msg("plan: " + warning)
	}

	profile := profileOf()
	p.Logger.Info().
		Str("backend", string(profile.Backend)).
		Uint64("available_memory_bytes", profile.AvailableMemoryBytes).
		Str("precision", string(profile.Precision)).
		Msg("pipeline: capability profile")

	prepared := &Prepared{Request: req, Profile: profile}
	if p.Catalog != nil {
		runID, err := p.Catalog.Begin(ctx, req.Prompt, req.Model.ID, req.Resolution.Name,
			req.Resolution.Width, req.Resolution.Height, req.FPS)
		if err != nil {
			// Catalog bookkeeping must not block generation.
			p.Logger.Warn().Err(err).Msg("pipeline: catalog insert failed")
		} else {
			prepared.RunID = runID
		}
	}
	return prepared, nil
}

// Execute produces the artifact and dispatches the upload for a prepared
// run. A failure after generation never discards the produced artifact; an
// upload failure is reported through Result.Upload alongside the artifact,
// not instead of it.
func (p *Pipeline) Execute(ctx context.Context, prepared *Prepared) (*Result, error) {
	result := &Result{RunID: prepared.RunID, Request: prepared.Request}

	artifact, err := p.Producer.Produce(ctx, prepared.Request, prepared.Profile)
	if err != nil {
		p.recordFailure(ctx, prepared.RunID, err)
		return nil, err
	}
	result.Artifact = artifact
	if p.Catalog != nil && prepared.RunID != "" {
		if err := p.Catalog.Complete(ctx, prepared.RunID, artifact); err != nil {
			p.Logger.Warn().Err(err).Msg("pipeline: catalog update failed")
		}
	}

	result.Upload = p.Dispatcher.Dispatch(ctx, artifact, prepared.Request.UploadRequested)
	if p.Catalog != nil && prepared.RunID != "" {
		if err := p.Catalog.RecordUpload(ctx, prepared.RunID, result.Upload); err != nil {
			p.Logger.Warn().Err(err).Msg("pipeline: catalog upload update failed")
		}
	}

	return result, nil
}

// Run processes one generation request end to end.
func (p *Pipeline) Run(ctx context.Context, raw plan.RawRequest) (*Result, error) {
	prepared, err := p.Prepare(ctx, raw)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx, prepared)
}

func (p *Pipeline) recordFailure(ctx context.Context, runID string, cause error) {
	if p.Catalog == nil || runID == "" {
		return
	}
	if err := p.Catalog.Fail(ctx, runID, cause.Error()); err != nil {
		p.Logger.Warn().Err(err).Msg("pipeline: catalog failure update failed")
	}
}
