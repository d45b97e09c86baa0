package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/owlcode-mcp/text-to-video/internal/catalog"
	"github.com/owlcode-mcp/text-to-video/internal/plan"
	"github.com/owlcode-mcp/text-to-video/internal/producer"
	"github.com/owlcode-mcp/text-to-video/internal/upload"
)

type createVideoRequest struct {
	Prompt string `json:"prompt"`
	// Duration and FPS are pointers so an explicit zero is distinguishable
	// from an omitted field: omitted means the default, zero is rejected.
	Duration   *int   `json:"duration_seconds"`
	Resolution string `json:"resolution"`
	FPS        *int   `json:"fps"`
	Model      string `json:"model"`
	OutputName string `json:"output_name"`
	// Upload must be asked for explicitly; a bare request never ships the
	// artifact anywhere.
	Upload bool `json:"upload"`
}

// resolveField returns the value to hand to plan resolution: 0 for an
// omitted field, an error for an explicit non-positive one.
func resolveField(v *int, field, reason string) (int, error) {
	if v == nil {
		return 0, nil
	}
	if *v <= 0 {
		return 0, &plan.ValidationError{Field: field, Reason: reason}
	}
	return *v, nil
}

// CreateVideo validates the request, opens a run, and starts generation in
// the background. The response is immediate: generation takes minutes, so
// the client polls the returned run id. While a generation is in flight
// further requests are rejected with 409, never queued.
func (a *App) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var body createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	duration, err := resolveField(body.Duration, "duration", "must be a positive number of seconds")
	if err != nil {
		a.writePipelineError(w, err)
		return
	}
	fps, err := resolveField(body.FPS, "fps", "must be positive")
	if err != nil {
		a.writePipelineError(w, err)
		return
	}

	if !a.busy.TryLock() {
		a.jsonError(w, http.StatusConflict, "a generation is already running")
		return
	}

	prepared, err := a.Runner.Prepare(r.Context(), plan.RawRequest{
		Prompt:     body.Prompt,
		Duration:   duration,
		Resolution: body.Resolution,
		FPS:        fps,
		Model:      body.Model,
		OutputName: body.OutputName,
		NoUpload:   !body.Upload,
	})
	if err != nil {
		a.busy.Unlock()
		a.writePipelineError(w, err)
		return
	}

	go func() {
		defer a.busy.Unlock()
		// Generation must not die with the HTTP request.
		if _, err := a.Runner.Execute(context.Background(), prepared); err != nil {
			a.Logger.Error().Err(err).Str("run_id", prepared.RunID).Msg("api: generation failed")
		}
	}()

	a.json(w, http.StatusAccepted, map[string]any{
		"id":       prepared.RunID,
		"status":   catalog.StatusProcessing,
		"model":    prepared.Request.Model.ID,
		"warnings": prepared.Request.Warnings,
	})
}

// ListVideos returns recent runs, newest first.
func (a *App) ListVideos(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	records, err := a.Catalog.List(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("api: list runs failed")
		a.jsonError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if records == nil {
		records = []catalog.Record{}
	}
	a.json(w, http.StatusOK, map[string]any{"videos": records})
}

// GetVideo returns one run by id.
func (a *App) GetVideo(w http.ResponseWriter, r *http.Request) {
	rec, err := a.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			a.jsonError(w, http.StatusNotFound, "run not found")
			return
		}
		a.Logger.Error().Err(err).Msg("api: get run failed")
		a.jsonError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	a.json(w, http.StatusOK, rec)
}

// LatestVideo returns the most recent completed run.
func (a *App) LatestVideo(w http.ResponseWriter, r *http.Request) {
	rec := a.latestCompleted(w, r)
	if rec == nil {
		return
	}
	a.json(w, http.StatusOK, rec)
}

// UploadLatest re-runs the upload dispatch against the most recent completed
// artifact. This is the manual retry path for a run whose automatic upload
// failed or was skipped; the artifact is still on disk, so dispatch can be
// repeated freely.
func (a *App) UploadLatest(w http.ResponseWriter, r *http.Request) {
	rec := a.latestCompleted(w, r)
	if rec == nil {
		return
	}

	artifact := &producer.Artifact{
		Path:            rec.Path,
		FrameCount:      rec.FrameCount,
		DurationSeconds: rec.DurationSeconds,
		Width:           rec.Width,
		Height:          rec.Height,
		SizeBytes:       rec.SizeBytes,
		SHA256:          rec.Checksum,
		CreatedAt:       rec.CreatedAt,
	}

	outcome := a.Dispatcher.Dispatch(r.Context(), artifact, true)
	if err := a.Catalog.RecordUpload(r.Context(), rec.ID, outcome); err != nil {
		a.Logger.Warn().Err(err).Msg("api: record upload outcome failed")
	}

	code := http.StatusOK
	if outcome.Status == upload.StatusFailed {
		code = http.StatusBadGateway
	}
	a.json(w, code, map[string]any{
		"id":             rec.ID,
		"status":         outcome.Status,
		"remote_path":    outcome.RemotePath,
		"failure_reason": outcome.FailureReason,
	})
}

func (a *App) latestCompleted(w http.ResponseWriter, r *http.Request) *catalog.Record {
	rec, err := a.Catalog.MostRecentCompleted(r.Context())
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			a.jsonError(w, http.StatusNotFound, "no completed runs yet")
			return nil
		}
		a.Logger.Error().Err(err).Msg("api: latest run lookup failed")
		a.jsonError(w, http.StatusInternalServerError, "failed to load latest run")
		return nil
	}
	return rec
}

func (a *App) writePipelineError(w http.ResponseWriter, err error) {
	var validation *plan.ValidationError
	if errors.As(err, &validation) {
		a.jsonError(w, http.StatusBadRequest, validation.Error())
		return
	}
	var constraint *plan.ResourceConstraintError
	if errors.As(err, &constraint) {
		a.jsonError(w, http.StatusUnprocessableEntity, constraint.Error())
		return
	}
	a.Logger.Error().Err(err).Msg("api: request preparation failed")
	a.jsonError(w, http.StatusInternalServerError, "failed to prepare generation")
}
