// Package plan resolves raw user input into a validated, internally
// consistent generation request before any compute resource is allocated.
package plan

import (
	"fmt"
	"strings"

	"github.com/owlcode-mcp/text-to-video/internal/probe"
)

// Defaults applied when optional fields are unset.
const (
	DefaultModel      = ModelCogVideoX2B
	DefaultResolution = "480p"
	DefaultDuration   = 10
	DefaultFPS        = 8
	DefaultOutputDir  = "outputs"
)

// RawRequest carries user-supplied parameters before validation. Zero values
// mean "use the default" for optional fields; Prompt is always required.
type RawRequest struct {
	Prompt     string
	Duration   int
	Resolution string
	FPS        int
	Model      string
	OutputName string
	OutputDir  string
	NoUpload   bool
}

// Request is a validated generation request. It is read-only to every
// downstream component.
type Request struct {
	Prompt          string
	DurationSeconds int
	Resolution      Resolution
	FPS             int
	Model           Model
	OutputName      string
	OutputDir       string
	UploadRequested bool

	// Warnings records deterministic adjustments made during resolution,
	// such as a model downgrade on a memory-constrained host.
	Warnings []string
}

// FrameCount is the total number of frames this request will produce.
func (r *Request) FrameCount() int {
	return r.DurationSeconds * r.FPS
}

// Resolve validates raw against the supported parameter sets, applies
// defaults, and reconciles the model choice with the host's capability
// profile. profileOf is called only after the request is well formed, so a
// rejected request never triggers a hardware probe.
//
// When the host cannot meet the requested model's memory requirement the
// request is downgraded to the smaller model with a recorded warning rather
// than rejected. The downgrade is deterministic: identical inputs always
// produce the identical plan.
func Resolve(raw RawRequest, profileOf func() probe.Profile) (*Request, error) {
	prompt := strings.TrimSpace(raw.Prompt)
	if prompt == "" {
		return nil, &ValidationError{Field: "prompt", Reason: "must not be empty"}
	}

	duration := raw.Duration
	if raw.Duration == 0 {
		duration = DefaultDuration
	}
	if duration <= 0 {
		return nil, &ValidationError{Field: "duration", Reason: "must be a positive number of seconds"}
	}

	fps := raw.FPS
	if raw.FPS == 0 {
		fps = DefaultFPS
	}
	if fps <= 0 {
		return nil, &ValidationError{Field: "fps", Reason: "must be positive"}
	}

	resName := raw.Resolution
	if resName == "" {
		resName = DefaultResolution
	}
	res, ok := LookupResolution(resName)
	if !ok {
		return nil, &ValidationError{
			Field:  "resolution",
			Reason: fmt.Sprintf("%q is not supported (supported: %s)", resName, strings.Join(SupportedResolutions(), ", ")),
		}
	}

	modelID := raw.Model
	if modelID == "" {
		modelID = DefaultModel
	}
	model, ok := LookupModel(modelID)
	if !ok {
		return nil, &ValidationError{
			Field:  "model",
			Reason: fmt.Sprintf("%q is not supported (supported: %s)", modelID, strings.Join(SupportedModels(), ", ")),
		}
	}

	req := &Request{
		Prompt:          prompt,
		DurationSeconds: duration,
		Resolution:      res,
		FPS:             fps,
		Model:           model,
		OutputName:      strings.TrimSpace(raw.OutputName),
		OutputDir:       raw.OutputDir,
		UploadRequested: !raw.NoUpload,
	}
	if req.OutputDir == "" {
		req.OutputDir = DefaultOutputDir
	}

	var profile probe.Profile
	if profileOf != nil {
		profile = profileOf()
	}
	if profile.LowMemory(model.MinMemoryBytes) && model.ID != DefaultModel {
		smaller, _ := LookupModel(DefaultModel)
		req.Warnings = append(req.Warnings, fmt.Sprintf(
			"model %s needs %d GiB but host has %d GiB available; downgraded to %s",
			model.ID, model.MinMemoryBytes/gib, profile.AvailableMemoryBytes/gib, smaller.ID))
		req.Model = smaller
	}

	return req, nil
}
