package plan

import (
	"strings"
	"testing"

	"github.com/owlcode-mcp/text-to-video/internal/probe"
)

func roomyProfile() func() probe.Profile {
	return func() probe.Profile {
		return probe.Profile{
			Backend:              probe.BackendGPU,
			AvailableMemoryBytes: 32 * gib,
			Precision:            probe.PrecisionHalf,
		}
	}
}

func TestResolveEchoesRequestedFields(t *testing.T) {
	for _, resName := range SupportedResolutions() {
		for _, modelID := range SupportedModels() {
			req, err := Resolve(RawRequest{
				Prompt:     "a calm lake at dawn",
				Duration:   7,
				Resolution: resName,
				FPS:        12,
				Model:      modelID,
			}, roomyProfile())
			if err != nil {
				t.Fatalf("Resolve(%s, %s) returned error: %v", resName, modelID, err)
			}
			if req.Prompt != "a calm lake at dawn" {
				t.Fatalf("Prompt = %q", req.Prompt)
			}
			if req.DurationSeconds != 7 || req.FPS != 12 {
				t.Fatalf("duration/fps = %d/%d, want 7/12", req.DurationSeconds, req.FPS)
			}
			if req.Resolution.Name != resName {
				t.Fatalf("Resolution = %q, want %q", req.Resolution.Name, resName)
			}
			if req.Model.ID != modelID {
				t.Fatalf("Model = %q, want %q", req.Model.ID, modelID)
			}
			if len(req.Warnings) != 0 {
				t.Fatalf("unexpected warnings: %v", req.Warnings)
			}
		}
	}
}

func TestResolveAppliesDefaults(t *testing.T) {
	req, err := Resolve(RawRequest{Prompt: "city at night"}, roomyProfile())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if req.DurationSeconds != DefaultDuration {
		t.Fatalf("DurationSeconds = %d, want %d", req.DurationSeconds, DefaultDuration)
	}
	if req.FPS != DefaultFPS {
		t.Fatalf("FPS = %d, want %d", req.FPS, DefaultFPS)
	}
	if req.Resolution.Name != DefaultResolution {
		t.Fatalf("Resolution = %q, want %q", req.Resolution.Name, DefaultResolution)
	}
	if req.Model.ID != DefaultModel {
		t.Fatalf("Model = %q, want %q", req.Model.ID, DefaultModel)
	}
	if req.OutputDir != DefaultOutputDir {
		t.Fatalf("OutputDir = %q, want %q", req.OutputDir, DefaultOutputDir)
	}
	if !req.UploadRequested {
		t.Fatal("UploadRequested = false, want true by default")
	}
}

func TestResolveValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		raw   RawRequest
		field string
	}{
		{"empty prompt", RawRequest{Prompt: ""}, "prompt"},
		{"whitespace prompt", RawRequest{Prompt: "   \t"}, "prompt"},
		{"negative duration", RawRequest{Prompt: "x", Duration: -3}, "duration"},
		{"negative fps", RawRequest{Prompt: "x", FPS: -1}, "fps"},
		{"unknown resolution", RawRequest{Prompt: "x", Resolution: "4320p"}, "resolution"},
		{"unknown model", RawRequest{Prompt: "x", Model: "sora-99b"}, "model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probed := false
			_, err := Resolve(tt.raw, func() probe.Profile {
				probed = true
				return probe.Profile{}
			})
			if err == nil {
				t.Fatal("Resolve succeeded, want ValidationError")
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("Field = %q, want %q", verr.Field, tt.field)
			}
			if probed {
				t.Fatal("capability probe ran for an invalid request")
			}
		})
	}
}

func TestResolveDowngradesLargeModelOnLowMemory(t *testing.T) {
	lowMem := func() probe.Profile {
		return probe.Profile{Backend: probe.BackendGPU, AvailableMemoryBytes: 8 * gib, Precision: probe.PrecisionHalf}
	}

	// Deterministic: same inputs, same plan, every time.
	for i := 0; i < 3; i++ {
		req, err := Resolve(RawRequest{Prompt: "x", Model: ModelCogVideoX5B}, lowMem)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if req.Model.ID != ModelCogVideoX2B {
			t.Fatalf("Model = %q, want downgrade to %q", req.Model.ID, ModelCogVideoX2B)
		}
		if len(req.Warnings) != 1 || !strings.Contains(req.Warnings[0], "downgraded") {
			t.Fatalf("Warnings = %v, want one downgrade warning", req.Warnings)
		}
	}
}

func TestResolveUnknownMemoryTreatedAsLow(t *testing.T) {
	req, err := Resolve(RawRequest{Prompt: "x", Model: ModelCogVideoX5B}, func() probe.Profile {
		return probe.Profile{Backend: probe.BackendGPU, Precision: probe.PrecisionHalf}
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if req.Model.ID != ModelCogVideoX2B {
		t.Fatalf("Model = %q, want %q when memory is unknown", req.Model.ID, ModelCogVideoX2B)
	}
}

func TestResolveSmallModelUnaffectedByLowMemory(t *testing.T) {
	req, err := Resolve(RawRequest{Prompt: "x", Model: ModelCogVideoX2B}, func() probe.Profile {
		return probe.Profile{Backend: probe.BackendCPU, AvailableMemoryBytes: 4 * gib, Precision: probe.PrecisionFull}
	})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if req.Model.ID != ModelCogVideoX2B {
		t.Fatalf("Model = %q, want %q", req.Model.ID, ModelCogVideoX2B)
	}
	if len(req.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", req.Warnings)
	}
}

func TestFrameCount(t *testing.T) {
	req, err := Resolve(RawRequest{Prompt: "x", Duration: 10, FPS: 8}, roomyProfile())
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got := req.FrameCount(); got != 80 {
		t.Fatalf("FrameCount = %d, want 80", got)
	}
}
