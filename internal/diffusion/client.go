// Package diffusion provides implementations of the producer.Generator
// boundary: an HTTP client for a remote diffusion model server and a
// deterministic synthetic renderer for hosts without one.
package diffusion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/owlcode-mcp/text-to-video/internal/infra"
	"github.com/owlcode-mcp/text-to-video/internal/producer"
	"github.com/rs/zerolog"
)

// Options controls how the diffusion client is configured.
type Options struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client invokes a diffusion model server over HTTP. The server loads the
// pretrained pipeline and returns the rendered frames; everything about the
// actual synthesis is opaque to this process. A single Generate call can take
// minutes, so the HTTP client timeout must be sized for the slowest model.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     infra.Logger
}

// NewClient constructs a diffusion client. Callers may provide a nil HTTP
// client; one with a generation-sized timeout will be created.
func NewClient(opts Options) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("diffusion: endpoint is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Minute}
	}

	var logger infra.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	} else {
		logger = zerolog.New(io.Discard)
	}

	return &Client{
		endpoint:   endpoint,
		apiKey:     strings.TrimSpace(opts.APIKey),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type renderRequest struct {
	Prompt         string  `json:"prompt"`
	NumFrames      int     `json:"num_frames"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	FPS            int     `json:"fps"`
	Seed           int64   `json:"seed"`
	GuidanceScale  float64 `json:"guidance_scale"`
	InferenceSteps int     `json:"num_inference_steps"`
	Precision      string  `json:"precision,omitempty"`
	LowMemory      bool    `json:"low_memory,omitempty"`
}

type renderResponse struct {
	Frames []string `json:"frames"`
}

type renderErrorResponse struct {
	Error struct {
		Code    string `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// Generate renders one clip on the remote server. Out-of-memory and device
// failures are surfaced as producer.BackendExhaustedError so the caller can
// report remediation instead of retrying.
func (c *Client) Generate(ctx context.Context, params producer.Params) ([]image.Image, error) {
	payload, err := json.Marshal(renderRequest{
		Prompt:         params.Prompt,
		NumFrames:      params.NumFrames,
		Width:          params.Width,
		Height:         params.Height,
		FPS:            params.FPS,
		Seed:           params.Seed,
		GuidanceScale:  params.GuidanceScale,
		InferenceSteps: params.InferenceSteps,
		Precision:      string(params.Precision),
		LowMemory:      params.LowMemory,
	})
	if err != nil {
		return nil, fmt.Errorf("diffusion: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/render", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("diffusion: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug().
		Int("num_frames", params.NumFrames).
		Int("width", params.Width).
		Int("height", params.Height).
		Msg("diffusion: render request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("diffusion: render request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<20))
	if err != nil {
		return nil, fmt.Errorf("diffusion: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp.StatusCode, body)
	}

	var rendered renderResponse
	if err := json.Unmarshal(body, &rendered); err != nil {
		return nil, fmt.Errorf("diffusion: decode response: %w", err)
	}
	if len(rendered.Frames) == 0 {
		return nil, fmt.Errorf("diffusion: server returned no frames")
	}

	frames := make([]image.Image, 0, len(rendered.Frames))
	for i, encoded := range rendered.Frames {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("diffusion: decode frame %d: %w", i, err)
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("diffusion: decode frame %d: %w", i, err)
		}
		frames = append(frames, img)
	}
	return frames, nil
}

func (c *Client) statusError(status int, body []byte) error {
	var decoded renderErrorResponse
	message := strings.TrimSpace(string(body))
	code := ""
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error.Message != "" {
		message = decoded.Error.Message
		code = decoded.Error.Code
	}

	if isExhausted(status, code, message) {
		return &producer.BackendExhaustedError{
			Cause: fmt.Errorf("diffusion server: %s (status %d)", message, status),
		}
	}
	return fmt.Errorf("diffusion: server error (status %d): %s", status, message)
}

// isExhausted classifies a server failure as device/memory exhaustion. The
// server reports 507 for deliberate budget rejections; older builds only
// surface the raw framework message, so the text is matched too.
func isExhausted(status int, code, message string) bool {
	if status == http.StatusInsufficientStorage {
		return true
	}
	if code == "out_of_memory" || code == "device_exhausted" {
		return true
	}
	lower := strings.ToLower(message)
	return strings.Contains(lower, "out of memory") || strings.Contains(lower, "cuda oom")
}

var _ producer.Generator = (*Client)(nil)
