package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/owlcode-mcp/text-to-video/internal/catalog"
	"github.com/owlcode-mcp/text-to-video/internal/http/handlers"
	"github.com/owlcode-mcp/text-to-video/internal/http/httpapi"
	"github.com/owlcode-mcp/text-to-video/internal/infra"
	"github.com/owlcode-mcp/text-to-video/internal/pipeline"
	"github.com/owlcode-mcp/text-to-video/internal/plan"
	"github.com/owlcode-mcp/text-to-video/internal/probe"
	"github.com/owlcode-mcp/text-to-video/internal/producer"
	"github.com/owlcode-mcp/text-to-video/internal/upload"
)

type fakeRunner struct {
	prepareErr     error
	executeStarted chan struct{}
	release        chan struct{}
}

func (f *fakeRunner) Prepare(ctx context.Context, raw plan.RawRequest) (*pipeline.Prepared, error) {
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}
	req, err := plan.Resolve(raw, func() probe.Profile {
		return probe.Profile{Backend: probe.BackendGPU, AvailableMemoryBytes: 32 << 30, Precision: probe.PrecisionHalf}
	})
	if err != nil {
		return nil, err
	}
	return &pipeline.Prepared{RunID: "run-1", Request: req}, nil
}

func (f *fakeRunner) Execute(ctx context.Context, prepared *pipeline.Prepared) (*pipeline.Result, error) {
	if f.executeStarted != nil {
		close(f.executeStarted)
	}
	if f.release != nil {
		<-f.release
	}
	return &pipeline.Result{RunID: prepared.RunID, Request: prepared.Request}, nil
}

type fakeDispatcher struct {
	outcome upload.Outcome
	called  bool
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, artifact *producer.Artifact, uploadRequested bool) upload.Outcome {
	f.called = true
	out := f.outcome
	out.Artifact = artifact
	return out
}

func newTestServer(t *testing.T, runner handlers.Runner, dispatcher handlers.Dispatcher) (*httptest.Server, *catalog.Store) {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	app := handlers.NewApp(runner, store, dispatcher, zerolog.Nop())
	cfg := &infra.Config{AllowedOrigins: []string{"*"}}
	srv := httptest.NewServer(httpapi.NewRouter(app, cfg, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{}, &fakeDispatcher{})
	resp, err := http.Get(srv.URL + "/v1/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCreateVideoAccepted(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{}, &fakeDispatcher{})

	resp := postJSON(t, srv.URL+"/v1/videos", `{"prompt":"a quiet harbor"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var body struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID != "run-1" || body.Status != catalog.StatusProcessing {
		t.Fatalf("body = %+v", body)
	}
}

func TestCreateVideoValidation(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{}, &fakeDispatcher{})

	resp := postJSON(t, srv.URL+"/v1/videos", `{"prompt":"  "}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateVideoRejectsExplicitZeros(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{}, &fakeDispatcher{})

	// An omitted field means the default; a literal zero is a bad request
	// and must not silently resolve to the default.
	for _, body := range []string{
		`{"prompt":"x","duration_seconds":0}`,
		`{"prompt":"x","fps":0}`,
		`{"prompt":"x","duration_seconds":-3}`,
	} {
		resp := postJSON(t, srv.URL+"/v1/videos", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("POST %s status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestCreateVideoResourceConstraint(t *testing.T) {
	runner := &fakeRunner{prepareErr: &plan.ResourceConstraintError{Reason: "too many frames"}}
	srv, _ := newTestServer(t, runner, &fakeDispatcher{})

	resp := postJSON(t, srv.URL+"/v1/videos", `{"prompt":"x"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
}

func TestCreateVideoRejectsConcurrentGeneration(t *testing.T) {
	runner := &fakeRunner{
		executeStarted: make(chan struct{}),
		release:        make(chan struct{}),
	}
	srv, _ := newTestServer(t, runner, &fakeDispatcher{})

	first := postJSON(t, srv.URL+"/v1/videos", `{"prompt":"one"}`)
	first.Body.Close()
	if first.StatusCode != http.StatusAccepted {
		t.Fatalf("first status = %d, want 202", first.StatusCode)
	}
	<-runner.executeStarted

	second := postJSON(t, srv.URL+"/v1/videos", `{"prompt":"two"}`)
	second.Body.Close()
	if second.StatusCode != http.StatusConflict {
		t.Fatalf("second status = %d, want 409", second.StatusCode)
	}
	close(runner.release)
}

func TestLatestVideoNotFound(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRunner{}, &fakeDispatcher{})
	resp, err := http.Get(srv.URL + "/v1/videos/latest")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func completeRun(t *testing.T, store *catalog.Store, path string) string {
	t.Helper()
	id, err := store.Begin(context.Background(), "p", "cogvideox-2b", "480p", 720, 480, 8)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	err = store.Complete(context.Background(), id, &producer.Artifact{Path: path, SizeBytes: 10, FrameCount: 80})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	return id
}

func TestGetVideo(t *testing.T) {
	srv, store := newTestServer(t, &fakeRunner{}, &fakeDispatcher{})
	id := completeRun(t, store, "/outputs/a.mp4")

	resp, err := http.Get(srv.URL + "/v1/videos/" + id)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var rec catalog.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.ID != id || rec.Status != catalog.StatusCompleted {
		t.Fatalf("record = %+v", rec)
	}
}

func TestUploadLatestSucceeds(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: upload.Outcome{Status: upload.StatusSucceeded, RemotePath: "/videos/a.mp4"}}
	srv, store := newTestServer(t, &fakeRunner{}, dispatcher)
	id := completeRun(t, store, "/outputs/a.mp4")

	resp := postJSON(t, srv.URL+"/v1/videos/latest/upload", `{}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !dispatcher.called {
		t.Fatal("dispatcher not invoked")
	}

	rec, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.UploadStatus != string(upload.StatusSucceeded) {
		t.Fatalf("UploadStatus = %q", rec.UploadStatus)
	}
}

func TestUploadLatestFailure(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: upload.Outcome{Status: upload.StatusFailed, FailureReason: "size mismatch"}}
	srv, store := newTestServer(t, &fakeRunner{}, dispatcher)
	completeRun(t, store, "/outputs/a.mp4")

	resp := postJSON(t, srv.URL+"/v1/videos/latest/upload", `{}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}
