package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/owlcode-mcp/text-to-video/internal/catalog"
	"github.com/owlcode-mcp/text-to-video/internal/infra"
	"github.com/owlcode-mcp/text-to-video/internal/pipeline"
	"github.com/owlcode-mcp/text-to-video/internal/plan"
	"github.com/owlcode-mcp/text-to-video/internal/producer"
	"github.com/owlcode-mcp/text-to-video/internal/upload"
)

// Runner is the slice of the pipeline the HTTP surface needs. It is an
// interface so handler tests can substitute a double for the real pipeline.
type Runner interface {
	Prepare(ctx context.Context, raw plan.RawRequest) (*pipeline.Prepared, error)
	Execute(ctx context.Context, prepared *pipeline.Prepared) (*pipeline.Result, error)
}

// Dispatcher re-dispatches an existing artifact to the sink.
type Dispatcher interface {
	Dispatch(ctx context.Context, artifact *producer.Artifact, uploadRequested bool) upload.Outcome
}

// App carries the dependencies shared by all handlers. The busy mutex is the
// single-flight guard: the generative call is non-reentrant, so at most one
// generation runs per process and concurrent requests are rejected rather
// than queued.
type App struct {
	Runner     Runner
	Catalog    *catalog.Store
	Dispatcher Dispatcher
	Logger     infra.Logger

	busy sync.Mutex
}

// NewApp constructs the handler set.
func NewApp(runner Runner, store *catalog.Store, dispatcher Dispatcher, logger infra.Logger) *App {
	return &App{Runner: runner, Catalog: store, Dispatcher: dispatcher, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) jsonError(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}
