package infra

import (
	"context"
	"net/http"
	"time"
)

// HTTPServer owns the listener lifecycle for cmd/api: a blocking Start and
// a deadline-bound Shutdown. Generation itself runs in a background
// goroutine, never inside a handler, so the write timeout only has to cover
// catalog reads and the immediate 202 response, not a render.
type HTTPServer struct {
	srv *http.Server
}

// NewHTTPServer builds the server with the configured timeouts.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		srv: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadTimeout:       cfg.HTTPReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			IdleTimeout:       cfg.HTTPIdleTimeout,
		},
	}
}

// Start listens and serves until Shutdown or a listener error. It returns
// http.ErrServerClosed on a clean shutdown.
func (s *HTTPServer) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires. An in-flight generation is not an in-flight request;
// it finishes (or fails) on its own and lands in the catalog either way.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
