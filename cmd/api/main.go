// Command api exposes the generation pipeline over HTTP. One generation
// runs at a time; concurrent requests are rejected, and callers that need
// parallel throughput run more instances.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/owlcode-mcp/text-to-video/internal/catalog"
	"github.com/owlcode-mcp/text-to-video/internal/http/handlers"
	"github.com/owlcode-mcp/text-to-video/internal/http/httpapi"
	"github.com/owlcode-mcp/text-to-video/internal/infra"
	"github.com/owlcode-mcp/text-to-video/internal/pipeline"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to open catalog")
	}
	defer store.Close()

	pipe, err := pipeline.New(cfg, store, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure pipeline")
	}

	app := handlers.NewApp(pipe, store, pipe.Dispatcher, logger)
	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
