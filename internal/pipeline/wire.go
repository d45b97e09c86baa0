package pipeline

import (
	"fmt"
	"net/http"

	"github.com/owlcode-mcp/text-to-video/internal/catalog"
	"github.com/owlcode-mcp/text-to-video/internal/diffusion"
	"github.com/owlcode-mcp/text-to-video/internal/encoder"
	"github.com/owlcode-mcp/text-to-video/internal/infra"
	"github.com/owlcode-mcp/text-to-video/internal/probe"
	"github.com/owlcode-mcp/text-to-video/internal/producer"
	"github.com/owlcode-mcp/text-to-video/internal/upload"
)

// SinkConfigFromEnv maps the loaded configuration onto the dispatcher's sink
// settings.
func SinkConfigFromEnv(cfg *infra.Config) upload.SinkConfig {
	return upload.SinkConfig{
		Host:      cfg.FTPHost,
		Port:      cfg.FTPPort,
		User:      cfg.FTPUser,
		Password:  cfg.FTPPassword,
		RemoteDir: cfg.FTPRemoteDir,
		Timeout:   cfg.FTPTimeout,
	}
}

// NewDispatcher builds the upload dispatcher for the configured sink. When
// the sink settings are incomplete the dispatcher still exists and reports
// every dispatch as skipped.
func NewDispatcher(cfg *infra.Config, logger infra.Logger) *upload.Dispatcher {
	sinkCfg := SinkConfigFromEnv(cfg)
	var sink upload.Sink
	if sinkCfg.Configured() {
		sink = upload.NewFTPSink(sinkCfg)
	}
	return upload.NewDispatcher(sink, sinkCfg, logger)
}

// New assembles the full pipeline from configuration. The generator is the
// remote diffusion client when an endpoint is configured and the synthetic
// renderer otherwise, mirroring how the rest of the stack stays operational
// on hosts without a model server.
func New(cfg *infra.Config, store *catalog.Store, logger infra.Logger) (*Pipeline, error) {
	var gen producer.Generator
	if cfg.DiffusionEndpoint != "" {
		client, err := diffusion.NewClient(diffusion.Options{
			Endpoint:   cfg.DiffusionEndpoint,
			APIKey:     cfg.DiffusionAPIKey,
			HTTPClient: &http.Client{Timeout: cfg.DiffusionTimeout},
			Logger:     &logger,
		})
		if err != nil {
			return nil, fmt.Errorf("configure diffusion client: %w", err)
		}
		gen = client
		logger.Info().Str("endpoint", cfg.DiffusionEndpoint).Msg("pipeline: using diffusion server backend")
	} else {
		gen = diffusion.NewSynthetic()
		logger.Warn().Msg("pipeline: no diffusion endpoint configured, using synthetic frames")
	}

	prod, err := producer.New(producer.Options{
		Generator: gen,
		Encoder:   encoder.NewFFmpeg(),
		MaxFrames: cfg.MaxFrames,
		Logger:    &logger,
	})
	if err != nil {
		return nil, err
	}

	prober := probe.Detect
	if cfg.LowMemoryBytes > 0 {
		// An operator-specified memory budget overrides the probed figure.
		override := cfg.LowMemoryBytes
		prober = func() probe.Profile {
			p := probe.Detect()
			p.AvailableMemoryBytes = override
			return p
		}
	}

	return &Pipeline{
		Probe:      prober,
		Producer:   prod,
		Dispatcher: NewDispatcher(cfg, logger),
		Catalog:    store,
		Logger:     logger,
	}, nil
}
