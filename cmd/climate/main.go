package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/climate-grid-service/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/climate-grid-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/climate-grid-service/internal/adapter/kafka"
	"github.com/couchcryptid/climate-grid-service/internal/adapter/mapbox"
	"github.com/couchcryptid/climate-grid-service/internal/adapter/postgres"
	"github.com/couchcryptid/climate-grid-service/internal/config"
	"github.com/couchcryptid/climate-grid-service/internal/domain"
	"github.com/couchcryptid/climate-grid-service/internal/observability"
	"github.com/couchcryptid/climate-grid-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside local development.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	if envErr == nil {
		logger.Info("loaded .env file")
	}

	samples, stats, err := csvfile.LoadSamples(cfg.SamplesPath, logger)
	if err != nil {
		logger.Error("failed to load samples", "path", cfg.SamplesPath, "error", err)
		os.Exit(1)
	}
	dataset := domain.NewDataset(samples)
	metrics.DatasetSamples.Set(float64(dataset.Len()))
	metrics.DatasetSkipped.Set(float64(stats.Skipped))
	logger.Info("dataset ready",
		"path", cfg.SamplesPath,
		"samples", dataset.Len(),
		"skipped", stats.Skipped,
		"years", len(dataset.Years()),
	)

	// Reverse geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, cfg.MapboxRateLimit, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled",
			"cache_size", cfg.MapboxCacheSize,
			"timeout", cfg.MapboxTimeout,
			"rate_limit", cfg.MapboxRateLimit,
		)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		ready   []sharedobs.ReadinessChecker
		closers []io.Closer
	)
	if cfg.PipelineEnabled {
		p, pipelineClosers, err := buildPipeline(ctx, cfg, logger, metrics)
		if err != nil {
			logger.Error("failed to start pipeline", "error", err)
			os.Exit(1)
		}
		closers = pipelineClosers
		ready = append(ready, p)
		for _, c := range closers {
			if rc, ok := c.(sharedobs.ReadinessChecker); ok {
				ready = append(ready, rc)
			}
		}

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("streaming pipeline disabled")
	}

	api := httpadapter.NewAPI(dataset, geocoder, metrics, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.AllReady(ready...), api, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// buildPipeline wires the Kafka reader to the configured sink. The returned
// closers are released in order on shutdown.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.Pipeline, []io.Closer, error) {
	var (
		loader pipeline.BatchLoader
		sink   io.Closer
	)
	switch cfg.Sink {
	case config.SinkPostgres:
		w, err := postgres.NewWriter(ctx, cfg.PostgresURL, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := w.EnsureSchema(ctx); err != nil {
			_ = w.Close()
			return nil, nil, err
		}
		loader, sink = w, w
	default:
		w := kafkaadapter.NewWriter(cfg, logger)
		loader, sink = w, w
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	transformer := pipeline.NewTransformer(logger)
	p := pipeline.New(reader, transformer, loader, logger, metrics, cfg.BatchSize)

	logger.Info("streaming pipeline enabled",
		"source_topic", cfg.KafkaSourceTopic,
		"sink", cfg.Sink,
		"batch_size", cfg.BatchSize,
		"flush_interval", cfg.BatchFlushInterval,
	)
	return p, []io.Closer{reader, sink}, nil
}
