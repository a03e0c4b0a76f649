package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bseverns/pointy-clumps/internal/adapter/httpadapter"
	kafkaadapter "github.com/bseverns/pointy-clumps/internal/adapter/kafka"
	"github.com/bseverns/pointy-clumps/internal/adapter/openweather"
	"github.com/bseverns/pointy-clumps/internal/config"
	"github.com/bseverns/pointy-clumps/internal/domain"
	"github.com/bseverns/pointy-clumps/internal/eisenscript"
	"github.com/bseverns/pointy-clumps/internal/observability"
	"github.com/bseverns/pointy-clumps/internal/pipeline"
	"github.com/bseverns/pointy-clumps/internal/scene"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Live wind lookups are feature-flagged via OPENWEATHER_ENABLED / OPENWEATHER_API_KEY.
	var source domain.WindSource
	if cfg.OpenWeatherEnabled {
		client := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherTimeout, metrics, logger)
		source = openweather.NewCachedSource(client, cfg.WeatherCacheSize, cfg.WeatherCacheTTL, nil, metrics)
		metrics.WeatherEnabled.Set(1)
		logger.Info("openweather lookups enabled",
			"cache_size", cfg.WeatherCacheSize, "cache_ttl", cfg.WeatherCacheTTL, "timeout", cfg.OpenWeatherTimeout)
	} else {
		logger.Info("openweather lookups disabled; only inline readings will render")
	}

	generator := scene.NewGenerator(source, scene.Defaults{
		MaxDepth:        cfg.SceneMaxDepth,
		Layout:          eisenscript.ParseLayout(cfg.SceneLayout),
		Units:           domain.ParseUnits(cfg.OpenWeatherUnits),
		ClimateHueSwing: cfg.ClimateAnomalyHue,
	}, metrics, logger)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(generator, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, pipeline.DefaultOptions(cfg.BatchSize))

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, generator, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
