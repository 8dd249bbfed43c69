package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/hotspot-engine/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/hotspot-engine/internal/adapter/kafka"
	"github.com/couchcryptid/hotspot-engine/internal/adapter/mapbox"
	"github.com/couchcryptid/hotspot-engine/internal/config"
	"github.com/couchcryptid/hotspot-engine/internal/domain"
	"github.com/couchcryptid/hotspot-engine/internal/observability"
	"github.com/couchcryptid/hotspot-engine/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	profiles := config.DefaultProfiles()
	if cfg.ProfilesPath != "" {
		profiles, err = config.LoadProfiles(cfg.ProfilesPath)
		if err != nil {
			logger.Error("failed to load profiles", "path", cfg.ProfilesPath, "error", err)
			os.Exit(1)
		}
	}
	store := config.NewProfileStore(profiles, cfg.NeighborWorkers)
	logger.Info("analysis profiles loaded", "profiles", store.Names(), "workers", cfg.NeighborWorkers)

	// Cluster labelling is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, cfg.MapboxRateLimit, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "rate_limit", cfg.MapboxRateLimit, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(store, geocoder, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize, cfg.AnalysisWorkers)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, transformer, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var g errgroup.Group

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
		return nil
	})

	if cfg.ProfilesWatch {
		g.Go(func() error {
			err := config.WatchProfiles(ctx, cfg.ProfilesPath, logger, func(next config.Profiles) {
				store.Replace(next)
				metrics.ProfileReloads.Inc()
			})
			if err != nil {
				logger.Error("profile watcher error", "error", err)
			}
			return nil
		})
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	_ = g.Wait()

	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
