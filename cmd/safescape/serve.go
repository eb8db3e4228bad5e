package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/safescape-map-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/safescape-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/safescape-map-service/internal/adapter/nominatim"
	"github.com/couchcryptid/safescape-map-service/internal/adapter/sqlite"
	"github.com/couchcryptid/safescape-map-service/internal/config"
	"github.com/couchcryptid/safescape-map-service/internal/observability"
	"github.com/couchcryptid/safescape-map-service/internal/offline"
	"github.com/couchcryptid/safescape-map-service/internal/reports"
	"github.com/couchcryptid/safescape-map-service/internal/web"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"
)

const sessionSweepInterval = time.Minute

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the map service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				slog.Error("failed to load config", "error", err)
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

// checks is a ReadinessChecker that requires every member to be ready.
type checks []interface {
	CheckReadiness(ctx context.Context) error
}

func (c checks) CheckReadiness(ctx context.Context) error {
	for _, check := range c {
		if err := check.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	db, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		return err
	}
	defer db.Close()

	var storeOpts []reports.Option

	// Location search and report enrichment (feature-flagged via GEOSEARCH_ENABLED).
	var geocoder *nominatim.CachedGeocoder
	if cfg.GeosearchEnabled {
		client := nominatim.NewClient(cfg.GeosearchBaseURL, cfg.GeosearchUserAgent, cfg.GeosearchTimeout, metrics, logger)
		geocoder = nominatim.NewCachedGeocoder(client, cfg.GeosearchCacheSize, metrics)
		storeOpts = append(storeOpts, reports.WithGeocoder(geocoder))
		metrics.GeocodeEnabled.Set(1)
		logger.Info("location search enabled", "base_url", cfg.GeosearchBaseURL, "cache_size", cfg.GeosearchCacheSize)
	} else {
		logger.Info("location search disabled")
	}

	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		storeOpts = append(storeOpts, reports.WithPublisher(writer))
		logger.Info("report events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportsTopic)
	}

	store := reports.NewStore(db, logger, metrics, storeOpts...)
	ready := checks{store}

	sessions := httpadapter.NewSessions(metrics, httpadapter.WithIdleTTL(cfg.SessionIdleTTL))
	go sessions.Run(ctx, sessionSweepInterval)

	opts := httpadapter.Options{
		Addr:          cfg.HTTPAddr,
		Store:         store,
		Sessions:      sessions,
		Assets:        web.Assets,
		LeafletBase:   cfg.LeafletBase,
		LocateTimeout: cfg.GeolocationTimeout,
		Metrics:       metrics,
	}
	if geocoder != nil {
		opts.Geocoder = geocoder
	}

	if cfg.OfflineEnable {
		fetcher := offline.RouteFetcher{
			Local:  offline.FSFetcher{FS: web.Assets},
			Remote: offline.HTTPFetcher{Client: &http.Client{Timeout: 15 * time.Second}},
		}
		worker := offline.NewWorker(cfg.CacheName(), offline.Assets(cfg.LeafletBase), db, fetcher, logger, metrics)
		if err := worker.Start(ctx); err != nil {
			logger.Error("offline cache unavailable, serving from network", "cache", cfg.CacheName(), "error", err)
		} else {
			opts.Offline = worker
			ready = append(ready, worker)
		}
	}
	opts.Ready = ready

	srv := httpadapter.NewServer(opts, logger)

	errc := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errc:
		logger.Error("http server error", "error", serveErr)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	if serveErr != nil {
		return fmt.Errorf("serve: %w", serveErr)
	}
	return nil
}
