package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	boltstore "github.com/couchcryptid/gear-smarts-service/internal/adapter/bbolt"
	httpadapter "github.com/couchcryptid/gear-smarts-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/gear-smarts-service/internal/adapter/kafka"
	"github.com/couchcryptid/gear-smarts-service/internal/adapter/openweather"
	"github.com/couchcryptid/gear-smarts-service/internal/config"
	"github.com/couchcryptid/gear-smarts-service/internal/domain"
	"github.com/couchcryptid/gear-smarts-service/internal/observability"
	"github.com/couchcryptid/gear-smarts-service/internal/pipeline"
	"github.com/couchcryptid/gear-smarts-service/internal/svm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The bolt file backs both dictionary persistence and the weather cache.
	var db *boltstore.Store
	if cfg.PersistDictionaries || cfg.WeatherEnabled {
		db, err = boltstore.NewStore(cfg.DBPath)
		if err != nil {
			logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
			os.Exit(1)
		}
		logger.Info("database opened", "path", cfg.DBPath)
	}

	var persister domain.Persister
	if cfg.PersistDictionaries {
		persister = db
	}
	store := domain.NewStore(persister)
	if err := store.Load(ctx); err != nil {
		logger.Error("failed to load dictionaries", "error", err)
		os.Exit(1)
	}
	metrics.Namespaces.Set(float64(len(store.Namespaces())))

	service := svm.NewService(store, cfg.SVMOptions, logger, metrics)

	// Weather proxy (feature-flagged via WEATHER_ENABLED / WEATHERMAP_APPID).
	var weather domain.WeatherProvider
	if cfg.WeatherEnabled {
		client := openweather.NewClient(cfg.WeatherAppID, cfg.WeatherTimeout, metrics, logger)
		weather = openweather.NewCachedProvider(client, db, cfg.WeatherCacheTTL, clockwork.NewRealClock(), metrics, logger)
		metrics.WeatherEnabled.Set(1)
		logger.Info("weather proxy enabled", "cache_ttl", cfg.WeatherCacheTTL, "timeout", cfg.WeatherTimeout)
	} else {
		logger.Info("weather proxy disabled")
	}

	var ready sharedobs.ReadinessChecker = service
	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		p      *pipeline.Pipeline
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p = pipeline.New(reader, pipeline.NewTransformer(service, logger), writer, logger, metrics, cfg.BatchSize)
		ready = httpadapter.AllReady(service, p)
		logger.Info("training pipeline enabled", "topic", cfg.KafkaTrainingTopic, "events_topic", cfg.KafkaEventsTopic)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		ML:      service,
		Weather: weather,
		Ready:   ready,
		Metrics: metrics,
	}, httpadapter.Options{
		Production:    cfg.Production(),
		DeployVersion: cfg.DeployVersion,
	}, logger)

	// Start HTTP server.
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start training pipeline.
	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
