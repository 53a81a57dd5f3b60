// cmd/crm-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	suggestresponse "realty-crm/internal/api/ai/suggest-response"
	"realty-crm/internal/common/config"
	"realty-crm/internal/common/database"
	apperrors "realty-crm/internal/common/errors"
	"realty-crm/internal/common/llm"
	"realty-crm/internal/common/logger"
	"realty-crm/internal/common/observability"
	"realty-crm/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting crm server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.Observability.ServiceName, prometheus.DefaultRegisterer)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}

	tracing, err := observability.NewTracing(observability.TracingConfig{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.App.Version,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
		SampleRatio:    cfg.Observability.SampleRatio,
	})
	if err != nil {
		zapLog.Fatal("tracing setup failed", zap.Error(err))
	}

	ctx := context.Background()
	deps := server.Dependencies{
		Config:        cfg,
		Logger:        log,
		Observability: obs,
	}

	needsPostgres := config.IsHandlerEnabled(cfg, config.HandlerListLeads) ||
		config.IsHandlerEnabled(cfg, config.HandlerDashboardMetrics)

	// --- PostgreSQL ---
	if needsPostgres {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.ConnectPostgres(ctx, cfg.Database.Postgres)
			return err
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries",
				zap.Error(err),
				zap.String("details", apperrors.Normalize(err).Details),
			)
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")

		deps.DB = pg.DB
		deps.Checks = append(deps.Checks, server.HealthCheck{Name: "postgres", Ping: pg.Ping})

		// Redis only backs the read caches, so the server starts without it.
		if cfg.Database.Redis.Address != "" {
			rdb, err := database.NewRedis(cfg.Database.Redis)
			if err == nil {
				err = retryWithBackoff(func() error {
					return rdb.Ping(ctx)
				}, 5, time.Second, zapLog, "Redis connection")
			}
			if err != nil {
				zapLog.Warn("redis unavailable, caching disabled", zap.Error(err))
			} else {
				defer rdb.Close()
				zapLog.Info("Redis connected successfully")
				deps.Redis = rdb.Client
				deps.Checks = append(deps.Checks, server.HealthCheck{Name: "redis", Ping: rdb.Ping})
			}
		}
	}

	// --- Elasticsearch ---
	if config.IsHandlerEnabled(cfg, config.HandlerSearchProperties) {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")

		deps.Search = esClient.Client
		deps.Checks = append(deps.Checks, server.HealthCheck{Name: "elasticsearch", Ping: esClient.Ping})
	}

	// --- LLM provider ---
	if config.IsHandlerEnabled(cfg, config.HandlerSuggestResponse) {
		provider, err := llm.NewClient(suggestresponse.LoadConfig(cfg).ProviderConfig(), log, tracing.Tracer())
		if err != nil {
			zapLog.Fatal("llm client setup failed", zap.Error(err))
		}
		deps.Provider = provider
	}

	srv, err := server.New(deps)
	if err != nil {
		zapLog.Fatal("server setup failed", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("http server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http server shutdown failed", zap.Error(err))
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("tracing shutdown failed", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("metrics shutdown failed", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}
