// Lodestar - Learning Content Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestar

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/lodestar/internal/api"
	"github.com/tomtom215/lodestar/internal/breaker"
	"github.com/tomtom215/lodestar/internal/catalog"
	"github.com/tomtom215/lodestar/internal/config"
	"github.com/tomtom215/lodestar/internal/embedding"
	"github.com/tomtom215/lodestar/internal/logging"
	"github.com/tomtom215/lodestar/internal/recommend"
	"github.com/tomtom215/lodestar/internal/supervisor"
	"github.com/tomtom215/lodestar/internal/supervisor/services"
	"github.com/tomtom215/lodestar/internal/vectorizer"
	"github.com/tomtom215/lodestar/internal/vectorstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LoggingOptions())

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Lodestar stopped with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocyclo // sequential setup steps
func run(cfg *config.Config) error {
	logger := logging.Logger()
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("catalog_driver", cfg.Catalog.Driver).
		Str("vector_store_driver", cfg.VectorStore.Driver).
		Str("queue_driver", cfg.Queue.Driver).
		Msg("Starting Lodestar with supervisor tree")

	if cfg.ShouldWarnAboutCORS() {
		logger.Warn().Strs("cors_origins", cfg.Server.CORSOrigins).Msg("CORS allows any origin")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === DATA ===

	cat, err := catalog.Open(ctx, cfg.CatalogOptions(), logging.WithComponent("catalog"))
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	if c, ok := cat.(io.Closer); ok {
		defer closeWithLog(c, "catalog")
	}

	emb, err := embedding.New(cfg.EmbeddingOptions(), logging.WithComponent("embedding"))
	if err != nil {
		return fmt.Errorf("create embedder: %w", err)
	}

	store, err := vectorstore.Open(cfg.VectorStoreOptions(), logger)
	if err != nil {
		return fmt.Errorf("open vector store: %w", err)
	}
	defer closeWithLog(store, "vector store")

	engine, err := recommend.NewEngine(&cfg.Recommend, cat, emb, store, logging.WithComponent("recommend"))
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	// === VECTORIZER ===

	transport, err := vectorizer.NewTransport(cfg.TransportOptions(), logging.NewWatermillAdapter(logging.WithComponent("watermill")))
	if err != nil {
		return fmt.Errorf("open queue transport: %w", err)
	}
	defer closeWithLog(transport, "queue transport")

	queue := vectorizer.NewQueue(transport.Publisher, cfg.Queue.Topic, logger)
	queue.SetCircuitBreaker(breaker.New(cfg.BreakerFor("queue"), logger))
	defer closeWithLog(queue, "vectorize queue")

	worker, err := vectorizer.NewWorker(cfg.WorkerOptions(), transport.Subscriber, transport.Publisher, engine, logger)
	if err != nil {
		return fmt.Errorf("create vectorize worker: %w", err)
	}

	// === HTTP ===

	handler := api.NewHandler(engine, queue, logger)
	handler.AddReadinessCheck("catalog", func(ctx context.Context) error {
		_, err := cat.CountAlgorithms(ctx)
		return err
	})
	handler.AddReadinessCheck("vector_store", func(ctx context.Context) error {
		if h := engine.HealthCheck(ctx); h.Status != recommend.HealthHealthy {
			return fmt.Errorf("vector store %s", h.Status)
		}
		return nil
	})

	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromServer(&cfg.Server)))
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddDataService(services.NewCollectionMonitor(engine, services.CollectionMonitorConfig{
		Interval:          cfg.Monitor.HealthInterval,
		DegradedThreshold: cfg.Monitor.DegradedThreshold,
	}, logger))
	if cfg.Monitor.ReindexOnStartup || cfg.Monitor.ReindexInterval > 0 {
		tree.AddDataService(services.NewReindexService(engine, services.ReindexServiceConfig{
			OnStartup: cfg.Monitor.ReindexOnStartup,
			Interval:  cfg.Monitor.ReindexInterval,
			Timeout:   cfg.Monitor.ReindexTimeout,
		}, logger))
	}
	tree.AddWorkerService(worker)
	tree.AddAPIService(services.NewHTTPServerService(server, services.HTTPServerConfig{
		Addr:            cfg.Addr(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger))

	logger.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received, waiting for supervisor to finish")
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Supervisor shutdown error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			serveErr = err
		}
	}
	stop()

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logger.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	return serveErr
}

func closeWithLog(c io.Closer, what string) {
	if err := c.Close(); err != nil {
		logging.Error().Err(err).Str("resource", what).Msg("Error closing resource")
	}
}
