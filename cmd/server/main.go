// Command main is the entry point for the eventhub API server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventhub/internal/bootstrap"
	"eventhub/internal/config"
	"eventhub/internal/middleware"
	"eventhub/internal/observability"
	"eventhub/internal/server"

	"github.com/gofiber/fiber/v2"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "eventhub-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, rdb, err := bootstrap.InitRuntime(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv, err := server.NewServerWithDeps(cfg, db, rdb, server.Options{
		Metrics: middleware.InitMetrics("eventhub-api"),
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	srv.Start(workerCtx)

	app := fiber.New(fiber.Config{
		AppName:   "eventhub API",
		BodyLimit: 1 * 1024 * 1024,
	})
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	listenErr := make(chan error, 1)
	go func() {
		middleware.Logger.Info("Server starting", "port", cfg.Port, "push_enabled", cfg.PushEnabled())
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		middleware.Logger.Info("Shutting down server...", "signal", sig.String())
	case err := <-listenErr:
		if err != nil {
			middleware.Logger.Error("server stopped", "error", err)
			exitCode = 1
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Queued push deliveries drain before the worker context is cancelled.
	if err := srv.Stop(ctx, app); err != nil {
		middleware.Logger.Error("server shutdown error", "error", err)
	}
	stopWorkers()
	if err := shutdownTracing(ctx); err != nil {
		middleware.Logger.Error("tracing shutdown error", "error", err)
	}
	middleware.Logger.Info("Server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
