package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"well-bot-be/internal/bootstrap"
	"well-bot-be/internal/config"
	"well-bot-be/internal/server"
	"well-bot-be/internal/tracer"
	"well-bot-be/pkg/database"

	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()

	// Tracer is a no-op unless OTEL_ENABLED=true
	shutdownTracer := tracer.InitTracer(tracer.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Environment: cfg.App.Environment,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	defer shutdownTracer(context.Background())

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.Options{
		Verbose: cfg.App.Environment == "development",
	})
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, gormDB, cfg)
	if err != nil {
		log.Panicf("Unable to bootstrap: %v", err)
	}
	defer container.Close()

	// 4. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Panicf("Unable to start index consumer: %v", err)
	}
	container.TurnRecorder.Start()
	defer container.TurnRecorder.Stop()

	if container.RuleWatcher != nil {
		if err := container.RuleWatcher.Start(ctx); err != nil {
			container.Logger.Warn("Main", "Safety rule watcher not started", map[string]interface{}{"error": err.Error()})
		} else {
			defer container.RuleWatcher.Stop()
		}
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		container.WebSocketHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		container.Logger.Info("Main", "Shutting down", nil)
		return srv.Shutdown(shutdownCtx)
	})

	// 6. Run until a signal or a fatal server error
	if err := g.Wait(); err != nil {
		container.Logger.Error("Main", "Server stopped with error", map[string]interface{}{"error": err.Error()})
	}
}
