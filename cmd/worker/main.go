package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/johnquangdev/todo-maker/internal/app"
	"github.com/johnquangdev/todo-maker/internal/usecase/pipeline"
	"github.com/johnquangdev/todo-maker/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := app.CheckStandaloneWorker(cfg); err != nil {
		logger.Fatal("Invalid worker configuration", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	jobQueue, err := app.NewQueue(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect job queue", zap.Error(err))
	}
	defer jobQueue.Close()

	pl, err := app.NewPipeline(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build pipeline", zap.Error(err))
	}
	defer pl.Close()

	workers := cfg.Queue.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	pool := pipeline.NewWorkerPool(jobQueue, pl.Orchestrator, logger)
	if err := pool.Start(ctx, workers); err != nil {
		logger.Fatal("Failed to start worker pool", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down worker...")
	if err := pool.Stop(); err != nil {
		logger.Error("❌ Failed to stop worker pool", zap.Error(err))
	}
	logger.Info("✅ Worker stopped gracefully")
}
