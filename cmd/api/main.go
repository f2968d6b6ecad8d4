package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/todo-maker/pkg/validator"

	"github.com/johnquangdev/todo-maker/internal/adapter/handler"
	"github.com/johnquangdev/todo-maker/internal/app"
	"github.com/johnquangdev/todo-maker/internal/usecase/job"
	"github.com/johnquangdev/todo-maker/internal/usecase/pipeline"
	"github.com/johnquangdev/todo-maker/pkg/config"
)

// @title           Todo Maker API
// @version         1.0
// @description     Upload meeting audio and get back todos grouped by speaker
// @BasePath        /

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	logger.Info("🔧 Initializing dependencies...")

	// Initialize job queue
	jobQueue, err := app.NewQueue(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect job queue", zap.Error(err))
	}
	defer jobQueue.Close()

	// Initialize pipeline (repository, speech stage, extractors)
	pl, err := app.NewPipeline(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build pipeline", zap.Error(err))
	}
	defer pl.Close()

	// Start embedded workers
	var workerPool *pipeline.WorkerPool
	if cfg.Queue.WorkerCount > 0 {
		workerPool = pipeline.NewWorkerPool(jobQueue, pl.Orchestrator, logger)
		if err := workerPool.Start(rootCtx, cfg.Queue.WorkerCount); err != nil {
			logger.Fatal("Failed to start worker pool", zap.Error(err))
		}
	} else {
		logger.Info("⏭️ WORKER_COUNT=0, jobs are processed by a separate worker")
	}

	// Setup router with handlers
	jobService := job.NewJobService(pl.Repo, jobQueue, logger)
	jobHandler := handler.NewJobHandler(jobService, cfg.Storage.MaxUploadMB, logger)
	handler.NewRouter(cfg, jobHandler).Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("🚀 Starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
			zap.String("jobs_dir", cfg.JobsDir()),
		)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("❌ Server forced to shutdown", zap.Error(err))
	}

	// Running jobs finish before the workers exit
	if workerPool != nil {
		if err := workerPool.Stop(); err != nil {
			logger.Error("❌ Failed to stop worker pool", zap.Error(err))
		}
	}

	logger.Info("✅ Server stopped gracefully")
}
