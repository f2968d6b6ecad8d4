package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/johnquangdev/todo-maker/internal/app"
	"github.com/johnquangdev/todo-maker/internal/domain/entities"
	"github.com/johnquangdev/todo-maker/pkg/config"
	"github.com/johnquangdev/todo-maker/pkg/jobcontext"
)

// runjob processes one job synchronously and prints its terminal status
func main() {
	jobID := flag.String("job", "", "job id under DATA_ROOT/jobs")
	flag.Parse()
	if *jobID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	pl, err := app.NewPipeline(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build pipeline", zap.Error(err))
	}
	defer pl.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobCtx, cancel := jobcontext.JobBegin(ctx, *jobID, 0)
	defer cancel()

	var job *entities.Job
	runErr := jobcontext.JobEnd(jobCtx, func(ctx context.Context) error {
		var err error
		job, err = pl.Orchestrator.Run(ctx, *jobID)
		return err
	})

	if job != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(job); err != nil {
			logger.Error("❌ Failed to print status", zap.Error(err))
		}
	}
	if runErr != nil {
		logger.Error("❌ Job failed", zap.String("job_id", *jobID), zap.Error(runErr))
		logger.Sync()
		pl.Close()
		os.Exit(1)
	}
}
