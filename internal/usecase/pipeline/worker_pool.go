package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/johnquangdev/todo-maker/internal/domain/entities"
	"github.com/johnquangdev/todo-maker/pkg/jobcontext"
	"go.uber.org/zap"
)

// JobSource hands out submitted job ids
type JobSource interface {
	// Dequeue returns "" and a nil error when no job arrived within timeout
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
}

// WorkerPool runs queued jobs on a fixed number of workers. A job is taken
// off the queue exactly once and is never requeued, whatever its outcome.
type WorkerPool struct {
	source JobSource
	svc    Service
	logger *zap.Logger

	// PollTimeout bounds a single dequeue wait so workers notice Stop
	PollTimeout time.Duration
	// newBackOff builds the delay schedule used after dequeue errors
	newBackOff func() backoff.BackOff

	stopChan   chan struct{}
	cancelPoll context.CancelFunc
	wg         sync.WaitGroup
	isRunning  bool
	mu         sync.Mutex
}

// NewWorkerPool creates a stopped worker pool
func NewWorkerPool(source JobSource, svc Service, logger *zap.Logger) *WorkerPool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{
		source:      source,
		svc:         svc,
		logger:      logger,
		PollTimeout: 2 * time.Second,
		newBackOff:  dequeueBackOff,
		stopChan:    make(chan struct{}),
	}
}

func dequeueBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0 // keep polling until stopped
	return bo
}

// Start launches workerCount workers. Jobs run under ctx; cancelling it
// aborts running jobs, while Stop lets them finish.
func (p *WorkerPool) Start(ctx context.Context, workerCount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("worker pool already running")
	}
	if workerCount <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", workerCount)
	}

	p.isRunning = true
	p.stopChan = make(chan struct{})
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancelPoll = cancel

	p.logger.Info("🚀 Starting job worker pool",
		zap.Int("worker_count", workerCount),
	)

	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, pollCtx, i)
	}
	return nil
}

// Stop waits for the workers to finish their current job and exit
func (p *WorkerPool) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return fmt.Errorf("worker pool not running")
	}

	p.logger.Info("🛑 Stopping job worker pool...")

	close(p.stopChan)
	p.cancelPoll()
	p.wg.Wait()
	p.isRunning = false

	p.logger.Info("✅ Job worker pool stopped")
	return nil
}

func (p *WorkerPool) worker(jobCtx, pollCtx context.Context, workerID int) {
	defer p.wg.Done()

	p.logger.Info("👷 Worker started", zap.Int("worker_id", workerID))
	bo := p.newBackOff()

	for {
		select {
		case <-p.stopChan:
			p.logger.Info("👷 Worker stopping", zap.Int("worker_id", workerID))
			return
		case <-pollCtx.Done():
			p.logger.Info("👷 Worker stopping", zap.Int("worker_id", workerID))
			return
		default:
		}

		jobID, err := p.source.Dequeue(pollCtx, p.PollTimeout)
		if err != nil {
			if errors.Is(err, entities.ErrQueueClosed) {
				p.logger.Info("👷 Queue closed, worker exiting", zap.Int("worker_id", workerID))
				return
			}
			if pollCtx.Err() != nil {
				continue
			}
			wait := bo.NextBackOff()
			if wait == backoff.Stop {
				p.logger.Error("❌ Giving up on job queue", zap.Int("worker_id", workerID), zap.Error(err))
				return
			}
			p.logger.Error("❌ Failed to dequeue job",
				zap.Int("worker_id", workerID),
				zap.Duration("retry_in", wait),
				zap.Error(err),
			)
			p.sleep(pollCtx, wait)
			continue
		}
		bo.Reset()

		if jobID == "" {
			continue
		}
		p.runJob(jobCtx, jobID, workerID)
	}
}

func (p *WorkerPool) runJob(parent context.Context, jobID string, workerID int) {
	p.logger.Info("👷 Worker claimed job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", jobID),
	)

	ctx, cancel := jobcontext.JobBegin(parent, jobID, workerID)
	defer cancel()

	err := jobcontext.JobEnd(ctx, func(ctx context.Context) error {
		_, err := p.svc.Run(ctx, jobID)
		return err
	})

	fields := append(jobcontext.Fields(ctx), zap.String("job_id", jobID))
	if start, ok := jobcontext.GetJobStartTime(ctx); ok {
		fields = append(fields, zap.Duration("duration", time.Since(start)))
	}
	if err != nil {
		p.logger.Error("❌ Job finished with failure", append(fields, zap.Error(err))...)
		return
	}
	p.logger.Info("✅ Job finished", fields...)
}

func (p *WorkerPool) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-p.stopChan:
	case <-ctx.Done():
	}
}
