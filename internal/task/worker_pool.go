package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// WorkerPool runs a fixed number of goroutines that drain a TaskQueueReader.
type WorkerPool struct {
	taskQueue   TaskQueueReader
	workerCount int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount defaults to 1 when zero or negative
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{WorkerCount: 2}
}

// NewWorkerPool creates a pool over taskQueue. Call Start to launch workers.
func NewWorkerPool(taskQueue TaskQueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", config.WorkerCount),
			slog.Int("default_count", 1))
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		taskQueue:   taskQueue,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Start launches the workers. Each dequeued task is passed to process, with
// panics recovered and logged so one bad task cannot kill a worker.
func (p *WorkerPool) Start(process func(ctx context.Context, task Task, workerID int)) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i, process)
	}
	p.logger.Info("worker pool started", slog.Int("workers", p.workerCount))
}

// Stop cancels the workers and waits for in-flight tasks to return.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *WorkerPool) worker(id int, process func(ctx context.Context, task Task, workerID int)) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.taskQueue.GetChannel():
			if !ok {
				return
			}
			p.run(id, task, process)
		}
	}
}

func (p *WorkerPool) run(id int, task Task, process func(ctx context.Context, task Task, workerID int)) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked",
				slog.String("task_id", task.ID().String()),
				slog.Int("worker_id", id),
				slog.String("panic", fmt.Sprint(r)))
		}
	}()
	process(p.ctx, task, id)
}
