package queue

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/codebuildervaibhav/video-sentiment/internal/logger"
)

var (
	ErrQueueFull  = errors.New("job queue is full")
	ErrPoolClosed = errors.New("worker pool is stopped")
)

// JobRunner executes one job to a terminal state
type JobRunner interface {
	Run(ctx context.Context, job *Job) error
}

// WorkerPool manages a pool of workers processing transcription jobs
type WorkerPool struct {
	jobQueue    chan *Job
	workerCount int
	runner      JobRunner
	log         *logger.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(workerCount, queueSize int, runner JobRunner, log *logger.Logger) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &WorkerPool{
		jobQueue:    make(chan *Job, queueSize),
		workerCount: workerCount,
		runner:      runner,
		log:         log.Component("worker_pool"),
	}
}

// Start initializes all workers. ctx is handed to every job run; cancelling
// it makes running jobs fail fast.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.log.Infof("Starting worker pool with %d workers", wp.workerCount)
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Submit queues a job without blocking
func (wp *WorkerPool) Submit(job *Job) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.closed {
		return ErrPoolClosed
	}

	select {
	case wp.jobQueue <- job:
		wp.log.WithJob(job.ID).WithField("queued", len(wp.jobQueue)).Debug("Job enqueued")
		return nil
	default:
		return fmt.Errorf("%w (%d pending)", ErrQueueFull, cap(wp.jobQueue))
	}
}

// Stop refuses new jobs and waits for the workers to drain the queue
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.jobQueue)
	wp.mu.Unlock()

	wp.wg.Wait()
	wp.log.Info("Worker pool stopped")
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log := wp.log.WithField("worker", id)
	log.Debug("Worker started")

	for job := range wp.jobQueue {
		wp.process(ctx, id, job)
	}
}

// process runs one job and turns a panic into a failed job
func (wp *WorkerPool) process(ctx context.Context, workerID int, job *Job) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("worker panic: %v", r)
			wp.log.WithJob(job.ID).WithField("worker", workerID).
				WithField("stack", string(debug.Stack())).Errorf("PANIC processing job: %v", r)
			writeFailureMarker(job, err, wp.log)
			job.fail(err)
		}
	}()

	if err := wp.runner.Run(ctx, job); err != nil {
		wp.log.WithJob(job.ID).WithField("worker", workerID).Debugf("Job ended with error: %v", err)
	}
}
