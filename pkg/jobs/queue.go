package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job outcomes reported to the Observer.
const (
	OutcomeDone    = "done"
	OutcomeRetried = "retried"
	OutcomeGaveUp  = "gave_up"
)

var (
	// ErrNotStarted is returned by Enqueue before Start.
	ErrNotStarted = errors.New("queue not started")
	// ErrStopped is returned by Enqueue once Stop has been called.
	ErrStopped = errors.New("queue stopped")
)

// Job is one unit of background work, e.g. a project table export.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. A returned error schedules a retry.
type Handler func(context.Context, Job) error

// Observer is told how each job run ended.
type Observer interface {
	ObserveJob(queue, outcome string, took time.Duration)
}

// QueueConfig configures the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	// RetryDelay is multiplied by the attempt number before a job is requeued.
	RetryDelay time.Duration
	Observer   Observer
	Logger     *zap.Logger
}

// Queue is an in-memory job dispatcher served by a fixed set of goroutines.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig

	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewQueue builds a queue; call Start before enqueueing.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 8
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 1; i <= q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work(i)
	}
	q.started = true
	q.cfg.Logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and waits for in-flight jobs to return. Jobs still
// buffered are dropped; the export service recovers them on the next start.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.cfg.Logger.Info("queue stopped", zap.String("queue", q.name), zap.Int("dropped", len(q.jobs)))
}

// Pending is the number of buffered jobs.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

// Name identifies the queue in logs and metrics.
func (q *Queue) Name() string {
	return q.name
}

// Enqueue buffers a job, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	started, stopped, ctx := q.started, q.stopped, q.ctx
	q.mu.Unlock()

	switch {
	case stopped:
		return fmt.Errorf("%s: %w", q.name, ErrStopped)
	case !started:
		return fmt.Errorf("%s: %w", q.name, ErrNotStarted)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", q.name, ErrStopped)
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) work(workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(workerID, job)
		}
	}
}

func (q *Queue) run(workerID int, job Job) {
	start := time.Now()
	err := q.safeHandle(job)
	took := time.Since(start)
	if err == nil {
		q.observe(OutcomeDone, took)
		q.cfg.Logger.Debug("job done",
			zap.String("queue", q.name),
			zap.Int("worker", workerID),
			zap.String("job_id", job.ID),
			zap.Duration("took", took),
		)
		return
	}
	q.retry(job, err, took)
}

func (q *Queue) safeHandle(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return q.handler(q.ctx, job)
}

func (q *Queue) retry(job Job, cause error, took time.Duration) {
	job.Attempt++
	fields := []zap.Field{
		zap.String("queue", q.name),
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempt", job.Attempt),
		zap.Error(cause),
	}
	if job.Attempt > q.cfg.MaxRetries {
		q.observe(OutcomeGaveUp, took)
		q.cfg.Logger.Error("job exceeded retries", fields...)
		return
	}
	q.observe(OutcomeRetried, took)
	q.cfg.Logger.Warn("job failed, retrying", fields...)

	delay := q.cfg.RetryDelay * time.Duration(job.Attempt)
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(job); err != nil {
				q.cfg.Logger.Error("failed to requeue job", zap.String("queue", q.name), zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}()
}

func (q *Queue) observe(outcome string, took time.Duration) {
	if q.cfg.Observer != nil {
		q.cfg.Observer.ObserveJob(q.name, outcome, took)
	}
}
