// Package async runs case compilation on a fixed worker pool, one worker per
// case. The pipeline has no shared mutable state, so workers need no locking.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Job is one case to compile.
type Job struct {
	CaseID      string
	Folder      string
	SubmittedAt time.Time
}

// CaseRunner is the work each job runs; in production it is the compile +
// evaluate + save sequence assembled by the CLI.
type CaseRunner func(ctx context.Context, job Job) error

// CaseQueue fans jobs out to workers.
type CaseQueue struct {
	run     CaseRunner
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
	// enq tracks in-flight Enqueue calls; Shutdown waits on it before
	// closing ch so no sender can hit a closed channel
	enq sync.WaitGroup
}

type Option func(*CaseQueue)

func WithWorkers(n int) Option {
	return func(q *CaseQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *CaseQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithCaseTimeout(d time.Duration) Option {
	return func(q *CaseQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewCaseQueue(run CaseRunner, logger *slog.Logger, opts ...Option) *CaseQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &CaseQueue{
		run:     run,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *CaseQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("case worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.run(ctx, job)
					cancel()

					if err != nil {
						q.logger.Error("case processing failed",
							"worker_id", workerID, "case_id", job.CaseID, "error", err)
					} else {
						q.logger.Info("case processed",
							"worker_id", workerID, "case_id", job.CaseID)
					}
				}

				q.logger.Info("case worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue submits a job. Returns an error when the queue is shut down or
// full for longer than the context allows.
func (q *CaseQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.New("queue is shut down")
	}
	q.enq.Add(1)
	q.mu.Unlock()
	defer q.enq.Done()

	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake and waits for in-flight jobs, up to ctx.
func (q *CaseQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	first := !q.closed
	q.closed = true
	q.mu.Unlock()

	if first {
		// enqueuers that passed the closed check may still be sending;
		// let them finish before the channel closes
		q.enq.Wait()
		close(q.ch)
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		q.logger.Warn("shutdown timed out with jobs in flight")
	}
}
