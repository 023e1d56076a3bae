// Package worker persists queued score submissions.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/hangman/internal/adapters/repository"
	"github.com/okian/hangman/internal/domain/model"
	"github.com/okian/hangman/pkg/logger"
	"github.com/okian/hangman/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultRetries        = 2
	defaultBackoff        = 50 * time.Millisecond
	poolShutdownTimeout   = 30 * time.Second
	metricsUpdateInterval = 5 * time.Second
)

// Submission is what workers read off the queue.
type Submission = model.Submission

// Inserter stores a score record.
type Inserter interface {
	Insert(ctx context.Context, rec model.ScoreRecord) error
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue() <-chan Submission
	Len() int
	Close() error
}

// InMemoryWorker drains the queue into the store.
type InMemoryWorker struct {
	queue     Queue
	store     Inserter
	name      string
	retries   int
	backoff   time.Duration
	onFailure func(Submission, error)

	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, store Inserter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:   q,
		store:   store,
		name:    "worker",
		retries: defaultRetries,
		backoff: defaultBackoff,
		done:    make(chan struct{}),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes submissions until the queue is closed and drained or ctx is done.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case sub, ok := <-items:
			if !ok {
				return
			}
			if err := w.process(ctx, sub); err != nil {
				w.logger.Error(ctx, "error persisting submission",
					logger.String("session_id", sub.SessionID), logger.Error(err))
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, sub Submission) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	delay := w.backoff
	var err error
retry:
	for attempt := 0; attempt <= w.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		err = w.store.Insert(ctx, sub.Record)
		switch {
		case err == nil:
			metrics.RecordSubmission("persisted")
			w.logger.Debug(ctx, "submission persisted",
				logger.String("session_id", sub.SessionID),
				logger.String("record_id", sub.Record.ID),
				logger.Int("score", sub.Record.Score))
			return nil
		case errors.Is(err, repository.ErrDuplicateID):
			// A retried insert that landed earlier.
			metrics.RecordSubmission("duplicate")
			return nil
		case errors.Is(err, model.ErrInvalidRecord):
			break retry
		}
	}

	metrics.RecordSubmission("failed")
	metrics.RecordErrorByComponent("worker", "insert_error")
	if w.onFailure != nil {
		w.onFailure(sub, err)
	}
	return fmt.Errorf("insert %s: %w", sub.Record.ID, err)
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
	stop    chan struct{}
	once    sync.Once
}

// NewPool creates workerCount workers; values < 1 use runtime.NumCPU().
// opts apply to every worker.
func NewPool(workerCount int, q Queue, store Inserter, log logger.Logger, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	if log == nil {
		log = logger.Nop()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  log.Named("worker-pool"),
		stop:    make(chan struct{}),
	}
	for i := range p.workers {
		wopts := append([]Option{WithLogger(log), WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, store, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.reportQueueDepth(ctx)
}

func (p *Pool) reportQueueDepth(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			metrics.UpdateQueueSize(p.queue.Len())
		}
	}
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.once.Do(func() { close(p.stop) })
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
		}
	}
	return nil
}
