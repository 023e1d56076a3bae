package worker

import (
	"time"

	"github.com/okian/hangman/pkg/logger"
)

// Option applies a configuration option to a worker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithRetry sets how many extra attempts a failed insert gets and the
// delay before the first retry. The delay doubles on each attempt.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(w *InMemoryWorker) {
		if attempts >= 0 {
			w.retries = attempts
		}
		if backoff > 0 {
			w.backoff = backoff
		}
	}
}

// WithFailureHandler registers fn for submissions that could not be stored
// after every retry.
func WithFailureHandler(fn func(s Submission, err error)) Option {
	return func(w *InMemoryWorker) {
		w.onFailure = fn
	}
}
