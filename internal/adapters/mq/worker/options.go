package worker

import (
	"time"

	"github.com/okian/pitchtag/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
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

// WithPublishTimeout bounds each publish attempt.
func WithPublishTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithRetries sets how many times a failed publish is retried, with a
// linearly growing backoff between attempts.
func WithRetries(n int, backoff time.Duration) Option {
	return func(w *InMemoryWorker) {
		if n >= 0 {
			w.retries = n
		}
		if backoff > 0 {
			w.backoff = backoff
		}
	}
}
