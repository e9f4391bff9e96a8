// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pitchtag/internal/adapters/http/feed"
	eventqueue "github.com/okian/pitchtag/internal/adapters/mq/queue"
	workerpool "github.com/okian/pitchtag/internal/adapters/mq/worker"
	"github.com/okian/pitchtag/internal/adapters/publisher"
	"github.com/okian/pitchtag/internal/adapters/repository"
	"github.com/okian/pitchtag/internal/domain/classify"
	"github.com/okian/pitchtag/internal/domain/dedupe"
	"github.com/okian/pitchtag/internal/domain/pitch"
	"github.com/okian/pitchtag/pkg/logger"
	"github.com/okian/pitchtag/pkg/metrics"
)

const (
	publishRetries = 2
	publishBackoff = 100 * time.Millisecond
)

// Notifier receives session change messages for live subscribers.
// Broadcast is called with the session lock held and must not block.
type Notifier interface {
	Broadcast(msg feed.Message)
}

type nopNotifier struct{}

func (nopNotifier) Broadcast(feed.Message) {}

// Service owns open tagging sessions and the pipeline that publishes their
// tags.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry   *pitch.Registry
	classifier *classify.Classifier
	sessions   repository.Store
	deduper    dedupe.Deduper
	queue      *eventqueue.InMemoryQueue
	pool       *workerpool.Pool
	publisher  workerpool.Publisher
	notifier   Notifier

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	maxSessions int
	templates   []pitch.Template
	newID       func() string
	now         func() time.Time

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of publish workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the tag record queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the external tag deduper. 0 or less is unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithMaxSessions caps open sessions. 0 means no cap.
func WithMaxSessions(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxSessions = n
		}
	}
}

// WithTemplates registers extra pitch templates on start.
func WithTemplates(tpls ...pitch.Template) Option {
	return func(s *Service) {
		s.templates = append(s.templates, tpls...)
	}
}

// WithPublisher sets where tag records go. Defaults to the log publisher.
func WithPublisher(p workerpool.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithNotifier sets the live feed sink.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClassifier overrides the render category classifier.
func WithClassifier(c *classify.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithIDGenerator sets the session ID source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock sets the time source for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		dedupeSize:  100_000,
		maxSessions: 1_000,
		classifier:  classify.New(),
		notifier:    nopNotifier{},
		newID:       uuid.NewString,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting tagging service...")

	registry, err := pitch.NewRegistry(ctx, pitch.WithTemplates(s.templates...))
	if err != nil {
		return fmt.Errorf("pitch registry: %w", err)
	}
	s.registry = registry
	s.sessions = repository.NewMemoryStore(repository.WithMaxSessions(s.maxSessions))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	if s.publisher == nil {
		s.publisher = publisher.NewLogPublisher(s.logger)
	}

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.publisher,
		workerpool.WithRetries(publishRetries, publishBackoff),
	)
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "tagging service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("maxSessions", s.maxSessions),
		logger.Any("sports", registry.Sports(ctx)),
	)
	return nil
}

// Stop closes the queue and waits for queued records to be published.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping tagging service...")

	var err error
	if s.pool != nil {
		err = s.pool.Shutdown(ctx)
	}
	s.started = false
	s.logger.Info(ctx, "tagging service stopped")
	return err
}

// running returns the started components or ErrNotStarted.
func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Sports lists sports with a registered pitch template.
func (s *Service) Sports(ctx context.Context) ([]pitch.Template, error) {
	if err := s.running(); err != nil {
		return nil, err
	}
	keys := s.registry.Sports(ctx)
	out := make([]pitch.Template, 0, len(keys))
	for _, k := range keys {
		t, err := s.registry.Get(ctx, k)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Classify explains how a free-text label is bucketed for rendering.
func (s *Service) Classify(label string) classify.Result {
	return s.classifier.Explain(label)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"maxSessions": s.maxSessions,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		sessions := s.sessions.Count(ctx)

		stats["queueLength"] = queueLen
		stats["sessions"] = sessions
		stats["dedupeEntries"] = s.deduper.Size()
		stats["uptimeSeconds"] = int64(s.now().Sub(s.startedAt).Seconds())

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateActiveSessions(sessions)
		metrics.UpdateWorkerActiveCount(s.pool.Size())
	}
	return stats
}
