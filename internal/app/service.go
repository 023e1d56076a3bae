// Package service owns live game sessions and wires the engine, the score
// pipeline and the collaborators used by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/hangman/internal/adapters/chat"
	eventqueue "github.com/okian/hangman/internal/adapters/mq/queue"
	workerpool "github.com/okian/hangman/internal/adapters/mq/worker"
	"github.com/okian/hangman/internal/adapters/repository"
	"github.com/okian/hangman/internal/domain/dedupe"
	"github.com/okian/hangman/internal/domain/game"
	"github.com/okian/hangman/internal/domain/presence"
	"github.com/okian/hangman/internal/domain/wordbank"
	"github.com/okian/hangman/pkg/logger"
	"github.com/okian/hangman/pkg/metrics"
)

// Service implements the API dependencies for the quiz.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine    *game.Engine
	store     repository.Store
	deduper   dedupe.Deduper
	queue     *eventqueue.InMemoryQueue
	pool      *workerpool.Pool
	sessions  *registry
	presence  *presence.Tracker
	chat      chat.Client
	ownsStore bool

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	storeDriver   string
	storeDSN      string
	cataloguePath string
	catalogue     wordbank.Catalogue
	engineOpts    []game.Option
	sessionTTL    time.Duration
	sweepInterval time.Duration
	staleAfter    time.Duration
	now           func() time.Time

	// State
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of submission workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submitted session ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
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

// WithStoreDriver selects the score store Start opens.
func WithStoreDriver(driver, dsn string) Option {
	return func(s *Service) {
		if driver != "" {
			s.storeDriver = driver
			s.storeDSN = dsn
		}
	}
}

// WithStore injects an already open store. The caller keeps ownership and
// must close it.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithCataloguePath loads the word catalogue from a YAML file instead of
// the embedded one.
func WithCataloguePath(path string) Option {
	return func(s *Service) {
		s.cataloguePath = path
	}
}

// WithCatalogue uses c directly and skips loading.
func WithCatalogue(c wordbank.Catalogue) Option {
	return func(s *Service) {
		s.catalogue = c
	}
}

// WithEngineOptions passes options through to game.New.
func WithEngineOptions(opts ...game.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithSessionTTL sets how long an idle session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithSweepInterval sets how often idle sessions are evicted.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithPresenceStaleAfter sets when a silent user stops counting as online.
func WithPresenceStaleAfter(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.staleAfter = d
		}
	}
}

// WithChat sets the chat collaborator. Without one the chat operations
// return chat.ErrNotConfigured.
func WithChat(c chat.Client) Option {
	return func(s *Service) {
		s.chat = c
	}
}

// WithClock replaces time.Now for session expiry and record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     10_000,
		dedupeSize:    50_000,
		storeDriver:   repository.DriverMemory,
		sessionTTL:    2 * time.Hour,
		sweepInterval: time.Minute,
		staleAfter:    10 * time.Minute,
		now:           time.Now,
		sessions:      newRegistry(),
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.logger != nil {
		s.logger = s.logger.Named("service")
	}

	return s
}

// Start loads the catalogue, opens the store and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting hangman service...")

	catalogue := s.catalogue
	if catalogue == nil {
		loaded, err := wordbank.NewLoader(s.cataloguePath).Load(ctx)
		if err != nil {
			return err
		}
		catalogue = loaded
	}
	engine, err := game.New(catalogue, s.engineOpts...)
	if err != nil {
		return err
	}
	s.engine = engine

	if s.store == nil {
		store, err := repository.Open(ctx, s.storeDriver, s.storeDSN, repository.WithLogger(s.logger))
		if err != nil {
			return err
		}
		s.store = store
		s.ownsStore = true
		s.logger.Info(ctx, "opened score store", logger.String("driver", s.storeDriver))
	}

	// Workers and sweepers outlive the start request.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store, s.logger,
		workerpool.WithFailureHandler(s.onPersistFailure),
	)
	s.pool.Start(runCtx)

	s.presence = presence.New(
		presence.WithStaleAfter(s.staleAfter),
		presence.WithLogger(s.logger),
	)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.presence.Run(runCtx, time.Minute)
	}()
	go func() {
		defer s.wg.Done()
		s.sweepLoop(runCtx)
	}()

	s.started = true
	s.logger.Info(ctx, "hangman service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("words", engine.CatalogueSize()),
		logger.Int("rounds", engine.TotalRounds()),
	)

	return nil
}

// Stop drains queued submissions and shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping hangman service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}

	s.cancel()
	s.wg.Wait()

	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "closing score store", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "hangman service stopped")
}

func (s *Service) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepSessions(ctx)
		}
	}
}

// SweepSessions evicts sessions idle for longer than the session TTL and
// returns how many were removed.
func (s *Service) SweepSessions(ctx context.Context) int {
	n := s.sessions.sweep(s.now(), s.sessionTTL)
	for range n {
		metrics.RecordSessionDiscarded()
	}
	if n > 0 {
		s.logger.Debug(ctx, "evicted idle sessions", logger.Int("count", n))
	}
	return n
}

// Presence returns the online-user counter. It is nil before Start.
func (s *Service) Presence() presence.Counter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.presence == nil {
		return nil
	}
	return s.presence
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"storeDriver":  s.storeDriver,
		"liveSessions": s.sessions.len(),
		"chatEnabled":  s.chat != nil,
	}

	if s.started {
		queueLen := s.queue.Len()
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		stats["online"] = s.presence.Online()
		stats["catalogueSize"] = s.engine.CatalogueSize()
		stats["totalRounds"] = s.engine.TotalRounds()
		if total, err := s.store.Count(context.Background()); err == nil {
			stats["totalScores"] = total
			metrics.UpdateStoreRecords(total)
		}
		if players, err := s.store.Users(context.Background()); err == nil {
			stats["totalPlayers"] = players
		}

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// ready returns the components request paths use, or ErrNotStarted.
func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}
