// Package service wires the contest store, the leaderboard engine and the
// submission pipeline together and implements the dependencies required by
// the HTTP API and the scheduler.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	eventqueue "github.com/okian/battlegrounds/internal/adapters/mq/queue"
	workerpool "github.com/okian/battlegrounds/internal/adapters/mq/worker"
	repository "github.com/okian/battlegrounds/internal/adapters/repository"
	"github.com/okian/battlegrounds/internal/domain/dedupe"
	"github.com/okian/battlegrounds/internal/domain/leaderboard"
	"github.com/okian/battlegrounds/internal/domain/tv"
	"github.com/okian/battlegrounds/internal/seed"
	"github.com/okian/battlegrounds/pkg/logger"
	"github.com/okian/battlegrounds/pkg/metrics"
)

// Service implements the API dependencies for the contest system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    *repository.MemoryStore
	engine   *leaderboard.Engine
	deduper  dedupe.Deduper
	rotator  *tv.Rotator
	queue    eventqueue.Queue
	pool     *workerpool.Pool
	cancelFn context.CancelFunc

	// Serialises deal updates and sweeps so badge diffs and settlements see
	// consistent before/after states.
	updateMu sync.Mutex
	// Badges already announced, keyed by contest, agent and badge. Guarded
	// by updateMu.
	announced map[milestoneKey]struct{}

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	notificationLimit int
	rules             []leaderboard.Rule
	now               func() time.Time

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending submissions.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithNotificationLimit caps how many notifications the store keeps.
func WithNotificationLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.notificationLimit = limit
		}
	}
}

// WithRules replaces the default badge rules.
func WithRules(rules []leaderboard.Rule) Option {
	return func(s *Service) {
		if rules != nil {
			s.rules = rules
		}
	}
}

// WithClock overrides time.Now, for tests.
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

// New constructs a Service with an empty store. Call Load to seed it and
// Start to accept submissions.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10000,
		dedupeSize:  50000,
		rules:       leaderboard.DefaultRules(),
		now:         time.Now,
		announced:   make(map[milestoneKey]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	storeOpts := []repository.Option{repository.WithClock(s.now)}
	if s.notificationLimit > 0 {
		storeOpts = append(storeOpts, repository.WithNotificationLimit(s.notificationLimit))
	}
	s.store = repository.NewMemoryStore(storeOpts...)
	s.engine = leaderboard.New(leaderboard.WithRules(s.rules))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.rotator = tv.NewRotator(s.now)
	return s
}

// Store exposes the underlying store, mainly for tests and tooling.
func (s *Service) Store() *repository.MemoryStore { return s.store }

// Load replaces every collection with the dataset and selects its current
// contest, if any.
func (s *Service) Load(ctx context.Context, ds seed.Dataset) {
	s.store.ReplaceAgents(ctx, ds.Agents)
	s.store.ReplaceContests(ctx, ds.Contests)
	s.store.ReplaceDeals(ctx, ds.Deals)
	s.store.ReplaceBattles(ctx, ds.Battles)

	s.updateMu.Lock()
	clear(s.announced)
	s.updateMu.Unlock()

	s.store.ClearCurrentContest(ctx)
	if ds.CurrentContest != "" {
		if _, ok := s.store.SelectCurrentContest(ctx, ds.CurrentContest); !ok {
			s.logger.Warn(ctx, "seeded current contest not found",
				logger.String("contest_id", ds.CurrentContest),
			)
		}
	}

	s.logger.Info(ctx, "dataset loaded",
		logger.Int("agents", len(ds.Agents)),
		logger.Int("contests", len(ds.Contests)),
		logger.Int("deals", len(ds.Deals)),
		logger.Int("battles", len(ds.Battles)),
	)
}

// Start creates the submission queue and starts the worker pool. The pool
// outlives ctx; it stops on Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting contest service...")

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelFn = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "contest service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop closes the queue, waits for the workers to apply what is left and
// releases them.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping contest service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
		metrics.RecordErrorByComponent("service", "shutdown")
	}
	s.cancelFn()

	s.started = false
	s.logger.Info(ctx, "contest service stopped")
}

// Started reports whether the worker pool is running.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
