// Package scheduler runs the periodic contest housekeeping jobs: settling
// finished battles, closing ended contests and rotating the TV display.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/battlegrounds/internal/domain/tv"
	"github.com/okian/battlegrounds/pkg/logger"
	"github.com/okian/battlegrounds/pkg/metrics"
	"github.com/robfig/cron/v3"
)

// Job names used in logs and metrics.
const (
	JobBattleSweep  = "battle_sweep"
	JobContestSweep = "contest_sweep"
	JobTVRotation   = "tv_rotation"
)

var (
	// ErrAlreadyStarted is returned by Start on a running scheduler.
	ErrAlreadyStarted = errors.New("scheduler already started")
	// ErrUnknownJob is returned by Run for a name that is not registered.
	ErrUnknownJob = errors.New("unknown scheduler job")
)

// Jobs is the work the scheduler drives.
type Jobs interface {
	SettleBattles(ctx context.Context) int
	CloseContests(ctx context.Context) int
	RotateTV(ctx context.Context) tv.View
}

// Scheduler wraps a cron runner bound to a Jobs implementation.
type Scheduler struct {
	cron   *cron.Cron
	jobs   Jobs
	logger logger.Logger

	battleSpec  string
	contestSpec string
	tvEvery     time.Duration

	mu      sync.Mutex
	ctx     context.Context
	started bool
	funcs   map[string]func(context.Context)
}

// New builds a Scheduler and registers its jobs. An empty cron spec or a
// zero rotation interval leaves that job unscheduled; it can still be
// triggered with Run.
func New(jobs Jobs, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		jobs:    jobs,
		logger:  logger.Get().Named("scheduler"),
		ctx:     context.Background(),
		tvEvery: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.funcs = map[string]func(context.Context){
		JobBattleSweep: func(ctx context.Context) {
			if n := s.jobs.SettleBattles(ctx); n > 0 {
				s.logger.Info(ctx, "battles settled", logger.Int("count", n))
			}
		},
		JobContestSweep: func(ctx context.Context) {
			if n := s.jobs.CloseContests(ctx); n > 0 {
				s.logger.Info(ctx, "contests closed", logger.Int("count", n))
			}
		},
		JobTVRotation: func(ctx context.Context) {
			view := s.jobs.RotateTV(ctx)
			s.logger.Debug(ctx, "tv rotated", logger.String("view", string(view)))
		},
	}

	if s.battleSpec != "" {
		if _, err := s.cron.AddFunc(s.battleSpec, s.wrap(JobBattleSweep)); err != nil {
			return nil, fmt.Errorf("register %s %q: %w", JobBattleSweep, s.battleSpec, err)
		}
	}
	if s.contestSpec != "" {
		if _, err := s.cron.AddFunc(s.contestSpec, s.wrap(JobContestSweep)); err != nil {
			return nil, fmt.Errorf("register %s %q: %w", JobContestSweep, s.contestSpec, err)
		}
	}
	if s.tvEvery > 0 {
		s.cron.Schedule(cron.Every(s.tvEvery), cron.FuncJob(s.wrap(JobTVRotation)))
	}
	return s, nil
}

// Start runs the registered jobs in the background. Jobs receive ctx
// detached from its cancellation; Stop ends them.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.ctx = context.WithoutCancel(ctx)
	s.started = true
	s.cron.Start()
	s.logger.Info(ctx, "scheduler started",
		logger.Int("entries", len(s.cron.Entries())),
		logger.String("battle_sweep", s.battleSpec),
		logger.String("contest_sweep", s.contestSpec),
		logger.Duration("tv_rotation", s.tvEvery))
	return nil
}

// Stop halts the cron runner and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info(ctx, "scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes the named job once, synchronously.
func (s *Scheduler) Run(ctx context.Context, job string) error {
	if _, ok := s.funcs[job]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, job)
	}
	return s.run(ctx, job)
}

// RunSweeps settles due battles and closes ended contests once. It is used at
// startup so state loaded from a seed is consistent before the first tick.
func (s *Scheduler) RunSweeps(ctx context.Context) error {
	return errors.Join(s.run(ctx, JobBattleSweep), s.run(ctx, JobContestSweep))
}

func (s *Scheduler) wrap(job string) func() {
	return func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()
		_ = s.run(ctx, job)
	}
}

func (s *Scheduler) run(ctx context.Context, job string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", job, r)
			s.logger.Error(ctx, "scheduled job failed", logger.String("job", job), logger.Error(err))
		}
		metrics.RecordSchedulerJob(job, err != nil)
	}()
	s.funcs[job](ctx)
	return nil
}
