package scheduler

import (
	"time"

	"github.com/okian/battlegrounds/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithBattleSweep sets the cron spec of the battle settlement job.
func WithBattleSweep(spec string) Option {
	return func(s *Scheduler) { s.battleSpec = spec }
}

// WithContestSweep sets the cron spec of the contest close-out job.
func WithContestSweep(spec string) Option {
	return func(s *Scheduler) { s.contestSpec = spec }
}

// WithTVRotation sets how often the TV display advances; zero disables it.
func WithTVRotation(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.tvEvery = d
		}
	}
}

// WithLocation evaluates cron specs in loc instead of the local time zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.cron = cron.New(cron.WithLocation(loc))
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}
