package leaderboard

import (
	"slices"
	"time"

	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/internal/domain/types"
	"github.com/okian/battlegrounds/pkg/metrics"
)

// Source is a consistent view of the collections the engine reads.
// Implementations must return the same data for the duration of a call.
type Source interface {
	Agents() []model.Agent
	Contests() []model.Contest
	Deals() []model.Deal
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRules replaces the default badge rules. An empty list disables badges.
func WithRules(rules []Rule) Option {
	return func(e *Engine) {
		e.rules = slices.Clone(rules)
	}
}

// Engine binds a badge rule set to the pure leaderboard functions and records
// computation metrics. It holds no per-call state.
type Engine struct {
	rules []Rule
}

// New creates an Engine using DefaultRules unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{rules: DefaultRules()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns a copy of the configured rules.
func (e *Engine) Rules() []Rule {
	return slices.Clone(e.rules)
}

// Leaderboard computes the standings of contestID from src.
func (e *Engine) Leaderboard(src Source, contestID string) types.Standings {
	start := time.Now()
	s := ForContest(contestID, src.Contests(), src.Agents(), src.Deals(), e.rules)
	metrics.RecordLeaderboardComputation(float64(time.Since(start).Microseconds()) / 1000)
	return s
}

// Compute ranks contest directly from src.
func (e *Engine) Compute(src Source, contest model.Contest) []types.Entry {
	return Compute(contest, src.Agents(), src.Deals(), e.rules)
}
