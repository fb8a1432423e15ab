package leaderboard

import (
	"github.com/okian/battlegrounds/internal/domain/types"
	"github.com/shopspring/decimal"
)

// Metrics are the per-agent aggregates a badge rule is evaluated against.
type Metrics struct {
	TotalPremium   decimal.Decimal
	DealCount      int
	GoalPercentage float64
}

// Rule awards Badge when Earned returns true. Rules are evaluated in slice
// order and are independent of each other, so several can match at once.
type Rule struct {
	Badge  types.Badge
	Earned func(Metrics) bool
}

// Badge ids of the default rule set.
const (
	Badge25K  = "25k"
	Badge30K  = "30k"
	BadgeGoal = "goal"
)

// PremiumAtLeast matches when the approved premium total reaches threshold.
func PremiumAtLeast(threshold decimal.Decimal) func(Metrics) bool {
	return func(m Metrics) bool {
		return m.TotalPremium.GreaterThanOrEqual(threshold)
	}
}

// GoalAtLeast matches when the goal percentage reaches pct.
func GoalAtLeast(pct float64) func(Metrics) bool {
	return func(m Metrics) bool {
		return m.GoalPercentage >= pct
	}
}

// DefaultRules returns the standard badge tiers in display order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Badge:  types.Badge{ID: Badge25K, Name: "25K Club", Icon: "🏆", Color: "gold", Description: "Reached $25K in premium"},
			Earned: PremiumAtLeast(decimal.NewFromInt(25000)),
		},
		{
			Badge:  types.Badge{ID: Badge30K, Name: "30K Qualifier", Icon: "💪", Color: "green", Description: "Reached $30K in premium"},
			Earned: PremiumAtLeast(decimal.NewFromInt(30000)),
		},
		{
			Badge:  types.Badge{ID: BadgeGoal, Name: "Goal Achiever", Icon: "🎯", Color: "blue", Description: "Achieved contest goal"},
			Earned: GoalAtLeast(100),
		},
	}
}

// evaluate returns a fresh badge slice for m. It is never nil so entries
// always serialise badges as a list.
func evaluate(rules []Rule, m Metrics) []types.Badge {
	badges := make([]types.Badge, 0, len(rules))
	for _, r := range rules {
		if r.Earned != nil && r.Earned(m) {
			badges = append(badges, r.Badge)
		}
	}
	return badges
}
