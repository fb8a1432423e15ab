package leaderboard

import (
	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/internal/domain/types"
	"github.com/shopspring/decimal"
)

// Award is a badge an agent holds in one leaderboard but not in an earlier one.
type Award struct {
	Agent model.Agent
	Badge types.Badge
}

// NewlyEarned compares two computations of the same contest and returns the
// badges present in after but missing from before, in after's entry order and
// badge order.
func NewlyEarned(before, after []types.Entry) []Award {
	held := make(map[string]map[string]struct{}, len(before))
	for _, e := range before {
		ids := make(map[string]struct{}, len(e.Badges))
		for _, b := range e.Badges {
			ids[b.ID] = struct{}{}
		}
		held[e.Agent.ID] = ids
	}

	var awards []Award
	for _, e := range after {
		prev := held[e.Agent.ID]
		for _, b := range e.Badges {
			if _, ok := prev[b.ID]; ok {
				continue
			}
			awards = append(awards, Award{Agent: e.Agent, Badge: b})
		}
	}
	return awards
}

// UnlockedPrizes returns a copy of the contest prizes with IsUnlocked set.
// A milestone prize unlocks once any single agent reaches its threshold; the
// final prize unlocks once the combined approved premium does. Prizes already
// marked unlocked stay unlocked.
func UnlockedPrizes(contest model.Contest, entries []types.Entry) []model.Prize {
	best := decimal.Zero
	combined := decimal.Zero
	for _, e := range entries {
		if e.TotalPremium.GreaterThan(best) {
			best = e.TotalPremium
		}
		combined = combined.Add(e.TotalPremium)
	}

	prizes := make([]model.Prize, len(contest.Prizes))
	for i, p := range contest.Prizes {
		switch p.Type {
		case model.PrizeFinal:
			p.IsUnlocked = p.IsUnlocked || combined.GreaterThanOrEqual(p.Threshold)
		default:
			p.IsUnlocked = p.IsUnlocked || best.GreaterThanOrEqual(p.Threshold)
		}
		prizes[i] = p
	}
	return prizes
}
