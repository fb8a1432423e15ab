// Package leaderboard computes ranked contest standings from agents, contests
// and deals.
//
// Every function here is pure: inputs are never mutated, nothing is cached,
// and identical inputs produce identical output.
package leaderboard

import (
	"slices"

	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/internal/domain/types"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type tally struct {
	total decimal.Decimal
	count int
}

// Compute ranks the participants of contest.
//
// Only approved deals of this contest are counted. Participants keep the
// order of agents and appear even with no deals. Entries are sorted by total
// premium descending; equal totals keep agent order and still receive
// distinct consecutive ranks.
func Compute(contest model.Contest, agents []model.Agent, deals []model.Deal, rules []Rule) []types.Entry {
	tallies := make(map[string]tally)
	for _, d := range deals {
		if d.ContestID != contest.ID || d.Status != model.DealApproved {
			continue
		}
		t := tallies[d.AgentID]
		t.total = t.total.Add(d.Premium)
		t.count++
		tallies[d.AgentID] = t
	}

	entries := make([]types.Entry, 0, len(contest.Participants))
	for _, a := range agents {
		if !contest.HasParticipant(a.ID) {
			continue
		}
		t := tallies[a.ID]
		pct := GoalPercentage(t.total, contest.Goal)
		entries = append(entries, types.Entry{
			Agent:          a,
			TotalPremium:   t.total,
			DealCount:      t.count,
			GoalPercentage: pct,
			Badges:         evaluate(rules, Metrics{TotalPremium: t.total, DealCount: t.count, GoalPercentage: pct}),
		})
	}

	slices.SortStableFunc(entries, func(a, b types.Entry) int {
		return b.TotalPremium.Cmp(a.TotalPremium)
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// ForContest resolves contestID and computes its standings. An unknown id
// yields Found=false and no entries.
func ForContest(contestID string, contests []model.Contest, agents []model.Agent, deals []model.Deal, rules []Rule) types.Standings {
	idx := slices.IndexFunc(contests, func(c model.Contest) bool { return c.ID == contestID })
	if idx < 0 {
		return types.Standings{ContestID: contestID, Entries: []types.Entry{}}
	}
	return types.Standings{
		ContestID: contestID,
		Found:     true,
		Entries:   Compute(contests[idx], agents, deals, rules),
	}
}

// GoalPercentage returns total/goal*100, or 0 when goal is not positive.
func GoalPercentage(total, goal decimal.Decimal) float64 {
	if !goal.IsPositive() {
		return 0
	}
	return total.Div(goal).Mul(hundred).InexactFloat64()
}
