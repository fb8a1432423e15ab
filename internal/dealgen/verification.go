package dealgen

import (
	"errors"
	"fmt"

	"github.com/okian/battlegrounds/internal/domain/leaderboard"
	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/internal/domain/types"
	"github.com/shopspring/decimal"
)

// Premium thresholds of the default badge tiers.
var (
	threshold25K = decimal.NewFromInt(25000)
	threshold30K = decimal.NewFromInt(30000)
)

// Verify compares after against baseline plus the approved deals. It checks
// every agent's total and deal count, that ranks run 1..n in descending
// total order and that the premium badges match the totals. All problems
// are reported together.
func Verify(baseline, after types.Board, deals []Deal) error {
	type want struct {
		total decimal.Decimal
		count int
	}
	expected := make(map[string]want, len(baseline.Entries))
	for _, e := range baseline.Entries {
		expected[e.Agent.ID] = want{total: e.TotalPremium, count: e.DealCount}
	}
	for _, d := range deals {
		if !d.Approve {
			continue
		}
		w := expected[d.AgentID]
		w.total = w.total.Add(d.Premium)
		w.count++
		expected[d.AgentID] = w
	}

	var errs []error
	if len(after.Entries) != len(baseline.Entries) {
		errs = append(errs, fmt.Errorf("%d entries, want %d", len(after.Entries), len(baseline.Entries)))
	}
	for i, e := range after.Entries {
		if e.Rank != i+1 {
			errs = append(errs, fmt.Errorf("entry %d has rank %d", i, e.Rank))
		}
		if i > 0 && e.TotalPremium.GreaterThan(after.Entries[i-1].TotalPremium) {
			errs = append(errs, fmt.Errorf("rank %d total %s exceeds rank %d total %s",
				e.Rank, model.FormatUSD(e.TotalPremium), i, model.FormatUSD(after.Entries[i-1].TotalPremium)))
		}
		w, ok := expected[e.Agent.ID]
		if !ok {
			errs = append(errs, fmt.Errorf("unexpected agent %s", e.Agent.ID))
			continue
		}
		if !e.TotalPremium.Equal(w.total) {
			errs = append(errs, fmt.Errorf("agent %s total %s, want %s",
				e.Agent.ID, model.FormatUSD(e.TotalPremium), model.FormatUSD(w.total)))
		}
		if e.DealCount != w.count {
			errs = append(errs, fmt.Errorf("agent %s has %d deals, want %d", e.Agent.ID, e.DealCount, w.count))
		}
		if e.HasBadge(leaderboard.Badge25K) != e.TotalPremium.GreaterThanOrEqual(threshold25K) {
			errs = append(errs, fmt.Errorf("agent %s 25k badge disagrees with total %s", e.Agent.ID, model.FormatUSD(e.TotalPremium)))
		}
		if e.HasBadge(leaderboard.Badge30K) != e.TotalPremium.GreaterThanOrEqual(threshold30K) {
			errs = append(errs, fmt.Errorf("agent %s 30k badge disagrees with total %s", e.Agent.ID, model.FormatUSD(e.TotalPremium)))
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrMismatch}, errs...)...)
	}
	return nil
}
