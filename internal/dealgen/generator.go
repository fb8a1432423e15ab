package dealgen

import (
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Premium bounds in whole dollars; generated amounts are multiples of 50.
const (
	minPremium  = 500
	maxPremium  = 15000
	premiumStep = 50
)

var linesOfBusiness = []string{"auto", "home", "life", "commercial", "umbrella", "renters"}

// Generate creates n deals spread over agentIDs. Each deal gets a fresh id,
// one or two lines of business and a premium in [500, 15000]. ratio of them,
// rounded down, are marked for approval.
func Generate(rng *rand.Rand, contestID string, agentIDs []string, n int, ratio float64) []Deal {
	if len(agentIDs) == 0 || n <= 0 {
		return nil
	}
	approve := int(float64(n) * ratio)
	deals := make([]Deal, n)
	for i := range deals {
		steps := rng.IntN((maxPremium-minPremium)/premiumStep + 1)
		lob := []string{linesOfBusiness[rng.IntN(len(linesOfBusiness))]}
		if rng.IntN(3) == 0 {
			if extra := linesOfBusiness[rng.IntN(len(linesOfBusiness))]; extra != lob[0] {
				lob = append(lob, extra)
			}
		}
		deals[i] = Deal{
			ID:              uuid.NewString(),
			AgentID:         agentIDs[rng.IntN(len(agentIDs))],
			ContestID:       contestID,
			Premium:         decimal.NewFromInt(int64(minPremium + steps*premiumStep)),
			LinesOfBusiness: lob,
			Notes:           "dealgen",
		}
	}
	for _, i := range rng.Perm(n)[:approve] {
		deals[i].Approve = true
	}
	return deals
}
