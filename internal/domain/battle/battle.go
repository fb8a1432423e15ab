// Package battle derives head-to-head progress and settles finished battles.
package battle

import (
	"fmt"
	"time"

	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Progress is a battle with each side's share of the combined score.
type Progress struct {
	model.Battle
	Agent1Name       string  `json:"agent1_name"`
	Agent2Name       string  `json:"agent2_name"`
	Agent1Percentage float64 `json:"agent1_percentage"`
	Agent2Percentage float64 `json:"agent2_percentage"`
}

// NameFunc resolves an agent id to a display name.
type NameFunc func(agentID string) string

// Shares returns each side's percentage of the combined score. A battle with
// no score yet is split evenly.
func Shares(b model.Battle) (agent1, agent2 float64) {
	total := b.Agent1Score.Add(b.Agent2Score)
	if !total.IsPositive() {
		return 50, 50
	}
	agent1 = b.Agent1Score.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
	return agent1, 100 - agent1
}

// WithProgress decorates battles with names and shares.
func WithProgress(battles []model.Battle, name NameFunc) []Progress {
	out := make([]Progress, 0, len(battles))
	for _, b := range battles {
		p1, p2 := Shares(b)
		out = append(out, Progress{
			Battle:           b,
			Agent1Name:       name(b.Agent1ID),
			Agent2Name:       name(b.Agent2ID),
			Agent1Percentage: p1,
			Agent2Percentage: p2,
		})
	}
	return out
}

// Due reports whether b is still active although its end date has passed.
func Due(b model.Battle, now time.Time) bool {
	return b.Status == model.BattleActive && !b.EndDate.IsZero() && now.After(b.EndDate)
}

// Settle completes b and picks the higher score as winner. Equal scores
// complete the battle without a winner.
func Settle(b model.Battle) model.Battle {
	b.Status = model.BattleCompleted
	switch b.Agent1Score.Cmp(b.Agent2Score) {
	case 1:
		b.WinnerID = b.Agent1ID
	case -1:
		b.WinnerID = b.Agent2ID
	default:
		b.WinnerID = ""
	}
	return b
}

// Announcement builds the notification for a settled battle.
func Announcement(b model.Battle, name NameFunc) model.Notification {
	n := model.Notification{
		Type:      model.NotificationBattle,
		Title:     "Battle Complete",
		ContestID: b.ContestID,
	}
	a1, a2 := name(b.Agent1ID), name(b.Agent2ID)
	switch b.WinnerID {
	case "":
		n.Message = fmt.Sprintf("%s and %s battled to a draw at %s", a1, a2, model.FormatUSD(b.Agent1Score))
	case b.Agent1ID:
		n.AgentID = b.Agent1ID
		n.Message = fmt.Sprintf("%s beat %s %s to %s", a1, a2, model.FormatUSD(b.Agent1Score), model.FormatUSD(b.Agent2Score))
	default:
		n.AgentID = b.Agent2ID
		n.Message = fmt.Sprintf("%s beat %s %s to %s", a2, a1, model.FormatUSD(b.Agent2Score), model.FormatUSD(b.Agent1Score))
	}
	return n
}
