// Package types contains the derived leaderboard types returned to callers.
package types

import (
	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Badge is an achievement marker shown next to a leaderboard entry.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// Entry represents one agent's row on a contest leaderboard.
type Entry struct {
	Rank           int             `json:"rank"`
	Agent          model.Agent     `json:"agent"`
	TotalPremium   decimal.Decimal `json:"total_premium"`
	DealCount      int             `json:"deal_count"`
	GoalPercentage float64         `json:"goal_percentage"`
	Badges         []Badge         `json:"badges"`
}

// HasBadge reports whether the entry carries the badge with the given id.
func (e Entry) HasBadge(id string) bool {
	for _, b := range e.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

// Standings is the leaderboard for one contest. Found is false when the
// contest id did not resolve, which distinguishes it from an empty roster.
type Standings struct {
	ContestID string  `json:"contest_id"`
	Found     bool    `json:"found"`
	Entries   []Entry `json:"entries"`
}

// Top returns at most n entries. n <= 0 returns all of them.
func (s Standings) Top(n int) []Entry {
	if n <= 0 || n >= len(s.Entries) {
		return s.Entries
	}
	return s.Entries[:n]
}

// Board is a contest leaderboard together with its prize state.
type Board struct {
	Standings
	Prizes []model.Prize `json:"prizes"`
}
