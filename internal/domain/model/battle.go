package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BattleStatus is the lifecycle state of a head-to-head battle.
type BattleStatus string

const (
	BattleActive    BattleStatus = "active"
	BattleCompleted BattleStatus = "completed"
)

// Battle compares two agents within a contest. Scores are supplied data,
// not derived from deals.
type Battle struct {
	ID          string          `json:"id"`
	ContestID   string          `json:"contest_id"`
	Agent1ID    string          `json:"agent1_id"`
	Agent2ID    string          `json:"agent2_id"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	Agent1Score decimal.Decimal `json:"agent1_score"`
	Agent2Score decimal.Decimal `json:"agent2_score"`
	Status      BattleStatus    `json:"status"`
	WinnerID    string          `json:"winner_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
