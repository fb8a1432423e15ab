// Package model contains the contest domain records shared between layers.
//
// Money is always decimal.Decimal; percentages are float64.
package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Agent is a contest participant. The core only ever reads agents.
type Agent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Office    string    `json:"office"`
	Level     string    `json:"level"`
	Rating    float64   `json:"rating"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// PrizeType distinguishes milestone prizes from the final prize.
type PrizeType string

const (
	PrizeMilestone PrizeType = "milestone"
	PrizeFinal     PrizeType = "final"
)

// Prize is unlocked once its threshold of approved premium is reached.
type Prize struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Threshold   decimal.Decimal `json:"threshold"`
	Type        PrizeType       `json:"type"`
	IsUnlocked  bool            `json:"is_unlocked"`
}

// Contest is a competition window with a premium goal and a fixed roster.
type Contest struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	Goal         decimal.Decimal `json:"goal"`
	Theme        string          `json:"theme"`
	IsActive     bool            `json:"is_active"`
	Participants []string        `json:"participants"`
	Prizes       []Prize         `json:"prizes,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// HasParticipant reports whether agentID is on the contest roster.
func (c Contest) HasParticipant(agentID string) bool {
	return slices.Contains(c.Participants, agentID)
}

// Ended reports whether the contest end date is before now.
// A zero end date never ends.
func (c Contest) Ended(now time.Time) bool {
	return !c.EndDate.IsZero() && now.After(c.EndDate)
}

// Clone returns a deep copy so snapshots never share slices with callers.
func (c Contest) Clone() Contest {
	c.Participants = slices.Clone(c.Participants)
	c.Prizes = slices.Clone(c.Prizes)
	return c
}
