// Package dealgen drives a running Battle Grounds service over HTTP: it
// submits random deals for a contest, approves part of them and checks that
// the published leaderboard matches the approved totals.
package dealgen

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidConfig reports an unusable run configuration.
	ErrInvalidConfig = errors.New("invalid dealgen config")
	// ErrNoContest is returned when no contest id is given and none is selected.
	ErrNoContest = errors.New("no contest to submit deals to")
	// ErrMismatch reports a leaderboard that disagrees with the submitted deals.
	ErrMismatch = errors.New("leaderboard mismatch")
)

// Config holds configuration for a generator run.
type Config struct {
	BaseURL      string        // Base URL of the service
	ContestID    string        // Contest to submit to; the current contest when empty
	NumDeals     int           // Number of deals to generate
	Workers      int           // Number of concurrent requests
	ApproveRatio float64       // Share of deals approved, 0..1
	Timeout      time.Duration // HTTP request timeout
	SettleWait   time.Duration // How long to wait for queued deals to apply
	PollInterval time.Duration // Delay between settle checks
	OutputFile   string        // Optional JSON file the generated deals are written to
	Seed         uint64        // Random seed; 0 picks one from the clock
	Verbose      bool          // Log every request
}

// Validate checks the values Run depends on.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidConfig, errors.New("base url is required"))
	case c.NumDeals <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("deal count must be positive"))
	case c.Workers <= 0:
		return errors.Join(ErrInvalidConfig, errors.New("workers must be positive"))
	case c.ApproveRatio < 0 || c.ApproveRatio > 1:
		return errors.Join(ErrInvalidConfig, errors.New("approve ratio must be within 0..1"))
	}
	return nil
}

// Deal is a generated submission and the review decision taken for it.
type Deal struct {
	ID              string          `json:"id"`
	AgentID         string          `json:"agent_id"`
	ContestID       string          `json:"contest_id"`
	Premium         decimal.Decimal `json:"premium"`
	LinesOfBusiness []string        `json:"lines_of_business"`
	Notes           string          `json:"notes,omitempty"`
	Approve         bool            `json:"-"`
}

// Stats holds run statistics.
type Stats struct {
	DealsGenerated int
	DealsAccepted  int
	DealsDuplicate int
	DealsFailed    int
	DealsApproved  int
	ApprovedTotal  decimal.Decimal
	Entries        int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
