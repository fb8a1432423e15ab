package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// DealStatus is the approval state of a deal.
type DealStatus string

const (
	DealPending  DealStatus = "pending"
	DealApproved DealStatus = "approved"
	DealRejected DealStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s DealStatus) Valid() bool {
	switch s {
	case DealPending, DealApproved, DealRejected:
		return true
	}
	return false
}

// Deal is a single sale attributed to one agent within one contest.
// Only approved deals count towards standings.
type Deal struct {
	ID              string          `json:"id"`
	AgentID         string          `json:"agent_id"`
	ContestID       string          `json:"contest_id"`
	Premium         decimal.Decimal `json:"premium"`
	LinesOfBusiness []string        `json:"lines_of_business"`
	Notes           string          `json:"notes,omitempty"`
	Date            time.Time       `json:"date"`
	Status          DealStatus      `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Clone returns a copy that does not share the lines-of-business slice.
func (d Deal) Clone() Deal {
	d.LinesOfBusiness = slices.Clone(d.LinesOfBusiness)
	return d
}

// DealPatch holds the fields merged into a deal by an update. Nil fields are
// left untouched.
type DealPatch struct {
	Status          *DealStatus
	Premium         *decimal.Decimal
	LinesOfBusiness []string
	Notes           *string
	Date            *time.Time
}

// Apply merges p into d and returns the result.
func (p DealPatch) Apply(d Deal) Deal {
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Premium != nil {
		d.Premium = *p.Premium
	}
	if p.LinesOfBusiness != nil {
		d.LinesOfBusiness = slices.Clone(p.LinesOfBusiness)
	}
	if p.Notes != nil {
		d.Notes = *p.Notes
	}
	if p.Date != nil {
		d.Date = *p.Date
	}
	return d
}

// StatusPatch is shorthand for a patch that only changes the status.
func StatusPatch(status DealStatus) DealPatch {
	return DealPatch{Status: &status}
}

// Submission is an inbound "submit deal" request after boundary validation.
type Submission struct {
	ID              string
	AgentID         string
	ContestID       string
	Premium         decimal.Decimal
	LinesOfBusiness []string
	Notes           string
	Date            time.Time
}

// ToDeal turns the submission into a pending deal created at now.
func (s Submission) ToDeal(now time.Time) Deal {
	date := s.Date
	if date.IsZero() {
		date = now
	}
	return Deal{
		ID:              s.ID,
		AgentID:         s.AgentID,
		ContestID:       s.ContestID,
		Premium:         s.Premium,
		LinesOfBusiness: slices.Clone(s.LinesOfBusiness),
		Notes:           s.Notes,
		Date:            date,
		Status:          DealPending,
		CreatedAt:       now,
	}
}
