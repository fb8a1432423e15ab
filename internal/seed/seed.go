// Package seed loads the initial agents, contests, deals and battles, either
// from a YAML file or from the built-in demo dataset.
package seed

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// ErrInvalidSeed reports a seed document that does not describe a dataset.
var ErrInvalidSeed = errors.New("invalid seed")

// Dataset is a complete initial state.
type Dataset struct {
	Agents         []model.Agent
	Contests       []model.Contest
	Deals          []model.Deal
	Battles        []model.Battle
	CurrentContest string
}

type document struct {
	CurrentContest string       `yaml:"current_contest"`
	Agents         []agentDoc   `yaml:"agents"`
	Contests       []contestDoc `yaml:"contests"`
	Deals          []dealDoc    `yaml:"deals"`
	Battles        []battleDoc  `yaml:"battles"`
}

type agentDoc struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Email     string  `yaml:"email"`
	Office    string  `yaml:"office"`
	Level     string  `yaml:"level"`
	Rating    float64 `yaml:"rating"`
	IsActive  *bool   `yaml:"is_active"`
	CreatedAt string  `yaml:"created_at"`
}

type prizeDoc struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Threshold   float64 `yaml:"threshold"`
	Type        string  `yaml:"type"`
	IsUnlocked  bool    `yaml:"is_unlocked"`
}

type contestDoc struct {
	ID           string     `yaml:"id"`
	Name         string     `yaml:"name"`
	Description  string     `yaml:"description"`
	StartDate    string     `yaml:"start_date"`
	EndDate      string     `yaml:"end_date"`
	Goal         float64    `yaml:"goal"`
	Theme        string     `yaml:"theme"`
	IsActive     *bool      `yaml:"is_active"`
	Participants []string   `yaml:"participants"`
	Prizes       []prizeDoc `yaml:"prizes"`
	CreatedAt    string     `yaml:"created_at"`
}

type dealDoc struct {
	ID              string   `yaml:"id"`
	AgentID         string   `yaml:"agent_id"`
	ContestID       string   `yaml:"contest_id"`
	Premium         float64  `yaml:"premium"`
	LinesOfBusiness []string `yaml:"lines_of_business"`
	Notes           string   `yaml:"notes"`
	Date            string   `yaml:"date"`
	Status          string   `yaml:"status"`
	CreatedAt       string   `yaml:"created_at"`
}

type battleDoc struct {
	ID          string  `yaml:"id"`
	ContestID   string  `yaml:"contest_id"`
	Agent1ID    string  `yaml:"agent1_id"`
	Agent2ID    string  `yaml:"agent2_id"`
	StartDate   string  `yaml:"start_date"`
	EndDate     string  `yaml:"end_date"`
	Agent1Score float64 `yaml:"agent1_score"`
	Agent2Score float64 `yaml:"agent2_score"`
	Status      string  `yaml:"status"`
	WinnerID    string  `yaml:"winner_id"`
	CreatedAt   string  `yaml:"created_at"`
}

// Shift returns a copy of ds with every set timestamp moved by d.
func (ds Dataset) Shift(d time.Duration) Dataset {
	move := func(t time.Time) time.Time {
		if t.IsZero() {
			return t
		}
		return t.Add(d)
	}

	out := Dataset{
		Agents:         slices.Clone(ds.Agents),
		Contests:       slices.Clone(ds.Contests),
		Deals:          slices.Clone(ds.Deals),
		Battles:        slices.Clone(ds.Battles),
		CurrentContest: ds.CurrentContest,
	}
	for i := range out.Agents {
		out.Agents[i].CreatedAt = move(out.Agents[i].CreatedAt)
	}
	for i := range out.Contests {
		c := &out.Contests[i]
		c.StartDate, c.EndDate, c.CreatedAt = move(c.StartDate), move(c.EndDate), move(c.CreatedAt)
	}
	for i := range out.Deals {
		d := &out.Deals[i]
		d.Date, d.CreatedAt = move(d.Date), move(d.CreatedAt)
	}
	for i := range out.Battles {
		b := &out.Battles[i]
		b.StartDate, b.EndDate, b.CreatedAt = move(b.StartDate), move(b.EndDate), move(b.CreatedAt)
	}
	return out
}

// LoadFile reads a YAML dataset from path.
func LoadFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open seed %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse decodes a YAML dataset. Dates use YYYY-MM-DD or RFC 3339; an end date
// given as a plain day covers that whole day.
func Parse(r io.Reader) (Dataset, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Dataset{}, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	return doc.dataset()
}

func (doc document) dataset() (Dataset, error) {
	ds := Dataset{CurrentContest: doc.CurrentContest}
	p := &dateParser{}

	for _, a := range doc.Agents {
		ds.Agents = append(ds.Agents, model.Agent{
			ID:        a.ID,
			Name:      a.Name,
			Email:     a.Email,
			Office:    a.Office,
			Level:     a.Level,
			Rating:    a.Rating,
			IsActive:  a.IsActive == nil || *a.IsActive,
			CreatedAt: p.start("agent "+a.ID+" created_at", a.CreatedAt),
		})
	}

	for _, c := range doc.Contests {
		contest := model.Contest{
			ID:           c.ID,
			Name:         c.Name,
			Description:  c.Description,
			StartDate:    p.start("contest "+c.ID+" start_date", c.StartDate),
			EndDate:      p.end("contest "+c.ID+" end_date", c.EndDate),
			Goal:         decimal.NewFromFloat(c.Goal),
			Theme:        c.Theme,
			IsActive:     c.IsActive == nil || *c.IsActive,
			Participants: c.Participants,
			CreatedAt:    p.start("contest "+c.ID+" created_at", c.CreatedAt),
		}
		for _, pr := range c.Prizes {
			kind := model.PrizeType(pr.Type)
			if kind != model.PrizeFinal {
				kind = model.PrizeMilestone
			}
			contest.Prizes = append(contest.Prizes, model.Prize{
				ID:          pr.ID,
				Name:        pr.Name,
				Description: pr.Description,
				Threshold:   decimal.NewFromFloat(pr.Threshold),
				Type:        kind,
				IsUnlocked:  pr.IsUnlocked,
			})
		}
		ds.Contests = append(ds.Contests, contest)
	}

	for _, d := range doc.Deals {
		status := model.DealStatus(d.Status)
		if d.Status == "" {
			status = model.DealPending
		}
		if !status.Valid() {
			return Dataset{}, fmt.Errorf("%w: deal %s has unknown status %q", ErrInvalidSeed, d.ID, d.Status)
		}
		ds.Deals = append(ds.Deals, model.Deal{
			ID:              d.ID,
			AgentID:         d.AgentID,
			ContestID:       d.ContestID,
			Premium:         decimal.NewFromFloat(d.Premium),
			LinesOfBusiness: d.LinesOfBusiness,
			Notes:           d.Notes,
			Date:            p.start("deal "+d.ID+" date", d.Date),
			Status:          status,
			CreatedAt:       p.start("deal "+d.ID+" created_at", d.CreatedAt),
		})
	}

	for _, b := range doc.Battles {
		status := model.BattleStatus(b.Status)
		switch status {
		case "":
			status = model.BattleActive
		case model.BattleActive, model.BattleCompleted:
		default:
			return Dataset{}, fmt.Errorf("%w: battle %s has unknown status %q", ErrInvalidSeed, b.ID, b.Status)
		}
		ds.Battles = append(ds.Battles, model.Battle{
			ID:          b.ID,
			ContestID:   b.ContestID,
			Agent1ID:    b.Agent1ID,
			Agent2ID:    b.Agent2ID,
			StartDate:   p.start("battle "+b.ID+" start_date", b.StartDate),
			EndDate:     p.end("battle "+b.ID+" end_date", b.EndDate),
			Agent1Score: decimal.NewFromFloat(b.Agent1Score),
			Agent2Score: decimal.NewFromFloat(b.Agent2Score),
			Status:      status,
			WinnerID:    b.WinnerID,
			CreatedAt:   p.start("battle "+b.ID+" created_at", b.CreatedAt),
		})
	}

	if p.err != nil {
		return Dataset{}, p.err
	}
	return ds, nil
}

// dateParser keeps the first parse error so field conversion reads linearly.
type dateParser struct {
	err error
}

func (p *dateParser) parse(field, s string) (time.Time, bool) {
	if s == "" || p.err != nil {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		p.err = fmt.Errorf("%w: %s %q: %w", ErrInvalidSeed, field, s, err)
		return time.Time{}, false
	}
	return t, true
}

func (p *dateParser) start(field, s string) time.Time {
	t, _ := p.parse(field, s)
	return t
}

// end treats a bare date as the last instant of that day.
func (p *dateParser) end(field, s string) time.Time {
	t, dayOnly := p.parse(field, s)
	if dayOnly {
		return t.Add(24*time.Hour - time.Second)
	}
	return t
}
