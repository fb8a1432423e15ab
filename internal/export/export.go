// Package export flattens contest records into CSV for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/internal/domain/types"
)

const dateLayout = "2006-01-02"

// Kind names an exportable dataset.
type Kind string

const (
	KindDeals       Kind = "deals"
	KindLeaderboard Kind = "leaderboard"
	KindAgents      Kind = "agents"
)

// ParseKind validates a dataset name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDeals, KindLeaderboard, KindAgents:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Filename is the suggested download name for k.
func (k Kind) Filename() string {
	return string(k) + "-export.csv"
}

// Deals writes one row per deal with the agent name resolved by name.
func Deals(w io.Writer, deals []model.Deal, name func(agentID string) string) error {
	rows := make([][]string, 0, len(deals)+1)
	rows = append(rows, []string{"id", "agent", "premium", "lines_of_business", "date", "status", "notes"})
	for _, d := range deals {
		rows = append(rows, []string{
			d.ID,
			name(d.AgentID),
			d.Premium.String(),
			strings.Join(d.LinesOfBusiness, ", "),
			formatDate(d.Date),
			string(d.Status),
			d.Notes,
		})
	}
	return write(w, rows)
}

// Leaderboard writes ranked entries in rank order.
func Leaderboard(w io.Writer, entries []types.Entry) error {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, []string{"rank", "name", "office", "level", "total_premium", "deals", "goal_percentage", "badges"})
	for _, e := range entries {
		badges := make([]string, 0, len(e.Badges))
		for _, b := range e.Badges {
			badges = append(badges, b.Name)
		}
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			e.Agent.Name,
			e.Agent.Office,
			e.Agent.Level,
			e.TotalPremium.String(),
			strconv.Itoa(e.DealCount),
			strconv.FormatFloat(e.GoalPercentage, 'f', 2, 64),
			strings.Join(badges, ", "),
		})
	}
	return write(w, rows)
}

// Agents writes the agent roster.
func Agents(w io.Writer, agents []model.Agent) error {
	rows := make([][]string, 0, len(agents)+1)
	rows = append(rows, []string{"name", "email", "office", "level", "rating", "is_active"})
	for _, a := range agents {
		rows = append(rows, []string{
			a.Name,
			a.Email,
			a.Office,
			a.Level,
			strconv.FormatFloat(a.Rating, 'f', -1, 64),
			strconv.FormatBool(a.IsActive),
		})
	}
	return write(w, rows)
}

func write(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
