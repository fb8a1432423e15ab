// Package repository holds the in-memory contest state store.
package repository

import (
	"slices"
	"time"

	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/pkg/metrics"
)

// Snapshot is an immutable view of every collection at one point in time.
// Slices returned by its accessors are copies and may be modified freely.
type Snapshot struct {
	version          uint64
	agents           []model.Agent
	contests         []model.Contest
	deals            []model.Deal
	battles          []model.Battle
	notifications    []model.Notification
	currentContestID string
}

// Version increases by one with every mutation of the store.
func (s *Snapshot) Version() uint64 { return s.version }

// Agents returns a copy of the agents in insertion order, which is also the
// leaderboard tie-break order.
func (s *Snapshot) Agents() []model.Agent { return slices.Clone(s.agents) }

// Contests returns a copy of every contest.
func (s *Snapshot) Contests() []model.Contest { return slices.Clone(s.contests) }

// Deals returns a copy of every deal, whatever its status.
func (s *Snapshot) Deals() []model.Deal { return slices.Clone(s.deals) }

// Battles returns a copy of every battle, active or completed.
func (s *Snapshot) Battles() []model.Battle { return slices.Clone(s.battles) }

// Notifications returns a copy of the feed, oldest first.
func (s *Snapshot) Notifications() []model.Notification { return slices.Clone(s.notifications) }

// Agent looks up an agent by id.
func (s *Snapshot) Agent(id string) (model.Agent, bool) {
	i := slices.IndexFunc(s.agents, func(a model.Agent) bool { return a.ID == id })
	if i < 0 {
		return model.Agent{}, false
	}
	return s.agents[i], true
}

// AgentName returns the agent's display name or model.UnknownAgentName.
func (s *Snapshot) AgentName(id string) string {
	if a, ok := s.Agent(id); ok {
		return a.Name
	}
	return model.UnknownAgentName
}

// Contest looks up a contest by id.
func (s *Snapshot) Contest(id string) (model.Contest, bool) {
	i := slices.IndexFunc(s.contests, func(c model.Contest) bool { return c.ID == id })
	if i < 0 {
		return model.Contest{}, false
	}
	return s.contests[i].Clone(), true
}

// Deal looks up the first deal with id.
func (s *Snapshot) Deal(id string) (model.Deal, bool) {
	i := slices.IndexFunc(s.deals, func(d model.Deal) bool { return d.ID == id })
	if i < 0 {
		return model.Deal{}, false
	}
	return s.deals[i].Clone(), true
}

// Battle looks up a battle by id.
func (s *Snapshot) Battle(id string) (model.Battle, bool) {
	i := slices.IndexFunc(s.battles, func(b model.Battle) bool { return b.ID == id })
	if i < 0 {
		return model.Battle{}, false
	}
	return s.battles[i], true
}

// CurrentContest returns the selected contest, if one is selected and still
// present.
func (s *Snapshot) CurrentContest() (model.Contest, bool) {
	if s.currentContestID == "" {
		return model.Contest{}, false
	}
	return s.Contest(s.currentContestID)
}

// DealsForAgentInContest returns every deal of agentID in contestID,
// whatever its status.
func (s *Snapshot) DealsForAgentInContest(agentID, contestID string) []model.Deal {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	out := make([]model.Deal, 0)
	for _, d := range s.deals {
		if d.AgentID == agentID && d.ContestID == contestID {
			out = append(out, d.Clone())
		}
	}
	return out
}

// ActiveBattlesForContest returns the active battles of contestID.
func (s *Snapshot) ActiveBattlesForContest(contestID string) []model.Battle {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	out := make([]model.Battle, 0)
	for _, b := range s.battles {
		if b.ContestID == contestID && b.Status == model.BattleActive {
			out = append(out, b)
		}
	}
	return out
}

// UnreadNotifications returns notifications not yet marked read, oldest first.
func (s *Snapshot) UnreadNotifications() []model.Notification {
	out := make([]model.Notification, 0)
	for _, n := range s.notifications {
		if !n.IsRead {
			out = append(out, n)
		}
	}
	return out
}

// Counts reports the size of each collection keyed by collection name.
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		"agents":        len(s.agents),
		"contests":      len(s.contests),
		"deals":         len(s.deals),
		"battles":       len(s.battles),
		"notifications": len(s.notifications),
	}
}
