package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/pkg/metrics"
)

// Notification titles produced by the store.
const titleDealSubmitted = "New Deal Submitted"

// MemoryStore owns the contest collections.
//
// Writers are serialised by mu and never modify a published snapshot: each
// mutation copies the collections it touches into a new Snapshot and swaps it
// in atomically. Readers load the current snapshot without locking, so a
// caller that holds one sees a consistent state for as long as it likes.
//
// The store never fails on missing references; unknown ids are no-ops.
type MemoryStore struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[Snapshot]

	now               func() time.Time
	newID             func() string
	notificationLimit int
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{})
	return s
}

// Snapshot returns the current read-only state.
func (s *MemoryStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// update applies fn to a shallow copy of the current snapshot and publishes
// it. fn must replace, not modify, any slice it changes.
func (s *MemoryStore) update(fn func(next *Snapshot) bool) (*Snapshot, bool) {
	start := time.Now()
	s.mu.Lock()
	cur := s.snapshot.Load()
	next := *cur
	if !fn(&next) {
		s.mu.Unlock()
		return cur, false
	}
	next.version = cur.version + 1
	s.snapshot.Store(&next)
	s.mu.Unlock()

	metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	for collection, n := range next.Counts() {
		metrics.UpdateStoreRecords(collection, n)
	}
	metrics.UpdateUnreadNotifications(len(next.UnreadNotifications()))
	return &next, true
}

// ReplaceAgents overwrites the agent collection.
func (s *MemoryStore) ReplaceAgents(_ context.Context, agents []model.Agent) *Snapshot {
	snap, _ := s.update(func(next *Snapshot) bool {
		next.agents = slices.Clone(agents)
		return true
	})
	return snap
}

// ReplaceContests overwrites the contest collection.
func (s *MemoryStore) ReplaceContests(_ context.Context, contests []model.Contest) *Snapshot {
	snap, _ := s.update(func(next *Snapshot) bool {
		next.contests = make([]model.Contest, len(contests))
		for i, c := range contests {
			next.contests[i] = c.Clone()
		}
		return true
	})
	return snap
}

// ReplaceDeals overwrites the deal collection.
func (s *MemoryStore) ReplaceDeals(_ context.Context, deals []model.Deal) *Snapshot {
	snap, _ := s.update(func(next *Snapshot) bool {
		next.deals = make([]model.Deal, len(deals))
		for i, d := range deals {
			next.deals[i] = d.Clone()
		}
		return true
	})
	return snap
}

// ReplaceBattles overwrites the battle collection.
func (s *MemoryStore) ReplaceBattles(_ context.Context, battles []model.Battle) *Snapshot {
	snap, _ := s.update(func(next *Snapshot) bool {
		next.battles = slices.Clone(battles)
		return true
	})
	return snap
}

// ReplaceNotifications overwrites the notification feed.
func (s *MemoryStore) ReplaceNotifications(_ context.Context, notifications []model.Notification) *Snapshot {
	snap, _ := s.update(func(next *Snapshot) bool {
		next.notifications = s.trim(slices.Clone(notifications))
		return true
	})
	return snap
}

// AddDeal appends deal and a "deal" notification naming the submitting agent.
// Duplicate ids are not rejected.
func (s *MemoryStore) AddDeal(_ context.Context, deal model.Deal) *Snapshot {
	snap, _ := s.update(func(next *Snapshot) bool {
		next.deals = append(slices.Clip(next.deals), deal.Clone())
		next.notifications = s.appendNotification(next.notifications, model.Notification{
			Type:      model.NotificationDeal,
			Title:     titleDealSubmitted,
			Message:   fmt.Sprintf("%s deal submitted by %s", model.FormatUSD(deal.Premium), next.AgentName(deal.AgentID)),
			AgentID:   deal.AgentID,
			ContestID: deal.ContestID,
		})
		return true
	})
	metrics.RecordNotification(string(model.NotificationDeal))
	return snap
}

// UpdateDeal merges patch into every deal with id. The boolean reports whether
// any deal matched; an unknown id leaves the store untouched.
func (s *MemoryStore) UpdateDeal(_ context.Context, id string, patch model.DealPatch) (*Snapshot, bool) {
	return s.update(func(next *Snapshot) bool {
		if !slices.ContainsFunc(next.deals, func(d model.Deal) bool { return d.ID == id }) {
			return false
		}
		deals := make([]model.Deal, len(next.deals))
		for i, d := range next.deals {
			if d.ID == id {
				d = patch.Apply(d)
			}
			deals[i] = d
		}
		next.deals = deals
		return true
	})
}

// UpdateBattle replaces the battle with id by fn's result.
func (s *MemoryStore) UpdateBattle(_ context.Context, id string, fn func(model.Battle) model.Battle) (*Snapshot, bool) {
	return s.update(func(next *Snapshot) bool {
		i := slices.IndexFunc(next.battles, func(b model.Battle) bool { return b.ID == id })
		if i < 0 {
			return false
		}
		battles := slices.Clone(next.battles)
		battles[i] = fn(battles[i])
		next.battles = battles
		return true
	})
}

// UpdateContest replaces the contest with id by fn's result.
func (s *MemoryStore) UpdateContest(_ context.Context, id string, fn func(model.Contest) model.Contest) (*Snapshot, bool) {
	return s.update(func(next *Snapshot) bool {
		i := slices.IndexFunc(next.contests, func(c model.Contest) bool { return c.ID == id })
		if i < 0 {
			return false
		}
		contests := slices.Clone(next.contests)
		contests[i] = fn(contests[i].Clone())
		next.contests = contests
		return true
	})
}

// SelectCurrentContest points the store at contest id. Unknown ids are
// ignored and reported as false.
func (s *MemoryStore) SelectCurrentContest(_ context.Context, id string) (*Snapshot, bool) {
	snap, ok := s.update(func(next *Snapshot) bool {
		if _, found := next.Contest(id); !found {
			return false
		}
		next.currentContestID = id
		return true
	})
	if ok {
		metrics.UpdateCurrentContestSelected(true)
	}
	return snap, ok
}

// ClearCurrentContest removes the current contest selection.
func (s *MemoryStore) ClearCurrentContest(_ context.Context) *Snapshot {
	snap, _ := s.update(func(next *Snapshot) bool {
		next.currentContestID = ""
		return true
	})
	metrics.UpdateCurrentContestSelected(false)
	return snap
}

// CurrentContest returns the selected contest.
func (s *MemoryStore) CurrentContest(_ context.Context) (model.Contest, bool) {
	return s.Snapshot().CurrentContest()
}

// AddNotification appends n to the feed, filling in id and timestamp when
// missing.
func (s *MemoryStore) AddNotification(_ context.Context, n model.Notification) *Snapshot {
	snap, _ := s.update(func(next *Snapshot) bool {
		next.notifications = s.appendNotification(next.notifications, n)
		return true
	})
	metrics.RecordNotification(string(n.Type))
	return snap
}

// MarkNotificationRead flags the notification with id as read. Unknown ids are
// a no-op.
func (s *MemoryStore) MarkNotificationRead(_ context.Context, id string) (*Snapshot, bool) {
	return s.update(func(next *Snapshot) bool {
		i := slices.IndexFunc(next.notifications, func(n model.Notification) bool { return n.ID == id })
		if i < 0 {
			return false
		}
		notifications := slices.Clone(next.notifications)
		notifications[i].IsRead = true
		next.notifications = notifications
		return true
	})
}

// Notifications returns the whole feed, oldest first.
func (s *MemoryStore) Notifications(_ context.Context) []model.Notification {
	return s.Snapshot().Notifications()
}

// UnreadNotifications returns the unread part of the feed, oldest first.
func (s *MemoryStore) UnreadNotifications(_ context.Context) []model.Notification {
	return s.Snapshot().UnreadNotifications()
}

func (s *MemoryStore) appendNotification(list []model.Notification, n model.Notification) []model.Notification {
	if n.ID == "" {
		n.ID = s.newID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	return s.trim(append(slices.Clip(list), n))
}

func (s *MemoryStore) trim(list []model.Notification) []model.Notification {
	if s.notificationLimit > 0 && len(list) > s.notificationLimit {
		return slices.Clone(list[len(list)-s.notificationLimit:])
	}
	return list
}
