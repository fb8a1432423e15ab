// Package tv drives the rotating office display: which view is on screen and
// how long the current contest has left.
package tv

import (
	"sync"
	"time"
)

// View is one full-screen TV panel.
type View string

const (
	ViewLeaderboard View = "leaderboard"
	ViewBattles     View = "battles"
	ViewCountdown   View = "countdown"
	ViewFeed        View = "feed"
)

// Views is the rotation order.
var Views = []View{ViewLeaderboard, ViewBattles, ViewCountdown, ViewFeed}

// Next returns the view after v, wrapping around. Unknown views restart the
// rotation.
func Next(v View) View {
	for i, candidate := range Views {
		if candidate == v {
			return Views[(i+1)%len(Views)]
		}
	}
	return Views[0]
}

// State is what the display shows right now. Payload depends on View and is
// nil for contest views when no contest is selected.
type State struct {
	View      View   `json:"view"`
	Since     string `json:"since"`
	ContestID string `json:"contest_id,omitempty"`
	Payload   any    `json:"payload"`
}

// Rotator tracks the view currently on screen. It is safe for concurrent use.
type Rotator struct {
	mu      sync.RWMutex
	current View
	since   time.Time
	now     func() time.Time
}

// NewRotator starts on the leaderboard view.
func NewRotator(now func() time.Time) *Rotator {
	if now == nil {
		now = time.Now
	}
	return &Rotator{current: ViewLeaderboard, since: now(), now: now}
}

// Current returns the view on screen and when it was shown.
func (r *Rotator) Current() (View, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.since
}

// Advance moves to the next view and returns it.
func (r *Rotator) Advance() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = Next(r.current)
	r.since = r.now()
	return r.current
}

// Countdown is the time left until a contest ends.
type Countdown struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Ended   bool `json:"ended"`
}

// CountdownTo returns the whole days, hours and minutes from now until end.
// A past or zero end yields all zeros.
func CountdownTo(end, now time.Time) Countdown {
	diff := end.Sub(now)
	if end.IsZero() || diff <= 0 {
		return Countdown{Ended: !end.IsZero()}
	}
	return Countdown{
		Days:    int(diff / (24 * time.Hour)),
		Hours:   int(diff % (24 * time.Hour) / time.Hour),
		Minutes: int(diff % time.Hour / time.Minute),
	}
}
