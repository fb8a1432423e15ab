package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/okian/battlegrounds/internal/domain/battle"
	"github.com/okian/battlegrounds/internal/domain/leaderboard"
	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/internal/domain/tv"
	"github.com/okian/battlegrounds/internal/domain/types"
	"github.com/okian/battlegrounds/internal/export"
)

const feedSize = 10

// Leaderboard returns the standings of contestID, trimmed to limit entries
// when limit > 0. Prizes are evaluated against the full standings.
func (s *Service) Leaderboard(_ context.Context, contestID string, limit int) types.Board {
	snap := s.store.Snapshot()
	standings := s.engine.Leaderboard(snap, contestID)

	prizes := []model.Prize{}
	if contest, ok := snap.Contest(contestID); ok {
		prizes = leaderboard.UnlockedPrizes(contest, standings.Entries)
	}
	standings.Entries = standings.Top(limit)
	return types.Board{Standings: standings, Prizes: prizes}
}

// AgentDeals returns every deal of agentID in contestID, whatever its status.
func (s *Service) AgentDeals(_ context.Context, contestID, agentID string) []model.Deal {
	return s.store.Snapshot().DealsForAgentInContest(agentID, contestID)
}

// ActiveBattles returns the active battles of contestID with each side's
// share of the combined score.
func (s *Service) ActiveBattles(_ context.Context, contestID string) []battle.Progress {
	snap := s.store.Snapshot()
	return battle.WithProgress(snap.ActiveBattlesForContest(contestID), snap.AgentName)
}

// Countdown returns the time left in contestID. The boolean is false when
// the contest is unknown.
func (s *Service) Countdown(_ context.Context, contestID string) (tv.Countdown, bool) {
	contest, ok := s.store.Snapshot().Contest(contestID)
	if !ok {
		return tv.Countdown{}, false
	}
	return tv.CountdownTo(contest.EndDate, s.now()), true
}

// Contests returns every contest.
func (s *Service) Contests(_ context.Context) []model.Contest {
	return s.store.Snapshot().Contests()
}

// Agents returns every agent.
func (s *Service) Agents(_ context.Context) []model.Agent {
	return s.store.Snapshot().Agents()
}

// CurrentContest returns the selected contest, if any.
func (s *Service) CurrentContest(ctx context.Context) (model.Contest, bool) {
	return s.store.CurrentContest(ctx)
}

// SelectContest makes id the current contest. Unknown ids are ignored and
// reported as false.
func (s *Service) SelectContest(ctx context.Context, id string) bool {
	_, ok := s.store.SelectCurrentContest(ctx, id)
	return ok
}

// ClearContest deselects the current contest.
func (s *Service) ClearContest(ctx context.Context) {
	s.store.ClearCurrentContest(ctx)
}

// Notifications returns the feed, or only its unread part.
func (s *Service) Notifications(ctx context.Context, unreadOnly bool) []model.Notification {
	if unreadOnly {
		return s.store.UnreadNotifications(ctx)
	}
	return s.store.Notifications(ctx)
}

// MarkNotificationRead marks id read and reports whether it existed.
func (s *Service) MarkNotificationRead(ctx context.Context, id string) bool {
	_, ok := s.store.MarkNotificationRead(ctx, id)
	return ok
}

// Export writes the kind dataset as CSV. Deals and leaderboard exports are
// scoped to contestID. An empty contestID exports every deal, or the
// leaderboard of the current contest.
func (s *Service) Export(_ context.Context, kind export.Kind, contestID string, w io.Writer) error {
	snap := s.store.Snapshot()
	if contestID == "" && kind == export.KindLeaderboard {
		if c, ok := snap.CurrentContest(); ok {
			contestID = c.ID
		}
	}
	switch kind {
	case export.KindDeals:
		deals := snap.Deals()
		if contestID != "" {
			scoped := deals[:0]
			for _, d := range deals {
				if d.ContestID == contestID {
					scoped = append(scoped, d)
				}
			}
			deals = scoped
		}
		return export.Deals(w, deals, snap.AgentName)
	case export.KindLeaderboard:
		return export.Leaderboard(w, s.engine.Leaderboard(snap, contestID).Entries)
	case export.KindAgents:
		return export.Agents(w, snap.Agents())
	}
	return fmt.Errorf("%w: %q", export.ErrUnknownKind, kind)
}

// TV returns the view on screen and its payload for the current contest.
// Contest-bound views carry a nil payload when no contest is selected.
func (s *Service) TV(ctx context.Context) tv.State {
	view, since := s.rotator.Current()
	state := tv.State{View: view, Since: since.UTC().Format(time.RFC3339)}

	if view == tv.ViewFeed {
		feed := s.store.Notifications(ctx)
		if len(feed) > feedSize {
			feed = feed[len(feed)-feedSize:]
		}
		state.Payload = feed
		return state
	}

	contest, ok := s.store.CurrentContest(ctx)
	if !ok {
		return state
	}
	state.ContestID = contest.ID
	switch view {
	case tv.ViewLeaderboard:
		state.Payload = s.Leaderboard(ctx, contest.ID, 0)
	case tv.ViewBattles:
		state.Payload = s.ActiveBattles(ctx, contest.ID)
	case tv.ViewCountdown:
		state.Payload = tv.CountdownTo(contest.EndDate, s.now())
	}
	return state
}
