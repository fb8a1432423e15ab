package service

import (
	"context"
	"fmt"

	"github.com/okian/battlegrounds/internal/domain/battle"
	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/internal/domain/tv"
	"github.com/okian/battlegrounds/pkg/logger"
	"github.com/okian/battlegrounds/pkg/metrics"
)

const titleWinner = "Contest Winner"

// SettleBattles completes every active battle whose end date has passed and
// announces the result. It returns the number of battles settled.
func (s *Service) SettleBattles(ctx context.Context) int {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	now := s.now()
	snap := s.store.Snapshot()

	settled := 0
	for _, b := range snap.Battles() {
		if !battle.Due(b, now) {
			continue
		}
		next, ok := s.store.UpdateBattle(ctx, b.ID, battle.Settle)
		if !ok {
			continue
		}
		result, _ := next.Battle(b.ID)
		s.store.AddNotification(ctx, battle.Announcement(result, next.AgentName))
		metrics.RecordBattleSettled()
		s.logger.Info(ctx, "battle settled",
			logger.String("battle_id", result.ID),
			logger.String("winner_id", result.WinnerID),
		)
		settled++
	}
	return settled
}

// CloseContests deactivates every active contest whose end date has passed
// and announces the leader, if anyone scored. It returns the number of
// contests closed.
func (s *Service) CloseContests(ctx context.Context) int {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	now := s.now()
	snap := s.store.Snapshot()

	closed := 0
	for _, c := range snap.Contests() {
		if !c.IsActive || !c.Ended(now) {
			continue
		}
		next, ok := s.store.UpdateContest(ctx, c.ID, func(cur model.Contest) model.Contest {
			cur.IsActive = false
			return cur
		})
		if !ok {
			continue
		}
		metrics.RecordContestClosed()
		closed++

		entries := s.engine.Compute(next, c)
		if len(entries) == 0 || !entries[0].TotalPremium.IsPositive() {
			s.logger.Info(ctx, "contest closed without a winner", logger.String("contest_id", c.ID))
			continue
		}
		leader := entries[0]
		s.store.AddNotification(ctx, model.Notification{
			Type:      model.NotificationWinner,
			Title:     titleWinner,
			Message:   fmt.Sprintf("%s won %s with %s", leader.Agent.Name, c.Name, model.FormatUSD(leader.TotalPremium)),
			AgentID:   leader.Agent.ID,
			ContestID: c.ID,
		})
		s.logger.Info(ctx, "contest closed",
			logger.String("contest_id", c.ID),
			logger.String("winner_id", leader.Agent.ID),
		)
	}
	return closed
}

// RotateTV advances the office display to its next view.
func (s *Service) RotateTV(ctx context.Context) tv.View {
	view := s.rotator.Advance()
	metrics.RecordTVRotation()
	s.logger.Debug(ctx, "tv rotated", logger.String("view", string(view)))
	return view
}
