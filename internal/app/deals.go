package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/okian/battlegrounds/internal/domain/leaderboard"
	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/pkg/logger"
	"github.com/okian/battlegrounds/pkg/metrics"
)

const titleMilestone = "Milestone Reached"

// NewSubmissionID returns a fresh id for a submission that arrived without one.
func NewSubmissionID() string { return uuid.NewString() }

// SeenAndRecord atomically checks if a submission id was seen and records it
// if not. Returns true if it was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordDealDuplicate()
	}
	return seen
}

// Unrecord removes a submission id from the seen list so it can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue hands a submission to the worker pool. It returns false when the
// service is stopped or the queue is full.
func (s *Service) Enqueue(ctx context.Context, sub model.Submission) bool {
	s.mu.RLock()
	q, started := s.queue, s.started
	s.mu.RUnlock()
	if !started {
		s.logger.Warn(ctx, "submission rejected, service not started",
			logger.String("submission_id", sub.ID),
		)
		return false
	}

	if err := q.TryEnqueue(ctx, sub); err != nil {
		s.logger.Warn(ctx, "submission rejected",
			logger.String("submission_id", sub.ID),
			logger.Error(err),
		)
		return false
	}
	metrics.RecordDealSubmitted()
	s.logger.Debug(ctx, "submission enqueued",
		logger.String("submission_id", sub.ID),
		logger.String("agent_id", sub.AgentID),
		logger.String("contest_id", sub.ContestID),
	)
	return true
}

// ApplySubmission stores a queued submission as a pending deal. It satisfies
// the worker pool's Applier.
func (s *Service) ApplySubmission(ctx context.Context, sub model.Submission) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("apply %s: %w", sub.ID, err)
	}
	s.store.AddDeal(ctx, sub.ToDeal(s.now()))
	return nil
}

// UpdateDealStatus moves a deal to status. See UpdateDeal.
func (s *Service) UpdateDealStatus(ctx context.Context, id string, status model.DealStatus) bool {
	return s.UpdateDeal(ctx, id, model.StatusPatch(status))
}

// UpdateDeal merges patch into the deal with id and reports whether it
// existed. Badges newly earned through the change produce milestone
// notifications, at most one per contest, agent and badge.
func (s *Service) UpdateDeal(ctx context.Context, id string, patch model.DealPatch) bool {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	before := s.store.Snapshot()
	deal, ok := before.Deal(id)
	if !ok {
		s.logger.Debug(ctx, "deal update ignored, unknown id", logger.String("deal_id", id))
		return false
	}
	contest, hasContest := before.Contest(deal.ContestID)

	after, _ := s.store.UpdateDeal(ctx, id, patch)
	if patch.Status != nil {
		metrics.RecordDealStatusUpdate(string(*patch.Status))
	}
	s.logger.Info(ctx, "deal updated",
		logger.String("deal_id", id),
		logger.String("contest_id", deal.ContestID),
	)

	if !hasContest {
		return true
	}
	awards := leaderboard.NewlyEarned(
		s.engine.Compute(before, contest),
		s.engine.Compute(after, contest),
	)
	for _, a := range awards {
		key := milestoneKey{contestID: contest.ID, agentID: a.Agent.ID, badgeID: a.Badge.ID}
		if _, done := s.announced[key]; done {
			continue
		}
		s.announced[key] = struct{}{}
		s.announceMilestone(ctx, contest.ID, a)
	}
	return true
}

type milestoneKey struct {
	contestID, agentID, badgeID string
}

func (s *Service) announceMilestone(ctx context.Context, contestID string, a leaderboard.Award) {
	s.store.AddNotification(ctx, milestoneNotification(contestID, a))
	metrics.RecordBadgeAwarded(a.Badge.ID)
	s.logger.Info(ctx, "badge earned",
		logger.String("agent_id", a.Agent.ID),
		logger.String("badge", a.Badge.ID),
	)
}

func milestoneNotification(contestID string, a leaderboard.Award) model.Notification {
	return model.Notification{
		Type:      model.NotificationMilestone,
		Title:     titleMilestone,
		Message:   fmt.Sprintf("%s %s: %s milestone reached!", a.Badge.Icon, a.Agent.Name, a.Badge.Name),
		AgentID:   a.Agent.ID,
		ContestID: contestID,
	}
}
