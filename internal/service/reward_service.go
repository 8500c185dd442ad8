package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"focusflow/backend/internal/model"
	"focusflow/backend/internal/pubsub"
	"focusflow/backend/internal/repository"
)

// RewardService is the side-effect handler behind every point-earning
// action: it keeps the per-user stats row, writes the shared activity
// feed, and publishes level-up and badge events on the account bus.
// Failures here are logged and swallowed; callers' own state must never
// depend on a reward write succeeding.
type RewardService struct {
	stats  *repository.StatsRepository
	feed   *repository.FeedRepository
	bus    *pubsub.Broker[pubsub.RewardEvent]
	logger *zap.Logger
}

func NewRewardService(
	stats *repository.StatsRepository,
	feed *repository.FeedRepository,
	bus *pubsub.Broker[pubsub.RewardEvent],
	logger *zap.Logger,
) *RewardService {
	return &RewardService{stats: stats, feed: feed, bus: bus, logger: logger}
}

// Credit adds points to the user's total, tracks focus time and session
// counts, and publishes a level-up event when the total crosses a level
// boundary.
func (s *RewardService) Credit(ctx context.Context, userID string, points, focusSeconds int, completedSession bool) {
	stats, err := s.stats.Get(ctx, userID)
	if err == repository.ErrNotFound {
		if createErr := s.stats.CreateInitial(ctx, userID); createErr != nil {
			s.logger.Warn("create stats row", zap.String("user", userID), zap.Error(createErr))
			return
		}
		stats, err = s.stats.Get(ctx, userID)
	}
	if err != nil {
		s.logger.Warn("load stats", zap.String("user", userID), zap.Error(err))
		return
	}

	previousLevel := stats.Level
	stats.TotalPoints += points
	stats.Level = model.LevelForPoints(stats.TotalPoints)
	stats.FocusSeconds += focusSeconds
	if completedSession {
		stats.CompletedSessions++
	}
	stats.UpdatedAt = time.Now().UTC()

	if err := s.stats.Update(ctx, stats); err != nil {
		s.logger.Warn("update stats", zap.String("user", userID), zap.Error(err))
		return
	}

	if stats.Level > previousLevel {
		s.bus.Publish(pubsub.LevelUp, pubsub.RewardEvent{
			UserID: userID,
			Points: stats.TotalPoints,
			Level:  stats.Level,
		})
	}
}

// Badge awards a named badge: bonus points plus a badge event for the
// notification pipeline.
func (s *RewardService) Badge(ctx context.Context, userID, badge string, bonusPoints int) {
	if bonusPoints > 0 {
		s.Credit(ctx, userID, bonusPoints, 0, false)
	}
	s.bus.Publish(pubsub.BadgeEarned, pubsub.RewardEvent{
		UserID: userID,
		Badge:  badge,
		Points: bonusPoints,
	})
}

// SessionCompleted announces a finished focus session on the event bus.
func (s *RewardService) SessionCompleted(userID, phase, label string, elapsedSeconds, points int) {
	s.bus.Publish(pubsub.SessionCompleted, pubsub.RewardEvent{
		UserID:         userID,
		Points:         points,
		SessionPhase:   phase,
		SessionLabel:   label,
		ElapsedSeconds: elapsedSeconds,
	})
}

// Activity appends one entry to the shared feed.
func (s *RewardService) Activity(ctx context.Context, userID, kind string, points int, format string, args ...interface{}) {
	entry := model.ActivityEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Message:   fmt.Sprintf(format, args...),
		Points:    points,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.feed.Insert(ctx, &entry); err != nil {
		s.logger.Warn("insert activity entry", zap.String("user", userID), zap.Error(err))
	}
}
