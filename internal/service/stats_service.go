package service

import (
	"context"
	"fmt"

	"focusflow/backend/internal/cache"
	apperrors "focusflow/backend/internal/errors"
	"focusflow/backend/internal/model"
	"focusflow/backend/internal/repository"
)

// StatsService serves per-user stats and the shared leaderboard. The
// leaderboard is read far more often than it changes, so results sit in a
// short-TTL cache in front of the database.
type StatsService struct {
	repo        *repository.StatsRepository
	leaderboard *cache.Cache[[]model.LeaderboardEntry]
}

func NewStatsService(repo *repository.StatsRepository, leaderboard *cache.Cache[[]model.LeaderboardEntry]) *StatsService {
	return &StatsService{repo: repo, leaderboard: leaderboard}
}

func (s *StatsService) Get(ctx context.Context, userID string) (*model.UserStats, *apperrors.APIError) {
	stats, err := s.repo.Get(ctx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("stats_not_found", "user stats not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load stats")
	}
	return stats, nil
}

func (s *StatsService) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, *apperrors.APIError) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	key := fmt.Sprintf("top:%d", limit)
	if entries, ok := s.leaderboard.Get(key); ok {
		return entries, nil
	}

	entries, err := s.repo.Top(ctx, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to load leaderboard")
	}
	s.leaderboard.Set(key, entries)
	return entries, nil
}
