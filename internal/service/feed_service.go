package service

import (
	"context"

	apperrors "focusflow/backend/internal/errors"
	"focusflow/backend/internal/model"
	"focusflow/backend/internal/repository"
)

// FeedService serves the shared activity feed. Entries are written by
// RewardService.Activity; this service only reads.
type FeedService struct {
	repo *repository.FeedRepository
}

func NewFeedService(repo *repository.FeedRepository) *FeedService {
	return &FeedService{repo: repo}
}

func (s *FeedService) Recent(ctx context.Context, limit int) ([]model.ActivityEntry, *apperrors.APIError) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	entries, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to load activity feed")
	}
	return entries, nil
}
