package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "focusflow/backend/internal/errors"
	"focusflow/backend/internal/model"
	"focusflow/backend/internal/repository"
)

const (
	defaultHabitPoints = 5
	dateLayout         = "2006-01-02"
)

// streakBadges maps streak lengths to badge names and bonus points.
var streakBadges = map[int]struct {
	Badge string
	Bonus int
}{
	3:  {Badge: "3-day streak", Bonus: 15},
	7:  {Badge: "7-day streak", Bonus: 50},
	30: {Badge: "30-day streak", Bonus: 250},
}

type HabitService struct {
	repo    *repository.HabitRepository
	rewards *RewardService
}

func NewHabitService(repo *repository.HabitRepository, rewards *RewardService) *HabitService {
	return &HabitService{repo: repo, rewards: rewards}
}

type HabitInput struct {
	Name        string
	Description string
	Points      int
}

func (s *HabitService) Create(ctx context.Context, userID string, input HabitInput) (*model.Habit, *apperrors.APIError) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.BadRequest("invalid_name", "name is required")
	}
	points := input.Points
	if points <= 0 {
		points = defaultHabitPoints
	}

	now := time.Now().UTC()
	habit := model.Habit{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Points:      points,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, &habit); err != nil {
		return nil, apperrors.Internal("failed to create habit")
	}
	return &habit, nil
}

func (s *HabitService) List(ctx context.Context, userID string) ([]model.Habit, *apperrors.APIError) {
	habits, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list habits")
	}
	return habits, nil
}

func (s *HabitService) Delete(ctx context.Context, userID, id string) *apperrors.APIError {
	err := s.repo.Delete(ctx, userID, id)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("habit_not_found", "habit not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete habit")
	}
	return nil
}

// Checkin records today's check-in: at most one per habit per UTC day.
// Consecutive days extend the streak; a gap resets it to one.
func (s *HabitService) Checkin(ctx context.Context, userID, id string) (*model.Habit, *apperrors.APIError) {
	habit, err := s.repo.Get(ctx, userID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("habit_not_found", "habit not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load habit")
	}

	now := time.Now().UTC()
	today := now.Format(dateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(dateLayout)

	if habit.LastCheckin != nil && *habit.LastCheckin == today {
		return nil, apperrors.Conflict("already_checked_in", "habit already checked in today", nil)
	}
	exists, err := s.repo.HasCheckin(ctx, habit.ID, today)
	if err != nil {
		return nil, apperrors.Internal("failed to check habit state")
	}
	if exists {
		return nil, apperrors.Conflict("already_checked_in", "habit already checked in today", nil)
	}

	if habit.LastCheckin != nil && *habit.LastCheckin == yesterday {
		habit.CurrentStreak++
	} else {
		habit.CurrentStreak = 1
	}
	if habit.CurrentStreak > habit.BestStreak {
		habit.BestStreak = habit.CurrentStreak
	}
	habit.LastCheckin = &today
	habit.UpdatedAt = now

	checkin := model.HabitCheckin{
		ID:           uuid.NewString(),
		HabitID:      habit.ID,
		UserID:       userID,
		Date:         today,
		PointsEarned: habit.Points,
		CreatedAt:    now,
	}
	if err := s.repo.InsertCheckin(ctx, &checkin); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, apperrors.Conflict("already_checked_in", "habit already checked in today", nil)
		}
		return nil, apperrors.Internal("failed to record checkin")
	}
	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, apperrors.Internal("failed to update habit")
	}

	s.rewards.Credit(ctx, userID, habit.Points, 0, false)
	s.rewards.Activity(ctx, userID, "habit_checkin", habit.Points,
		"checked in on %q (%d-day streak)", habit.Name, habit.CurrentStreak)

	if reward, ok := streakBadges[habit.CurrentStreak]; ok {
		badge := fmt.Sprintf("%s: %s", habit.Name, reward.Badge)
		s.rewards.Badge(ctx, userID, badge, reward.Bonus)
	}

	return habit, nil
}
