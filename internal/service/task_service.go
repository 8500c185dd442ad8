package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "focusflow/backend/internal/errors"
	"focusflow/backend/internal/model"
	"focusflow/backend/internal/repository"
)

const defaultTaskPoints = 10

// TaskService owns the daily task registry. One instance is constructed
// at startup and shared by every surface that mutates tasks.
type TaskService struct {
	repo    *repository.TaskRepository
	rewards *RewardService
}

func NewTaskService(repo *repository.TaskRepository, rewards *RewardService) *TaskService {
	return &TaskService{repo: repo, rewards: rewards}
}

type TaskInput struct {
	Title  string
	Notes  string
	Points int
}

func (s *TaskService) Create(ctx context.Context, userID string, input TaskInput) (*model.Task, *apperrors.APIError) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.BadRequest("invalid_title", "title is required")
	}
	points := input.Points
	if points <= 0 {
		points = defaultTaskPoints
	}

	now := time.Now().UTC()
	task := model.Task{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Notes:     strings.TrimSpace(input.Notes),
		Points:    points,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, apperrors.Internal("failed to create task")
	}
	return &task, nil
}

func (s *TaskService) List(ctx context.Context, userID string) ([]model.Task, *apperrors.APIError) {
	tasks, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list tasks")
	}
	return tasks, nil
}

func (s *TaskService) Update(ctx context.Context, userID, id string, input TaskInput) (*model.Task, *apperrors.APIError) {
	task, apiErr := s.get(ctx, userID, id)
	if apiErr != nil {
		return nil, apiErr
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		task.Title = title
	}
	task.Notes = strings.TrimSpace(input.Notes)
	if input.Points > 0 {
		task.Points = input.Points
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, apperrors.Internal("failed to update task")
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) *apperrors.APIError {
	err := s.repo.Delete(ctx, userID, id)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete task")
	}
	return nil
}

// Complete marks a task done and credits its points. Completing an
// already-completed task is a no-op so points are awarded once.
func (s *TaskService) Complete(ctx context.Context, userID, id string) (*model.Task, *apperrors.APIError) {
	task, apiErr := s.get(ctx, userID, id)
	if apiErr != nil {
		return nil, apiErr
	}
	if task.Completed {
		return task, nil
	}

	now := time.Now().UTC()
	task.Completed = true
	task.CompletedAt = &now
	task.UpdatedAt = now

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, apperrors.Internal("failed to complete task")
	}

	s.rewards.Credit(ctx, userID, task.Points, 0, false)
	s.rewards.Activity(ctx, userID, "task_completed", task.Points, "completed the task %q", task.Title)
	return task, nil
}

func (s *TaskService) get(ctx context.Context, userID, id string) (*model.Task, *apperrors.APIError) {
	task, err := s.repo.Get(ctx, userID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("task_not_found", "task not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load task")
	}
	return task, nil
}
