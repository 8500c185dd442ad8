package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "focusflow/backend/internal/errors"
	"focusflow/backend/internal/model"
	"focusflow/backend/internal/pubsub"
	"focusflow/backend/internal/repository"
)

// NotificationService turns bus events into stored notifications and
// serves the per-user notification list.
type NotificationService struct {
	repo   *repository.NotificationRepository
	logger *zap.Logger
}

func NewNotificationService(repo *repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: logger}
}

// Run consumes the account event bus until ctx is cancelled. It is meant
// to be started once, as a goroutine, next to the HTTP server.
func (s *NotificationService) Run(ctx context.Context, events <-chan pubsub.Event[pubsub.RewardEvent]) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.handle(ctx, event)
		}
	}
}

func (s *NotificationService) handle(ctx context.Context, event pubsub.Event[pubsub.RewardEvent]) {
	n := model.Notification{
		ID:        uuid.NewString(),
		UserID:    event.Payload.UserID,
		Kind:      string(event.Kind),
		CreatedAt: time.Now().UTC(),
	}

	switch event.Kind {
	case pubsub.SessionCompleted:
		n.Title = "Session complete"
		n.Body = fmt.Sprintf("%s finished: +%d points.", event.Payload.SessionLabel, event.Payload.Points)
	case pubsub.LevelUp:
		n.Title = "Level up!"
		n.Body = fmt.Sprintf("You reached level %d.", event.Payload.Level)
	case pubsub.BadgeEarned:
		n.Title = "New badge earned"
		n.Body = fmt.Sprintf("You earned the %q badge.", event.Payload.Badge)
	default:
		return
	}

	if err := s.repo.Insert(ctx, &n); err != nil {
		s.logger.Warn("insert notification", zap.String("user", n.UserID), zap.Error(err))
	}
}

func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]model.Notification, *apperrors.APIError) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	notifications, err := s.repo.List(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to list notifications")
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) *apperrors.APIError {
	err := s.repo.MarkRead(ctx, userID, id)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("notification_not_found", "notification not found")
	}
	if err != nil {
		return apperrors.Internal("failed to mark notification read")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) *apperrors.APIError {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return apperrors.Internal("failed to mark notifications read")
	}
	return nil
}
