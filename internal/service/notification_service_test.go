package service_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"focusflow/backend/internal/db"
	"focusflow/backend/internal/model"
	"focusflow/backend/internal/pubsub"
	"focusflow/backend/internal/repository"
	"focusflow/backend/internal/service"
)

func newNotificationFixture(t *testing.T) (*service.NotificationService, string) {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if err := db.RunMigrations(database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepository(database)
	user := model.User{
		ID:           uuid.NewString(),
		Email:        "notify@example.com",
		DisplayName:  "notify",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := users.Create(ctx, &user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	notifications := repository.NewNotificationRepository(database)
	return service.NewNotificationService(notifications, zap.NewNop()), user.ID
}

func TestRunStoresSessionAndLevelNotifications(t *testing.T) {
	svc, userID := newNotificationFixture(t)
	ctx := context.Background()

	events := make(chan pubsub.Event[pubsub.RewardEvent], 3)
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Run(ctx, events)
	}()

	events <- pubsub.Event[pubsub.RewardEvent]{
		Kind: pubsub.SessionCompleted,
		Payload: pubsub.RewardEvent{
			UserID:         userID,
			Points:         50,
			SessionPhase:   "focus",
			SessionLabel:   "Focus",
			ElapsedSeconds: 1500,
		},
		Timestamp: time.Now().UTC(),
	}
	events <- pubsub.Event[pubsub.RewardEvent]{
		Kind: pubsub.LevelUp,
		Payload: pubsub.RewardEvent{
			UserID: userID,
			Points: 120,
			Level:  2,
		},
		Timestamp: time.Now().UTC(),
	}
	close(events)
	<-done

	list, apiErr := svc.List(ctx, userID, 10)
	if apiErr != nil {
		t.Fatalf("list notifications: %v", apiErr)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}

	kinds := map[string]model.Notification{}
	for _, n := range list {
		kinds[n.Kind] = n
	}
	session, ok := kinds[string(pubsub.SessionCompleted)]
	if !ok {
		t.Fatal("expected a session_completed notification")
	}
	if session.Title != "Session complete" {
		t.Fatalf("unexpected session title: %q", session.Title)
	}
	level, ok := kinds[string(pubsub.LevelUp)]
	if !ok {
		t.Fatal("expected a level_up notification")
	}
	if level.Title != "Level up!" {
		t.Fatalf("unexpected level title: %q", level.Title)
	}
	for _, n := range list {
		if n.Read {
			t.Fatalf("expected unread notification, got read %s", n.Kind)
		}
	}
}
