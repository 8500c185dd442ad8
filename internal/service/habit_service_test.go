package service_test

import (
	"context"
	"net/http"
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

type habitFixture struct {
	habits  *repository.HabitRepository
	stats   *repository.StatsRepository
	bus     *pubsub.Broker[pubsub.RewardEvent]
	service *service.HabitService
	userID  string
}

func newHabitFixture(t *testing.T) *habitFixture {
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
	habits := repository.NewHabitRepository(database)
	stats := repository.NewStatsRepository(database)
	feed := repository.NewFeedRepository(database)

	user := model.User{
		ID:           uuid.NewString(),
		Email:        "habits@example.com",
		DisplayName:  "habits",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := users.Create(ctx, &user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := stats.CreateInitial(ctx, user.ID); err != nil {
		t.Fatalf("seed stats: %v", err)
	}

	bus := pubsub.NewBroker[pubsub.RewardEvent]()
	t.Cleanup(bus.Close)

	rewards := service.NewRewardService(stats, feed, bus, zap.NewNop())

	return &habitFixture{
		habits:  habits,
		stats:   stats,
		bus:     bus,
		service: service.NewHabitService(habits, rewards),
		userID:  user.ID,
	}
}

func TestCheckinStartsStreak(t *testing.T) {
	f := newHabitFixture(t)
	ctx := context.Background()

	habit, apiErr := f.service.Create(ctx, f.userID, service.HabitInput{Name: "read", Points: 8})
	if apiErr != nil {
		t.Fatalf("create habit: %v", apiErr)
	}

	checked, apiErr := f.service.Checkin(ctx, f.userID, habit.ID)
	if apiErr != nil {
		t.Fatalf("checkin: %v", apiErr)
	}
	if checked.CurrentStreak != 1 {
		t.Fatalf("expected streak 1, got %d", checked.CurrentStreak)
	}
	if checked.BestStreak != 1 {
		t.Fatalf("expected best streak 1, got %d", checked.BestStreak)
	}

	stats, err := f.stats.Get(ctx, f.userID)
	if err != nil {
		t.Fatalf("load stats: %v", err)
	}
	if stats.TotalPoints != 8 {
		t.Fatalf("expected 8 points, got %d", stats.TotalPoints)
	}
}

func TestCheckinTwiceSameDayConflicts(t *testing.T) {
	f := newHabitFixture(t)
	ctx := context.Background()

	habit, apiErr := f.service.Create(ctx, f.userID, service.HabitInput{Name: "stretch"})
	if apiErr != nil {
		t.Fatalf("create habit: %v", apiErr)
	}
	if _, apiErr := f.service.Checkin(ctx, f.userID, habit.ID); apiErr != nil {
		t.Fatalf("checkin: %v", apiErr)
	}

	_, apiErr = f.service.Checkin(ctx, f.userID, habit.ID)
	if apiErr == nil {
		t.Fatal("expected conflict on second checkin")
	}
	if apiErr.Status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", apiErr.Status)
	}
}

func TestConsecutiveDayExtendsStreakAndAwardsBadge(t *testing.T) {
	f := newHabitFixture(t)
	ctx := context.Background()

	habit, apiErr := f.service.Create(ctx, f.userID, service.HabitInput{Name: "meditate", Points: 5})
	if apiErr != nil {
		t.Fatalf("create habit: %v", apiErr)
	}

	// Simulate two prior consecutive days so today's check-in reaches the
	// 3-day streak badge.
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	stored, err := f.habits.Get(ctx, f.userID, habit.ID)
	if err != nil {
		t.Fatalf("load habit: %v", err)
	}
	stored.CurrentStreak = 2
	stored.BestStreak = 2
	stored.LastCheckin = &yesterday
	if err := f.habits.Update(ctx, stored); err != nil {
		t.Fatalf("seed streak: %v", err)
	}

	events := f.bus.Subscribe(ctx)

	checked, apiErr := f.service.Checkin(ctx, f.userID, habit.ID)
	if apiErr != nil {
		t.Fatalf("checkin: %v", apiErr)
	}
	if checked.CurrentStreak != 3 {
		t.Fatalf("expected streak 3, got %d", checked.CurrentStreak)
	}

	// 5 habit points plus the 15-point streak bonus.
	stats, err := f.stats.Get(ctx, f.userID)
	if err != nil {
		t.Fatalf("load stats: %v", err)
	}
	if stats.TotalPoints != 20 {
		t.Fatalf("expected 20 points, got %d", stats.TotalPoints)
	}

	select {
	case event := <-events:
		if event.Kind != pubsub.BadgeEarned {
			t.Fatalf("expected badge event, got %s", event.Kind)
		}
		if event.Payload.UserID != f.userID {
			t.Fatalf("badge event for wrong user: %s", event.Payload.UserID)
		}
	case <-time.After(time.Second):
		t.Fatal("no badge event published")
	}
}

func TestGapResetsStreak(t *testing.T) {
	f := newHabitFixture(t)
	ctx := context.Background()

	habit, apiErr := f.service.Create(ctx, f.userID, service.HabitInput{Name: "journal"})
	if apiErr != nil {
		t.Fatalf("create habit: %v", apiErr)
	}

	lastWeek := time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02")
	stored, err := f.habits.Get(ctx, f.userID, habit.ID)
	if err != nil {
		t.Fatalf("load habit: %v", err)
	}
	stored.CurrentStreak = 5
	stored.BestStreak = 5
	stored.LastCheckin = &lastWeek
	if err := f.habits.Update(ctx, stored); err != nil {
		t.Fatalf("seed streak: %v", err)
	}

	checked, apiErr := f.service.Checkin(ctx, f.userID, habit.ID)
	if apiErr != nil {
		t.Fatalf("checkin: %v", apiErr)
	}
	if checked.CurrentStreak != 1 {
		t.Fatalf("expected streak reset to 1, got %d", checked.CurrentStreak)
	}
	if checked.BestStreak != 5 {
		t.Fatalf("expected best streak preserved at 5, got %d", checked.BestStreak)
	}
}
