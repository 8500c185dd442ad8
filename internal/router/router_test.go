package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"go.uber.org/zap"

	"focusflow/backend/internal/cache"
	"focusflow/backend/internal/db"
	"focusflow/backend/internal/handler"
	"focusflow/backend/internal/model"
	"focusflow/backend/internal/pubsub"
	"focusflow/backend/internal/repository"
	"focusflow/backend/internal/router"
	"focusflow/backend/internal/service"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	} `json:"user"`
}

type stateEnvelope struct {
	State struct {
		Phase                  string `json:"phase"`
		Status                 string `json:"status"`
		RemainingSeconds       int    `json:"remainingSeconds"`
		CompletedFocusSessions int    `json:"completedFocusSessions"`
		TemplateID             string `json:"templateId"`
		Version                int    `json:"version"`
	} `json:"state"`
}

type taskEnvelope struct {
	Task struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Points    int    `json:"points"`
		Completed bool   `json:"completed"`
	} `json:"task"`
}

type habitEnvelope struct {
	Habit struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		CurrentStreak int    `json:"currentStreak"`
	} `json:"habit"`
}

type statsEnvelope struct {
	Stats struct {
		TotalPoints int `json:"totalPoints"`
		Level       int `json:"level"`
	} `json:"stats"`
}

type leaderboardEnvelope struct {
	Leaderboard []struct {
		Rank        int    `json:"rank"`
		UserID      string `json:"userId"`
		DisplayName string `json:"displayName"`
		TotalPoints int    `json:"totalPoints"`
	} `json:"leaderboard"`
}

type feedEnvelope struct {
	Activities []struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"activities"`
}

type notificationsEnvelope struct {
	Notifications []struct {
		ID    string `json:"id"`
		Kind  string `json:"kind"`
		Title string `json:"title"`
		Read  bool   `json:"read"`
	} `json:"notifications"`
}

type templatesEnvelope struct {
	Templates []struct {
		ID       string `json:"id"`
		Category string `json:"category"`
	} `json:"templates"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			State struct {
				Version int `json:"version"`
			} `json:"state"`
		} `json:"details"`
	} `json:"error"`
}

func TestTimerSyncAndConflict(t *testing.T) {
	server := setupTestServer(t)

	user1 := registerUser(t, server, "user1@example.com", "123456")
	user2 := registerUser(t, server, "user2@example.com", "123456")

	state1 := getState(t, server, user1.Token)
	if state1.State.Version != 1 {
		t.Fatalf("expected initial version 1, got %d", state1.State.Version)
	}
	if state1.State.Status != "idle" {
		t.Fatalf("expected idle, got %s", state1.State.Status)
	}
	if state1.State.TemplateID != "classic-pomodoro" {
		t.Fatalf("expected default template, got %s", state1.State.TemplateID)
	}

	// Start with the current version.
	status, _ := requestJSON(t, server, http.MethodPost, "/api/timer/start", user1.Token, map[string]int{
		"baseVersion": state1.State.Version,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d", status)
	}

	// Skip with a stale version from another device should conflict.
	status, rawConflict := requestJSON(t, server, http.MethodPost, "/api/timer/skip", user1.Token, map[string]int{
		"baseVersion": state1.State.Version,
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for stale version, got %d", status)
	}

	var conflictResp apiErrorEnvelope
	if err := json.Unmarshal(rawConflict, &conflictResp); err != nil {
		t.Fatalf("unmarshal conflict response: %v", err)
	}
	if conflictResp.Error.Code != "state_conflict" {
		t.Fatalf("expected state_conflict, got %s", conflictResp.Error.Code)
	}

	// Reset with the latest version from the conflict details.
	latestVersion := conflictResp.Error.Details.State.Version
	status, _ = requestJSON(t, server, http.MethodPost, "/api/timer/reset", user1.Token, map[string]int{
		"baseVersion": latestVersion,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on reset, got %d", status)
	}

	// User isolation: user2's timer is untouched.
	state2 := getState(t, server, user2.Token)
	if state2.State.Version != 1 {
		t.Fatalf("expected user2 still at version 1, got %d", state2.State.Version)
	}
}

func TestTemplateSwitching(t *testing.T) {
	server := setupTestServer(t)
	user := registerUser(t, server, "templates@example.com", "123456")

	state := getState(t, server, user.Token)
	status, raw := requestJSON(t, server, http.MethodPut, "/api/timer/template", user.Token, map[string]interface{}{
		"baseVersion": state.State.Version,
		"templateId":  "deep-work",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on template switch, got %d: %s", status, string(raw))
	}

	var switched stateEnvelope
	if err := json.Unmarshal(raw, &switched); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if switched.State.TemplateID != "deep-work" {
		t.Fatalf("expected deep-work, got %s", switched.State.TemplateID)
	}
	if switched.State.RemainingSeconds != 50*60 {
		t.Fatalf("expected 3000 remaining, got %d", switched.State.RemainingSeconds)
	}

	// Unknown template id.
	status, _ = requestJSON(t, server, http.MethodPut, "/api/timer/template", user.Token, map[string]interface{}{
		"baseVersion": switched.State.Version,
		"templateId":  "bogus",
	})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown template, got %d", status)
	}

	// Custom durations drive derived points.
	status, raw = requestJSON(t, server, http.MethodPut, "/api/timer/custom", user.Token, map[string]interface{}{
		"baseVersion":            switched.State.Version,
		"workMinutes":            45,
		"shortBreakMinutes":      5,
		"longBreakMinutes":       20,
		"sessionsUntilLongBreak": 3,
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on custom template, got %d: %s", status, string(raw))
	}
	var custom stateEnvelope
	if err := json.Unmarshal(raw, &custom); err != nil {
		t.Fatalf("unmarshal custom state: %v", err)
	}
	if custom.State.TemplateID != "custom" {
		t.Fatalf("expected custom template, got %s", custom.State.TemplateID)
	}
	if custom.State.RemainingSeconds != 45*60 {
		t.Fatalf("expected 2700 remaining, got %d", custom.State.RemainingSeconds)
	}
}

func TestTemplateCatalogEndpoints(t *testing.T) {
	server := setupTestServer(t)
	user := registerUser(t, server, "catalog@example.com", "123456")

	status, raw := requestJSON(t, server, http.MethodGet, "/api/templates", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var all templatesEnvelope
	if err := json.Unmarshal(raw, &all); err != nil {
		t.Fatalf("unmarshal templates: %v", err)
	}
	if len(all.Templates) != 8 {
		t.Fatalf("expected 8 templates, got %d", len(all.Templates))
	}

	status, raw = requestJSON(t, server, http.MethodGet, "/api/templates?category=extended", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var extended templatesEnvelope
	if err := json.Unmarshal(raw, &extended); err != nil {
		t.Fatalf("unmarshal templates: %v", err)
	}
	for _, tpl := range extended.Templates {
		if tpl.Category != "extended" {
			t.Fatalf("expected only extended templates, got %s", tpl.Category)
		}
	}

	status, _ = requestJSON(t, server, http.MethodGet, "/api/templates/no-such", user.Token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown template, got %d", status)
	}
}

func TestTaskCompletionAwardsPointsAndNotifies(t *testing.T) {
	server := setupTestServer(t)
	user := registerUser(t, server, "tasks@example.com", "123456")

	status, raw := requestJSON(t, server, http.MethodPost, "/api/tasks", user.Token, map[string]interface{}{
		"title":  "ship the release",
		"points": 150,
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 for create, got %d: %s", status, string(raw))
	}
	var created taskEnvelope
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}

	status, raw = requestJSON(t, server, http.MethodPost, "/api/tasks/"+created.Task.ID+"/complete", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for complete, got %d: %s", status, string(raw))
	}

	// Completing again must not award points twice.
	status, _ = requestJSON(t, server, http.MethodPost, "/api/tasks/"+created.Task.ID+"/complete", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for repeat complete, got %d", status)
	}

	status, raw = requestJSON(t, server, http.MethodGet, "/api/stats/me", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for stats, got %d", status)
	}
	var stats statsEnvelope
	if err := json.Unmarshal(raw, &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats.Stats.TotalPoints != 150 {
		t.Fatalf("expected 150 points, got %d", stats.Stats.TotalPoints)
	}
	if stats.Stats.Level != 2 {
		t.Fatalf("expected level 2 after 150 points, got %d", stats.Stats.Level)
	}

	// Crossing the level boundary delivers a notification through the bus.
	waitForNotification(t, server, user.Token, "level_up")

	status, raw = requestJSON(t, server, http.MethodGet, "/api/feed", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for feed, got %d", status)
	}
	var feed feedEnvelope
	if err := json.Unmarshal(raw, &feed); err != nil {
		t.Fatalf("unmarshal feed: %v", err)
	}
	if len(feed.Activities) == 0 {
		t.Fatal("expected a feed entry for the completed task")
	}
	if feed.Activities[0].Kind != "task_completed" {
		t.Fatalf("expected task_completed entry, got %s", feed.Activities[0].Kind)
	}
}

func TestHabitCheckinOncePerDay(t *testing.T) {
	server := setupTestServer(t)
	user := registerUser(t, server, "habits@example.com", "123456")

	status, raw := requestJSON(t, server, http.MethodPost, "/api/habits", user.Token, map[string]interface{}{
		"name": "morning run",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 for create, got %d: %s", status, string(raw))
	}
	var created habitEnvelope
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("unmarshal habit: %v", err)
	}

	status, raw = requestJSON(t, server, http.MethodPost, "/api/habits/"+created.Habit.ID+"/checkin", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for checkin, got %d: %s", status, string(raw))
	}
	var checked habitEnvelope
	if err := json.Unmarshal(raw, &checked); err != nil {
		t.Fatalf("unmarshal habit: %v", err)
	}
	if checked.Habit.CurrentStreak != 1 {
		t.Fatalf("expected streak 1, got %d", checked.Habit.CurrentStreak)
	}

	status, _ = requestJSON(t, server, http.MethodPost, "/api/habits/"+created.Habit.ID+"/checkin", user.Token, nil)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for second checkin, got %d", status)
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	server := setupTestServer(t)

	leader := registerUser(t, server, "leader@example.com", "123456")
	trailer := registerUser(t, server, "trailer@example.com", "123456")

	status, raw := requestJSON(t, server, http.MethodPost, "/api/tasks", leader.Token, map[string]interface{}{
		"title":  "big task",
		"points": 80,
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	var task taskEnvelope
	if err := json.Unmarshal(raw, &task); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}
	if status, _ = requestJSON(t, server, http.MethodPost, "/api/tasks/"+task.Task.ID+"/complete", leader.Token, nil); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	status, raw = requestJSON(t, server, http.MethodGet, "/api/leaderboard?limit=10", trailer.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for leaderboard, got %d", status)
	}
	var board leaderboardEnvelope
	if err := json.Unmarshal(raw, &board); err != nil {
		t.Fatalf("unmarshal leaderboard: %v", err)
	}
	if len(board.Leaderboard) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board.Leaderboard))
	}
	if board.Leaderboard[0].UserID != leader.User.ID {
		t.Fatalf("expected leader first, got %s", board.Leaderboard[0].DisplayName)
	}
	if board.Leaderboard[0].Rank != 1 || board.Leaderboard[1].Rank != 2 {
		t.Fatalf("unexpected ranks: %d, %d", board.Leaderboard[0].Rank, board.Leaderboard[1].Rank)
	}
	if board.Leaderboard[0].TotalPoints != 80 {
		t.Fatalf("expected 80 points for leader, got %d", board.Leaderboard[0].TotalPoints)
	}
}

func TestNotificationsMarkRead(t *testing.T) {
	server := setupTestServer(t)
	user := registerUser(t, server, "notify@example.com", "123456")

	status, raw := requestJSON(t, server, http.MethodPost, "/api/tasks", user.Token, map[string]interface{}{
		"title":  "level me up",
		"points": 120,
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	var task taskEnvelope
	if err := json.Unmarshal(raw, &task); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}
	if status, _ = requestJSON(t, server, http.MethodPost, "/api/tasks/"+task.Task.ID+"/complete", user.Token, nil); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}

	notification := waitForNotification(t, server, user.Token, "level_up")

	status, _ = requestJSON(t, server, http.MethodPost, "/api/notifications/"+notification+"/read", user.Token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 for mark read, got %d", status)
	}

	status, raw = requestJSON(t, server, http.MethodGet, "/api/notifications", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var list notificationsEnvelope
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("unmarshal notifications: %v", err)
	}
	for _, n := range list.Notifications {
		if n.ID == notification && !n.Read {
			t.Fatal("expected notification marked read")
		}
	}
}

func TestAuthRequired(t *testing.T) {
	server := setupTestServer(t)

	status, _ := requestJSON(t, server, http.MethodGet, "/api/timer/state", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	status, _ = requestJSON(t, server, http.MethodGet, "/api/timer/state", "not-a-token", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", status)
	}
}

func TestCORSPreflight(t *testing.T) {
	server := setupTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder := httptest.NewRecorder()

	server.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func setupTestServer(t *testing.T) http.Handler {
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

	userRepo := repository.NewUserRepository(database)
	timerRepo := repository.NewTimerRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	habitRepo := repository.NewHabitRepository(database)
	statsRepo := repository.NewStatsRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	feedRepo := repository.NewFeedRepository(database)

	bus := pubsub.NewBroker[pubsub.RewardEvent]()
	t.Cleanup(bus.Close)

	logger := zap.NewNop()
	leaderboardCache := cache.New[[]model.LeaderboardEntry](time.Second, time.Minute)

	rewardService := service.NewRewardService(statsRepo, feedRepo, bus, logger)
	authService := service.NewAuthService(userRepo, timerRepo, statsRepo, "test-secret", 24*time.Hour)
	timerService := service.NewTimerService(timerRepo, rewardService, logger)
	taskService := service.NewTaskService(taskRepo, rewardService)
	habitService := service.NewHabitService(habitRepo, rewardService)
	statsService := service.NewStatsService(statsRepo, leaderboardCache)
	feedService := service.NewFeedService(feedRepo)
	notificationService := service.NewNotificationService(notificationRepo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go notificationService.Run(ctx, bus.Subscribe(ctx))

	return router.New(router.Deps{
		AuthService:         authService,
		AuthHandler:         handler.NewAuthHandler(authService),
		TimerHandler:        handler.NewTimerHandler(timerService),
		TemplateHandler:     handler.NewTemplateHandler(),
		TaskHandler:         handler.NewTaskHandler(taskService),
		HabitHandler:        handler.NewHabitHandler(habitService),
		StatsHandler:        handler.NewStatsHandler(statsService),
		FeedHandler:         handler.NewFeedHandler(feedService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		CORSOrigins:         []string{"http://localhost:5173"},
	})
}

func registerUser(t *testing.T, server http.Handler, email, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func getState(t *testing.T, server http.Handler, token string) stateEnvelope {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodGet, "/api/timer/state", token, nil)
	if status != http.StatusOK {
		t.Fatalf("get state failed with status %d: %s", status, string(body))
	}
	var stateResp stateEnvelope
	if err := json.Unmarshal(body, &stateResp); err != nil {
		t.Fatalf("unmarshal state response: %v", err)
	}
	return stateResp
}

// waitForNotification polls until a notification of the given kind shows
// up in the user's list, returning its id. Delivery runs through the
// event bus on a background goroutine, so readers may race it.
func waitForNotification(t *testing.T, server http.Handler, token, kind string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		status, raw := requestJSON(t, server, http.MethodGet, "/api/notifications", token, nil)
		if status == http.StatusOK {
			var list notificationsEnvelope
			if err := json.Unmarshal(raw, &list); err != nil {
				t.Fatalf("unmarshal notifications: %v", err)
			}
			for _, n := range list.Notifications {
				if n.Kind == kind {
					return n.ID
				}
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("no %s notification arrived", kind)
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func requestJSON(t *testing.T, server http.Handler, method, path, token string, payload interface{}) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
