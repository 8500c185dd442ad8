package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "focusflow/backend/internal/errors"
	"focusflow/backend/internal/model"
	"focusflow/backend/internal/repository"
	"focusflow/backend/internal/template"
	"focusflow/backend/internal/timer"
)

// TimerService drives one phase engine per user. The engine itself is
// in-memory and pure; this service rebuilds it from the persisted state
// row on every request, replays the wall-clock seconds since the last
// write, applies the requested operation, hands any phase completions to
// the reward pipeline, and persists the result under an optimistic
// version.
type TimerService struct {
	repo    *repository.TimerRepository
	rewards *RewardService
	logger  *zap.Logger
}

func NewTimerService(repo *repository.TimerRepository, rewards *RewardService, logger *zap.Logger) *TimerService {
	return &TimerService{repo: repo, rewards: rewards, logger: logger}
}

// TimerStateView is the read-only snapshot returned to clients.
type TimerStateView struct {
	UserID                 string       `json:"userId"`
	TemplateID             string       `json:"templateId"`
	Phase                  timer.Phase  `json:"phase"`
	Status                 timer.Status `json:"status"`
	RemainingSeconds       int          `json:"remainingSeconds"`
	DurationSeconds        int          `json:"durationSeconds"`
	Progress               float64      `json:"progress"`
	SessionLabel           string       `json:"sessionLabel"`
	SessionNumber          int          `json:"sessionNumber"`
	CompletedFocusSessions int          `json:"completedFocusSessions"`
	CanStart               bool         `json:"canStart"`
	CanSkip                bool         `json:"canSkip"`
	Config                 timer.Config `json:"config"`
	Version                int          `json:"version"`
	UpdatedAt              time.Time    `json:"updatedAt"`
	ServerTime             time.Time    `json:"serverTime"`
}

// CustomTemplateInput carries user-chosen durations for the custom
// template. Durations are minutes.
type CustomTemplateInput struct {
	WorkMinutes            int
	ShortBreakMinutes      int
	LongBreakMinutes       int
	SessionsUntilLongBreak int
	ReloadPolicy           timer.ReloadPolicy
}

func (s *TimerService) GetState(ctx context.Context, userID string) (*TimerStateView, *apperrors.APIError) {
	return s.mutate(ctx, userID, 0, nil)
}

func (s *TimerService) Start(ctx context.Context, userID string, baseVersion int) (*TimerStateView, *apperrors.APIError) {
	return s.mutate(ctx, userID, baseVersion, func(eng *timer.Engine, state *model.TimerState) *apperrors.APIError {
		eng.Start()
		return nil
	})
}

// CompletePhase finishes the in-flight phase early. A no-op unless the
// timer is running.
func (s *TimerService) CompletePhase(ctx context.Context, userID string, baseVersion int) (*TimerStateView, *apperrors.APIError) {
	return s.mutate(ctx, userID, baseVersion, func(eng *timer.Engine, state *model.TimerState) *apperrors.APIError {
		eng.Complete()
		return nil
	})
}

// Skip jumps to the next phase without crediting the current one.
func (s *TimerService) Skip(ctx context.Context, userID string, baseVersion int) (*TimerStateView, *apperrors.APIError) {
	return s.mutate(ctx, userID, baseVersion, func(eng *timer.Engine, state *model.TimerState) *apperrors.APIError {
		eng.Skip()
		return nil
	})
}

func (s *TimerService) Reset(ctx context.Context, userID string, baseVersion int) (*TimerStateView, *apperrors.APIError) {
	return s.mutate(ctx, userID, baseVersion, func(eng *timer.Engine, state *model.TimerState) *apperrors.APIError {
		eng.Reset()
		return nil
	})
}

// SelectTemplate switches the active configuration to a catalog template.
func (s *TimerService) SelectTemplate(ctx context.Context, userID, templateID string, baseVersion int) (*TimerStateView, *apperrors.APIError) {
	tpl, ok := template.ByID(templateID)
	if !ok {
		return nil, apperrors.NotFound("template_not_found", "unknown session template")
	}
	return s.mutate(ctx, userID, baseVersion, func(eng *timer.Engine, state *model.TimerState) *apperrors.APIError {
		cfg := tpl.EngineConfig(eng.Config().ReloadPolicy)
		if err := eng.UpdateConfig(cfg); err != nil {
			return apperrors.BadRequest("invalid_template", err.Error())
		}
		state.TemplateID = tpl.ID
		return nil
	})
}

// UpdateCustomTemplate rebuilds the custom template from user durations
// and makes it the active configuration. Point values are derived from
// the durations.
func (s *TimerService) UpdateCustomTemplate(ctx context.Context, userID string, baseVersion int, input CustomTemplateInput) (*TimerStateView, *apperrors.APIError) {
	if !template.Validate(input.WorkMinutes, input.ShortBreakMinutes, input.LongBreakMinutes, input.SessionsUntilLongBreak) {
		return nil, apperrors.BadRequest("invalid_durations", "durations must be at least 1 minute and cadence at least 2")
	}
	tpl := template.NewCustom(input.WorkMinutes, input.ShortBreakMinutes, input.LongBreakMinutes, input.SessionsUntilLongBreak)

	return s.mutate(ctx, userID, baseVersion, func(eng *timer.Engine, state *model.TimerState) *apperrors.APIError {
		policy := input.ReloadPolicy
		if policy == "" {
			policy = eng.Config().ReloadPolicy
		}
		if err := eng.UpdateConfig(tpl.EngineConfig(policy)); err != nil {
			return apperrors.BadRequest("invalid_durations", err.Error())
		}
		state.TemplateID = template.CustomID
		return nil
	})
}

func (s *TimerService) History(ctx context.Context, userID string, limit int) ([]model.FocusSession, *apperrors.APIError) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	sessions, err := s.repo.ListSessions(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to load session history")
	}
	return sessions, nil
}

type timerOp func(*timer.Engine, *model.TimerState) *apperrors.APIError

// mutate is the single write path. The state write is a compare-and-swap
// on the version the request read, so a concurrent writer between our
// read and write surfaces as a stale store; one re-read resolves it, a
// second straight loss is reported as a conflict. Completions are
// credited only after a winning write, keeping each finished phase
// credited exactly once across devices.
func (s *TimerService) mutate(ctx context.Context, userID string, baseVersion int, op timerOp) (*TimerStateView, *apperrors.APIError) {
	now := time.Now().UTC()

	for attempt := 0; attempt < 2; attempt++ {
		view, apiErr, stale := s.mutateOnce(ctx, userID, baseVersion, op, now)
		if !stale {
			return view, apiErr
		}
	}
	return nil, s.conflict(ctx, userID, now)
}

func (s *TimerService) mutateOnce(ctx context.Context, userID string, baseVersion int, op timerOp, now time.Time) (*TimerStateView, *apperrors.APIError, bool) {
	state, err := s.repo.GetState(ctx, userID)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("timer_not_found", "timer state not found"), false
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load timer state"), false
	}

	var completions []timer.Event
	eng := timer.Restore(
		state.Config,
		state.Phase,
		state.Status,
		state.RemainingSeconds,
		state.CompletedFocusSessions,
		func(ev timer.Event) { completions = append(completions, ev) },
	)
	if state.PendingConfig != nil {
		eng.SetPendingConfig(*state.PendingConfig)
	}

	changed := s.catchUp(eng, state, now)

	if baseVersion > 0 && baseVersion != state.Version {
		if changed {
			switch err := s.store(ctx, state, eng, now); err {
			case nil:
				s.applyCompletions(ctx, state, completions, now)
			case repository.ErrStaleState:
				return nil, nil, true
			default:
				s.logger.Warn("persist caught-up timer state", zap.String("user", userID), zap.Error(err))
			}
		}
		view := s.view(state, eng, now)
		return nil, apperrors.Conflict("state_conflict", "timer state changed on another device", map[string]interface{}{
			"state": view,
		}), false
	}

	if op != nil {
		if apiErr := op(eng, state); apiErr != nil {
			return nil, apiErr, false
		}
		changed = true
	}

	if changed {
		switch err := s.store(ctx, state, eng, now); err {
		case nil:
		case repository.ErrStaleState:
			return nil, nil, true
		default:
			return nil, apperrors.Internal("failed to persist timer state"), false
		}
		s.applyCompletions(ctx, state, completions, now)
	}

	view := s.view(state, eng, now)
	return &view, nil, false
}

// conflict builds the 409 carrying the winning device's state.
func (s *TimerService) conflict(ctx context.Context, userID string, now time.Time) *apperrors.APIError {
	details := map[string]interface{}{}
	if state, err := s.repo.GetState(ctx, userID); err == nil {
		eng := timer.Restore(state.Config, state.Phase, state.Status, state.RemainingSeconds, state.CompletedFocusSessions, nil)
		if state.PendingConfig != nil {
			eng.SetPendingConfig(*state.PendingConfig)
		}
		details["state"] = s.view(state, eng, now)
	}
	return apperrors.Conflict("state_conflict", "timer state changed on another device", details)
}

// catchUp replays the seconds elapsed since the state row was written.
// A phase that finished while nobody was watching is credited exactly
// once; the timer then parks idle at the start of the next phase instead
// of burning through unattended cycles.
func (s *TimerService) catchUp(eng *timer.Engine, state *model.TimerState, now time.Time) bool {
	if state.Status != timer.StatusRunning {
		return false
	}
	elapsed := int(now.Sub(state.UpdatedAt).Seconds())
	if elapsed <= 0 {
		return false
	}
	if elapsed >= state.RemainingSeconds {
		eng.Advance(state.RemainingSeconds)
		eng.Reset()
	} else {
		eng.Advance(elapsed)
	}
	return true
}

func (s *TimerService) applyCompletions(ctx context.Context, state *model.TimerState, completions []timer.Event, now time.Time) {
	for _, ev := range completions {
		session := model.FocusSession{
			ID:              uuid.NewString(),
			UserID:          state.UserID,
			Phase:           string(ev.Phase),
			TemplateID:      state.TemplateID,
			DurationSeconds: ev.ElapsedSeconds,
			PointsEarned:    ev.PointsAwarded,
			CompletedAt:     now,
		}
		if err := s.repo.InsertSession(ctx, &session); err != nil {
			s.logger.Warn("persist focus session", zap.String("user", state.UserID), zap.Error(err))
		}

		focusSeconds := 0
		completedSession := false
		if ev.Phase == timer.PhaseFocus {
			focusSeconds = ev.ElapsedSeconds
			completedSession = true
			s.rewards.Activity(ctx, state.UserID, "session_completed", ev.PointsAwarded,
				"completed a %d-minute focus session", ev.ElapsedSeconds/60)
			s.rewards.SessionCompleted(state.UserID, string(ev.Phase), timer.Label(ev.Phase), ev.ElapsedSeconds, ev.PointsAwarded)
		}
		s.rewards.Credit(ctx, state.UserID, ev.PointsAwarded, focusSeconds, completedSession)
	}
}

func (s *TimerService) store(ctx context.Context, state *model.TimerState, eng *timer.Engine, now time.Time) error {
	snap := eng.Snapshot()
	state.Phase = snap.Phase
	state.Status = snap.Status
	state.RemainingSeconds = snap.RemainingSeconds
	state.CompletedFocusSessions = snap.CompletedFocusSessions
	state.Config = eng.Config()
	state.PendingConfig = eng.PendingConfig()
	if snap.Status == timer.StatusRunning {
		if state.StartedAt == nil {
			anchor := now
			state.StartedAt = &anchor
		}
	} else {
		state.StartedAt = nil
	}
	readVersion := state.Version
	state.Version++
	state.UpdatedAt = now

	return s.repo.UpdateState(ctx, state, readVersion)
}

func (s *TimerService) view(state *model.TimerState, eng *timer.Engine, now time.Time) TimerStateView {
	snap := eng.Snapshot()
	return TimerStateView{
		UserID:                 state.UserID,
		TemplateID:             state.TemplateID,
		Phase:                  snap.Phase,
		Status:                 snap.Status,
		RemainingSeconds:       snap.RemainingSeconds,
		DurationSeconds:        snap.DurationSeconds,
		Progress:               snap.Progress,
		SessionLabel:           snap.SessionLabel,
		SessionNumber:          snap.SessionNumber,
		CompletedFocusSessions: snap.CompletedFocusSessions,
		CanStart:               snap.CanStart,
		CanSkip:                snap.CanSkip,
		Config:                 snap.Config,
		Version:                state.Version,
		UpdatedAt:              state.UpdatedAt,
		ServerTime:             now,
	}
}
