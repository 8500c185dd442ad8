package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"focusflow/backend/internal/model"
	"focusflow/backend/internal/timer"
)

type TimerRepository struct {
	db *sql.DB
}

func NewTimerRepository(db *sql.DB) *TimerRepository {
	return &TimerRepository{db: db}
}

// CreateInitialState seeds a fresh idle state on the default template for
// a newly registered user.
func (r *TimerRepository) CreateInitialState(ctx context.Context, userID, templateID string, cfg timer.Config) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO timer_states (
			user_id, template_id, phase, status, remaining_seconds,
			completed_focus_sessions, focus_seconds, short_break_seconds,
			long_break_seconds, sessions_until_long_break, focus_points,
			short_break_points, long_break_points, reload_policy,
			pending_config, started_at, version, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, 1, ?)`,
		userID,
		templateID,
		string(timer.PhaseFocus),
		string(timer.StatusIdle),
		cfg.FocusSeconds,
		0,
		cfg.FocusSeconds,
		cfg.ShortBreakSeconds,
		cfg.LongBreakSeconds,
		cfg.SessionsUntilLongBreak,
		cfg.FocusPoints,
		cfg.ShortBreakPoints,
		cfg.LongBreakPoints,
		string(cfg.ReloadPolicy),
		now,
	)
	if err != nil {
		return fmt.Errorf("create initial timer state: %w", err)
	}
	return nil
}

func (r *TimerRepository) GetState(ctx context.Context, userID string) (*model.TimerState, error) {
	row := r.db.QueryRowContext(ctx, timerStateSelect+` WHERE user_id = ?`, userID)
	return scanTimerState(row)
}

// UpdateState writes the state row under a compare-and-swap on the
// version the caller read. When expectedVersion no longer matches the
// row, nothing is written and ErrStaleState is returned.
func (r *TimerRepository) UpdateState(ctx context.Context, state *model.TimerState, expectedVersion int) error {
	var startedAt interface{}
	if state.StartedAt != nil {
		startedAt = state.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	var pendingConfig interface{}
	if state.PendingConfig != nil {
		raw, err := json.Marshal(state.PendingConfig)
		if err != nil {
			return fmt.Errorf("marshal pending config: %w", err)
		}
		pendingConfig = string(raw)
	}

	res, err := r.db.ExecContext(
		ctx,
		`UPDATE timer_states
		 SET template_id = ?,
		     phase = ?,
		     status = ?,
		     remaining_seconds = ?,
		     completed_focus_sessions = ?,
		     focus_seconds = ?,
		     short_break_seconds = ?,
		     long_break_seconds = ?,
		     sessions_until_long_break = ?,
		     focus_points = ?,
		     short_break_points = ?,
		     long_break_points = ?,
		     reload_policy = ?,
		     pending_config = ?,
		     started_at = ?,
		     version = ?,
		     updated_at = ?
		 WHERE user_id = ? AND version = ?`,
		state.TemplateID,
		string(state.Phase),
		string(state.Status),
		state.RemainingSeconds,
		state.CompletedFocusSessions,
		state.Config.FocusSeconds,
		state.Config.ShortBreakSeconds,
		state.Config.LongBreakSeconds,
		state.Config.SessionsUntilLongBreak,
		state.Config.FocusPoints,
		state.Config.ShortBreakPoints,
		state.Config.LongBreakPoints,
		string(state.Config.ReloadPolicy),
		pendingConfig,
		startedAt,
		state.Version,
		state.UpdatedAt.UTC().Format(time.RFC3339Nano),
		state.UserID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update timer state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update timer state: %w", err)
	}
	if affected == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *TimerRepository) InsertSession(ctx context.Context, session *model.FocusSession) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO focus_sessions (
			id, user_id, phase, template_id, duration_seconds, points_earned, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.Phase,
		session.TemplateID,
		session.DurationSeconds,
		session.PointsEarned,
		session.CompletedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert focus session: %w", err)
	}
	return nil
}

func (r *TimerRepository) ListSessions(ctx context.Context, userID string, limit int) ([]model.FocusSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, phase, template_id, duration_seconds, points_earned, completed_at
		 FROM focus_sessions
		 WHERE user_id = ?
		 ORDER BY completed_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list focus sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.FocusSession, 0, limit)
	for rows.Next() {
		var session model.FocusSession
		var completedAt string
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.Phase,
			&session.TemplateID,
			&session.DurationSeconds,
			&session.PointsEarned,
			&completedAt,
		); err != nil {
			return nil, fmt.Errorf("scan focus session: %w", err)
		}
		parsed, parseErr := parseTime(completedAt)
		if parseErr != nil {
			return nil, fmt.Errorf("parse session completed_at: %w", parseErr)
		}
		session.CompletedAt = parsed
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate focus sessions: %w", err)
	}
	return sessions, nil
}

const timerStateSelect = `SELECT user_id, template_id, phase, status, remaining_seconds,
       completed_focus_sessions, focus_seconds, short_break_seconds,
       long_break_seconds, sessions_until_long_break, focus_points,
       short_break_points, long_break_points, reload_policy,
       pending_config, started_at, version, updated_at
  FROM timer_states`

func scanTimerState(s scanner) (*model.TimerState, error) {
	state := model.TimerState{}
	var phase, status, reloadPolicy string
	var pendingConfig sql.NullString
	var startedAt sql.NullString
	var updatedAt string
	err := s.Scan(
		&state.UserID,
		&state.TemplateID,
		&phase,
		&status,
		&state.RemainingSeconds,
		&state.CompletedFocusSessions,
		&state.Config.FocusSeconds,
		&state.Config.ShortBreakSeconds,
		&state.Config.LongBreakSeconds,
		&state.Config.SessionsUntilLongBreak,
		&state.Config.FocusPoints,
		&state.Config.ShortBreakPoints,
		&state.Config.LongBreakPoints,
		&reloadPolicy,
		&pendingConfig,
		&startedAt,
		&state.Version,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan timer state: %w", err)
	}

	state.Phase = timer.Phase(phase)
	state.Status = timer.Status(status)
	state.Config.ReloadPolicy = timer.ReloadPolicy(reloadPolicy)

	if pendingConfig.Valid && pendingConfig.String != "" {
		var cfg timer.Config
		if err := json.Unmarshal([]byte(pendingConfig.String), &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal pending config: %w", err)
		}
		state.PendingConfig = &cfg
	}

	if startedAt.Valid {
		parsed, parseErr := parseTime(startedAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse timer started_at: %w", parseErr)
		}
		state.StartedAt = &parsed
	}

	parsedUpdatedAt, parseErr := parseTime(updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parse timer updated_at: %w", parseErr)
	}
	state.UpdatedAt = parsedUpdatedAt
	return &state, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}
