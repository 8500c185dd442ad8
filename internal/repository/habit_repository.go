package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focusflow/backend/internal/model"
)

type HabitRepository struct {
	db *sql.DB
}

func NewHabitRepository(db *sql.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

func (r *HabitRepository) Create(ctx context.Context, habit *model.Habit) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO habits (id, user_id, name, description, points, current_streak, best_streak, last_checkin, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, 0, NULL, ?, ?)`,
		habit.ID,
		habit.UserID,
		habit.Name,
		habit.Description,
		habit.Points,
		habit.CreatedAt.UTC().Format(time.RFC3339Nano),
		habit.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

func (r *HabitRepository) Get(ctx context.Context, userID, id string) (*model.Habit, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, name, description, points, current_streak, best_streak, last_checkin, created_at, updated_at
		 FROM habits
		 WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	return scanHabit(row)
}

func (r *HabitRepository) List(ctx context.Context, userID string) ([]model.Habit, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, name, description, points, current_streak, best_streak, last_checkin, created_at, updated_at
		 FROM habits
		 WHERE user_id = ?
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		habit, scanErr := scanHabit(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		habits = append(habits, *habit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate habits: %w", err)
	}
	if habits == nil {
		habits = []model.Habit{}
	}
	return habits, nil
}

func (r *HabitRepository) Update(ctx context.Context, habit *model.Habit) error {
	var lastCheckin interface{}
	if habit.LastCheckin != nil {
		lastCheckin = *habit.LastCheckin
	}

	_, err := r.db.ExecContext(
		ctx,
		`UPDATE habits
		 SET name = ?,
		     description = ?,
		     points = ?,
		     current_streak = ?,
		     best_streak = ?,
		     last_checkin = ?,
		     updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		habit.Name,
		habit.Description,
		habit.Points,
		habit.CurrentStreak,
		habit.BestStreak,
		lastCheckin,
		habit.UpdatedAt.UTC().Format(time.RFC3339Nano),
		habit.ID,
		habit.UserID,
	)
	if err != nil {
		return fmt.Errorf("update habit: %w", err)
	}
	return nil
}

func (r *HabitRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete habit rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *HabitRepository) InsertCheckin(ctx context.Context, checkin *model.HabitCheckin) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO habit_checkins (id, habit_id, user_id, date, points_earned, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		checkin.ID,
		checkin.HabitID,
		checkin.UserID,
		checkin.Date,
		checkin.PointsEarned,
		checkin.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert habit checkin: %w", err)
	}
	return nil
}

func (r *HabitRepository) HasCheckin(ctx context.Context, habitID, date string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM habit_checkins WHERE habit_id = ? AND date = ?`,
		habitID,
		date,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check habit checkin: %w", err)
	}
	return count > 0, nil
}

func scanHabit(s scanner) (*model.Habit, error) {
	habit := model.Habit{}
	var lastCheckin sql.NullString
	var createdAt, updatedAt string
	err := s.Scan(
		&habit.ID,
		&habit.UserID,
		&habit.Name,
		&habit.Description,
		&habit.Points,
		&habit.CurrentStreak,
		&habit.BestStreak,
		&lastCheckin,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan habit: %w", err)
	}

	if lastCheckin.Valid {
		value := lastCheckin.String
		habit.LastCheckin = &value
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse habit created_at: %w", err)
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse habit updated_at: %w", err)
	}
	habit.CreatedAt = parsedCreatedAt
	habit.UpdatedAt = parsedUpdatedAt
	return &habit, nil
}
