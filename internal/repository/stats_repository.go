package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focusflow/backend/internal/model"
)

type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) CreateInitial(ctx context.Context, userID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO user_stats (user_id, total_points, level, completed_sessions, focus_seconds, updated_at)
		 VALUES (?, 0, 1, 0, 0, ?)`,
		userID,
		now,
	)
	if err != nil {
		return fmt.Errorf("create initial stats: %w", err)
	}
	return nil
}

func (r *StatsRepository) Get(ctx context.Context, userID string) (*model.UserStats, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT user_id, total_points, level, completed_sessions, focus_seconds, updated_at
		 FROM user_stats
		 WHERE user_id = ?`,
		userID,
	)

	stats := model.UserStats{}
	var updatedAt string
	err := row.Scan(
		&stats.UserID,
		&stats.TotalPoints,
		&stats.Level,
		&stats.CompletedSessions,
		&stats.FocusSeconds,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan stats: %w", err)
	}

	parsed, parseErr := parseTime(updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parse stats updated_at: %w", parseErr)
	}
	stats.UpdatedAt = parsed
	return &stats, nil
}

func (r *StatsRepository) Update(ctx context.Context, stats *model.UserStats) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE user_stats
		 SET total_points = ?,
		     level = ?,
		     completed_sessions = ?,
		     focus_seconds = ?,
		     updated_at = ?
		 WHERE user_id = ?`,
		stats.TotalPoints,
		stats.Level,
		stats.CompletedSessions,
		stats.FocusSeconds,
		stats.UpdatedAt.UTC().Format(time.RFC3339Nano),
		stats.UserID,
	)
	if err != nil {
		return fmt.Errorf("update stats: %w", err)
	}
	return nil
}

// Top returns the highest-scoring users joined with their display names,
// ties broken by user id for a stable order.
func (r *StatsRepository) Top(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT s.user_id, u.display_name, s.total_points, s.level
		 FROM user_stats s
		 JOIN users u ON u.id = s.user_id
		 ORDER BY s.total_points DESC, s.user_id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]model.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var entry model.LeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.DisplayName, &entry.TotalPoints, &entry.Level); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entry.Rank = len(entries) + 1
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return entries, nil
}
