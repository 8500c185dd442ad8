package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focusflow/backend/internal/model"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO notifications (id, user_id, kind, title, body, read, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		n.ID,
		n.UserID,
		n.Kind,
		n.Title,
		n.Body,
		n.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) List(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, kind, title, body, read, created_at
		 FROM notifications
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]model.Notification, 0, limit)
	for rows.Next() {
		var n model.Notification
		var read int
		var createdAt string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &read, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Read = read != 0
		parsed, parseErr := parseTime(createdAt)
		if parseErr != nil {
			return nil, fmt.Errorf("parse notification created_at: %w", parseErr)
		}
		n.CreatedAt = parsed
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE notifications SET read = 1 WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

type FeedRepository struct {
	db *sql.DB
}

func NewFeedRepository(db *sql.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

func (r *FeedRepository) Insert(ctx context.Context, entry *model.ActivityEntry) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO activity_entries (id, user_id, kind, message, points, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		entry.Kind,
		entry.Message,
		entry.Points,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

// Recent returns the newest feed entries across all users, joined with
// display names.
func (r *FeedRepository) Recent(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT a.id, a.user_id, u.display_name, a.kind, a.message, a.points, a.created_at
		 FROM activity_entries a
		 JOIN users u ON u.id = a.user_id
		 ORDER BY a.created_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.ActivityEntry, 0, limit)
	for rows.Next() {
		var entry model.ActivityEntry
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.DisplayName, &entry.Kind, &entry.Message, &entry.Points, &createdAt); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		parsed, parseErr := parseTime(createdAt)
		if parseErr != nil {
			return nil, fmt.Errorf("parse activity created_at: %w", parseErr)
		}
		entry.CreatedAt = parsed
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity entries: %w", err)
	}
	return entries, nil
}
