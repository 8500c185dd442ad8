package model

import "time"

type Habit struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Points        int       `json:"points"`
	CurrentStreak int       `json:"currentStreak"`
	BestStreak    int       `json:"bestStreak"`
	LastCheckin   *string   `json:"lastCheckin,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HabitCheckin records one daily check-in. Date is a YYYY-MM-DD string in
// UTC; the unique (habit_id, date) pair enforces one check-in per day.
type HabitCheckin struct {
	ID           string    `json:"id"`
	HabitID      string    `json:"habitId"`
	UserID       string    `json:"userId"`
	Date         string    `json:"date"`
	PointsEarned int       `json:"pointsEarned"`
	CreatedAt    time.Time `json:"createdAt"`
}
