package model

import "time"

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// ActivityEntry is one row of the shared activity feed.
type ActivityEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	Points      int       `json:"points"`
	CreatedAt   time.Time `json:"createdAt"`
}
