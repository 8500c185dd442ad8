package model

import "time"

const PointsPerLevel = 100

type UserStats struct {
	UserID            string    `json:"userId"`
	TotalPoints       int       `json:"totalPoints"`
	Level             int       `json:"level"`
	CompletedSessions int       `json:"completedSessions"`
	FocusSeconds      int       `json:"focusSeconds"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// LevelForPoints maps a point total to a level, starting at level 1.
func LevelForPoints(points int) int {
	if points < 0 {
		return 1
	}
	return 1 + points/PointsPerLevel
}

// LeaderboardEntry is one ranked row of the public leaderboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	TotalPoints int    `json:"totalPoints"`
	Level       int    `json:"level"`
}
