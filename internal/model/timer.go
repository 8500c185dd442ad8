package model

import (
	"time"

	"focusflow/backend/internal/timer"
)

// TimerState is the persisted row backing one user's phase engine. The
// engine itself lives in memory; this row lets a running countdown survive
// process restarts by anchoring it to StartedAt.
type TimerState struct {
	UserID                 string
	TemplateID             string
	Phase                  timer.Phase
	Status                 timer.Status
	RemainingSeconds       int
	CompletedFocusSessions int
	Config                 timer.Config
	PendingConfig          *timer.Config
	StartedAt              *time.Time
	Version                int
	UpdatedAt              time.Time
}

// FocusSession is one finished phase: the durable record written by the
// side-effect handler when the engine reports a completion.
type FocusSession struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Phase           string    `json:"phase"`
	TemplateID      string    `json:"templateId"`
	DurationSeconds int       `json:"durationSeconds"`
	PointsEarned    int       `json:"pointsEarned"`
	CompletedAt     time.Time `json:"completedAt"`
}
