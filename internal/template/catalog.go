// Package template holds the built-in session template catalog: named
// bundles of phase durations, cadence and point values that configure the
// focus timer.
package template

import (
	"math"

	"focusflow/backend/internal/timer"
)

const (
	CategoryClassic  = "classic"
	CategoryExtended = "extended"
	CategoryCustom   = "custom"

	CustomID  = "custom"
	DefaultID = "classic-pomodoro"
)

// Template is one timer profile. Durations are minutes; point values are
// what a completed phase of each type is worth.
type Template struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	Description            string `json:"description"`
	WorkMinutes            int    `json:"workMinutes"`
	ShortBreakMinutes      int    `json:"shortBreakMinutes"`
	LongBreakMinutes       int    `json:"longBreakMinutes"`
	SessionsUntilLongBreak int    `json:"sessionsUntilLongBreak"`
	Category               string `json:"category"`
	WorkPoints             int    `json:"workPoints"`
	ShortBreakPoints       int    `json:"shortBreakPoints"`
	LongBreakPoints        int    `json:"longBreakPoints"`
}

// EngineConfig converts the template's minute durations into the engine's
// second-based configuration.
func (t Template) EngineConfig(policy timer.ReloadPolicy) timer.Config {
	return timer.Config{
		FocusSeconds:           t.WorkMinutes * 60,
		ShortBreakSeconds:      t.ShortBreakMinutes * 60,
		LongBreakSeconds:       t.LongBreakMinutes * 60,
		SessionsUntilLongBreak: t.SessionsUntilLongBreak,
		FocusPoints:            t.WorkPoints,
		ShortBreakPoints:       t.ShortBreakPoints,
		LongBreakPoints:        t.LongBreakPoints,
		ReloadPolicy:           policy,
	}
}

var catalog = []Template{
	{
		ID:                     "classic-pomodoro",
		Name:                   "Classic Pomodoro",
		Description:            "The traditional 25/5 rhythm with a long break every four sessions.",
		WorkMinutes:            25,
		ShortBreakMinutes:      5,
		LongBreakMinutes:       15,
		SessionsUntilLongBreak: 4,
		Category:               CategoryClassic,
		WorkPoints:             50,
		ShortBreakPoints:       10,
		LongBreakPoints:        30,
	},
	{
		ID:                     "short-burst",
		Name:                   "Short Burst",
		Description:            "Quick 15-minute sprints for shallow work and warm-ups.",
		WorkMinutes:            15,
		ShortBreakMinutes:      3,
		LongBreakMinutes:       10,
		SessionsUntilLongBreak: 4,
		Category:               CategoryClassic,
		WorkPoints:             30,
		ShortBreakPoints:       6,
		LongBreakPoints:        20,
	},
	{
		ID:                     "gentle-start",
		Name:                   "Gentle Start",
		Description:            "Ten minutes of focus to get going on hard days.",
		WorkMinutes:            10,
		ShortBreakMinutes:      5,
		LongBreakMinutes:       10,
		SessionsUntilLongBreak: 3,
		Category:               CategoryClassic,
		WorkPoints:             20,
		ShortBreakPoints:       10,
		LongBreakPoints:        20,
	},
	{
		ID:                     "deep-work",
		Name:                   "Deep Work",
		Description:            "50-minute blocks for sustained concentration.",
		WorkMinutes:            50,
		ShortBreakMinutes:      10,
		LongBreakMinutes:       25,
		SessionsUntilLongBreak: 3,
		Category:               CategoryExtended,
		WorkPoints:             100,
		ShortBreakPoints:       20,
		LongBreakPoints:        50,
	},
	{
		ID:                     "flow-state",
		Name:                   "Flow State",
		Description:            "The 52/17 split popularized by workplace studies.",
		WorkMinutes:            52,
		ShortBreakMinutes:      17,
		LongBreakMinutes:       30,
		SessionsUntilLongBreak: 3,
		Category:               CategoryExtended,
		WorkPoints:             104,
		ShortBreakPoints:       34,
		LongBreakPoints:        60,
	},
	{
		ID:                     "marathon",
		Name:                   "Marathon",
		Description:            "90-minute ultradian cycles for long creative stretches.",
		WorkMinutes:            90,
		ShortBreakMinutes:      20,
		LongBreakMinutes:       40,
		SessionsUntilLongBreak: 2,
		Category:               CategoryExtended,
		WorkPoints:             180,
		ShortBreakPoints:       40,
		LongBreakPoints:        80,
	},
	{
		ID:                     "study-hall",
		Name:                   "Study Hall",
		Description:            "45-minute lecture-length sessions with relaxed breaks.",
		WorkMinutes:            45,
		ShortBreakMinutes:      15,
		LongBreakMinutes:       30,
		SessionsUntilLongBreak: 2,
		Category:               CategoryExtended,
		WorkPoints:             90,
		ShortBreakPoints:       30,
		LongBreakPoints:        60,
	},
	NewCustom(25, 5, 15, 4),
}

// All returns the catalog in its fixed order.
func All() []Template {
	out := make([]Template, len(catalog))
	copy(out, catalog)
	return out
}

// ByID looks up one template. The second return is false when the id is
// unknown; callers fall back to Default.
func ByID(id string) (Template, bool) {
	for _, t := range catalog {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// ByCategory returns all templates of one category, order preserved.
func ByCategory(category string) []Template {
	var out []Template
	for _, t := range catalog {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

func Default() Template {
	t, _ := ByID(DefaultID)
	return t
}

// NewCustom builds a fresh custom template from user durations. Point
// values are derived from the durations, two points per minute.
func NewCustom(workMinutes, shortBreakMinutes, longBreakMinutes, sessionsUntilLongBreak int) Template {
	return Template{
		ID:                     CustomID,
		Name:                   "Custom",
		Description:            "Your own durations and cadence.",
		WorkMinutes:            workMinutes,
		ShortBreakMinutes:      shortBreakMinutes,
		LongBreakMinutes:       longBreakMinutes,
		SessionsUntilLongBreak: sessionsUntilLongBreak,
		Category:               CategoryCustom,
		WorkPoints:             pointsFor(workMinutes),
		ShortBreakPoints:       pointsFor(shortBreakMinutes),
		LongBreakPoints:        pointsFor(longBreakMinutes),
	}
}

// Validate reports whether a custom template's parameters are usable.
func Validate(workMinutes, shortBreakMinutes, longBreakMinutes, sessionsUntilLongBreak int) bool {
	return workMinutes >= 1 && shortBreakMinutes >= 1 && longBreakMinutes >= 1 && sessionsUntilLongBreak >= 2
}

func pointsFor(minutes int) int {
	return int(math.Round(float64(minutes) * 2))
}
