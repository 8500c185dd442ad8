package pubsub

// Kind identifies what happened to a user's account.
type Kind string

const (
	SessionCompleted Kind = "session_completed"
	LevelUp          Kind = "level_up"
	BadgeEarned      Kind = "badge_earned"
)

// RewardEvent is the payload carried by the account event bus. Only the
// fields relevant to the kind are set.
type RewardEvent struct {
	UserID         string
	Points         int
	Level          int
	Badge          string
	SessionPhase   string
	SessionLabel   string
	ElapsedSeconds int
}
