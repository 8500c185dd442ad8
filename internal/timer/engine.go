// Package timer implements the focus-session phase state machine: a
// deterministic countdown that cycles focus, short-break and long-break
// phases according to a configurable cadence. The engine owns no I/O;
// completed phases are reported through a sink callback so that callers
// can persist sessions and award points.
package timer

import "fmt"

type Phase string

const (
	PhaseFocus      Phase = "focus"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// ReloadPolicy selects what a configuration change does to a phase that is
// already counting down.
type ReloadPolicy string

const (
	// ReloadDefer keeps the in-flight phase on its old duration and applies
	// the new configuration at the next phase boundary.
	ReloadDefer ReloadPolicy = "defer"
	// ReloadApply applies the new configuration immediately, clamping the
	// remaining time so it never exceeds the new duration.
	ReloadApply ReloadPolicy = "apply"
)

const (
	DefaultFocusSeconds      = 25 * 60
	DefaultShortBreakSeconds = 5 * 60
	DefaultLongBreakSeconds  = 15 * 60
	DefaultCadence           = 4
)

// Config holds the durations, cadence and point values driving one engine.
type Config struct {
	FocusSeconds           int          `json:"focusSeconds"`
	ShortBreakSeconds      int          `json:"shortBreakSeconds"`
	LongBreakSeconds       int          `json:"longBreakSeconds"`
	SessionsUntilLongBreak int          `json:"sessionsUntilLongBreak"`
	FocusPoints            int          `json:"focusPoints"`
	ShortBreakPoints       int          `json:"shortBreakPoints"`
	LongBreakPoints        int          `json:"longBreakPoints"`
	ReloadPolicy           ReloadPolicy `json:"reloadPolicy"`
}

func DefaultConfig() Config {
	return Config{
		FocusSeconds:           DefaultFocusSeconds,
		ShortBreakSeconds:      DefaultShortBreakSeconds,
		LongBreakSeconds:       DefaultLongBreakSeconds,
		SessionsUntilLongBreak: DefaultCadence,
		FocusPoints:            50,
		ShortBreakPoints:       10,
		LongBreakPoints:        30,
		ReloadPolicy:           ReloadDefer,
	}
}

func (c Config) Validate() error {
	if c.FocusSeconds <= 0 || c.ShortBreakSeconds <= 0 || c.LongBreakSeconds <= 0 {
		return fmt.Errorf("timer: all durations must be positive")
	}
	if c.SessionsUntilLongBreak < 2 {
		return fmt.Errorf("timer: sessions until long break must be at least 2")
	}
	if c.ReloadPolicy != "" && c.ReloadPolicy != ReloadDefer && c.ReloadPolicy != ReloadApply {
		return fmt.Errorf("timer: unknown reload policy %q", c.ReloadPolicy)
	}
	return nil
}

func (c Config) DurationSeconds(phase Phase) int {
	switch phase {
	case PhaseShortBreak:
		return c.ShortBreakSeconds
	case PhaseLongBreak:
		return c.LongBreakSeconds
	default:
		return c.FocusSeconds
	}
}

func (c Config) Points(phase Phase) int {
	switch phase {
	case PhaseShortBreak:
		return c.ShortBreakPoints
	case PhaseLongBreak:
		return c.LongBreakPoints
	default:
		return c.FocusPoints
	}
}

// Event describes one finished phase. It is delivered to the sink at most
// once per phase, strictly before the next phase begins counting down.
type Event struct {
	Phase                  Phase
	ElapsedSeconds         int
	PointsAwarded          int
	CompletedFocusSessions int
}

// Sink consumes phase-completion events. It runs synchronously inside the
// engine operation that finished the phase and must not call back into the
// engine.
type Sink func(Event)

// Engine is the phase state machine. It is not safe for concurrent use;
// wrap it in a Runner when it has to be driven from multiple goroutines.
type Engine struct {
	cfg            Config
	pending        *Config
	phase          Phase
	status         Status
	remaining      int
	completedFocus int
	sink           Sink
}

// New builds an idle engine positioned at the start of a focus phase. An
// invalid configuration falls back to the classic default so a broken
// caller never gets a dead timer.
func New(cfg Config, sink Sink) *Engine {
	if err := cfg.Validate(); err != nil {
		cfg = DefaultConfig()
	}
	if cfg.ReloadPolicy == "" {
		cfg.ReloadPolicy = ReloadDefer
	}
	return &Engine{
		cfg:       cfg,
		phase:     PhaseFocus,
		status:    StatusIdle,
		remaining: cfg.FocusSeconds,
		sink:      sink,
	}
}

// Start begins or resumes the countdown. Calling it while already running
// is a no-op.
func (e *Engine) Start() {
	if e.status == StatusIdle || e.status == StatusPaused {
		e.status = StatusRunning
	}
}

// Tick advances the countdown by one second. Reaching zero completes the
// phase and rolls the engine into the next one.
func (e *Engine) Tick() {
	if e.status != StatusRunning {
		return
	}
	e.remaining--
	if e.remaining <= 0 {
		e.remaining = 0
		e.complete()
	}
}

// Advance applies n seconds of wall clock in one call, crossing as many
// phase boundaries as the elapsed time covers.
func (e *Engine) Advance(seconds int) {
	for i := 0; i < seconds && e.status == StatusRunning; i++ {
		e.Tick()
	}
}

// Complete finishes the current phase early, crediting it as if the
// countdown had reached zero.
func (e *Engine) Complete() {
	if e.status != StatusRunning {
		return
	}
	e.complete()
}

// Skip abandons the current phase and moves to the next one without
// crediting points or counting a completed focus session.
func (e *Engine) Skip() {
	if e.status == StatusIdle {
		return
	}
	e.advance()
}

// Reset returns the engine to idle with the current phase's full duration.
// The completed-focus-session count is preserved so the long-break cadence
// is unaffected.
func (e *Engine) Reset() {
	e.applyPending()
	e.status = StatusIdle
	e.remaining = e.cfg.DurationSeconds(e.phase)
}

// UpdateConfig swaps the active configuration. Invalid input is rejected
// and the prior configuration kept. When the engine is not running the new
// durations take effect immediately; a running phase follows the reload
// policy of the incoming configuration.
func (e *Engine) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.ReloadPolicy == "" {
		cfg.ReloadPolicy = e.cfg.ReloadPolicy
	}

	if e.status != StatusRunning {
		e.cfg = cfg
		e.pending = nil
		e.remaining = cfg.DurationSeconds(e.phase)
		return nil
	}

	switch cfg.ReloadPolicy {
	case ReloadApply:
		e.cfg = cfg
		e.pending = nil
		if limit := cfg.DurationSeconds(e.phase); e.remaining > limit {
			e.remaining = limit
		}
	default:
		pending := cfg
		e.pending = &pending
	}
	return nil
}

func (e *Engine) complete() {
	elapsed := e.cfg.DurationSeconds(e.phase) - e.remaining
	if elapsed < 0 {
		elapsed = 0
	}
	if e.phase == PhaseFocus {
		e.completedFocus++
	}

	e.status = StatusCompleted
	if e.sink != nil {
		e.sink(Event{
			Phase:                  e.phase,
			ElapsedSeconds:         elapsed,
			PointsAwarded:          e.cfg.Points(e.phase),
			CompletedFocusSessions: e.completedFocus,
		})
	}

	e.advance()
}

func (e *Engine) advance() {
	e.applyPending()
	e.phase = e.nextPhase()
	e.remaining = e.cfg.DurationSeconds(e.phase)
	e.status = StatusRunning
}

func (e *Engine) nextPhase() Phase {
	if e.phase != PhaseFocus {
		return PhaseFocus
	}
	// completedFocus counts only completions, so a skipped opening focus
	// phase leaves it at zero, a cadence boundary, and the long break is
	// selected.
	if e.completedFocus%e.cfg.SessionsUntilLongBreak == 0 {
		return PhaseLongBreak
	}
	return PhaseShortBreak
}

func (e *Engine) applyPending() {
	if e.pending == nil {
		return
	}
	e.cfg = *e.pending
	e.pending = nil
}

func (e *Engine) Config() Config { return e.cfg }

// PendingConfig returns the configuration waiting for the next phase
// boundary, or nil when none is queued.
func (e *Engine) PendingConfig() *Config {
	if e.pending == nil {
		return nil
	}
	cfg := *e.pending
	return &cfg
}

// SetPendingConfig queues a configuration for the next phase boundary.
// Used when rebuilding an engine from persisted state.
func (e *Engine) SetPendingConfig(cfg Config) {
	if cfg.Validate() != nil {
		return
	}
	e.pending = &cfg
}

// Snapshot is the read-only view handed to callers.
type Snapshot struct {
	Phase                  Phase   `json:"phase"`
	Status                 Status  `json:"status"`
	RemainingSeconds       int     `json:"remainingSeconds"`
	DurationSeconds        int     `json:"durationSeconds"`
	Progress               float64 `json:"progress"`
	SessionLabel           string  `json:"sessionLabel"`
	SessionNumber          int     `json:"sessionNumber"`
	CompletedFocusSessions int     `json:"completedFocusSessions"`
	CanStart               bool    `json:"canStart"`
	CanSkip                bool    `json:"canSkip"`
	Config                 Config  `json:"config"`
}

func (e *Engine) Snapshot() Snapshot {
	duration := e.cfg.DurationSeconds(e.phase)
	progress := 0.0
	if duration > 0 {
		progress = float64(duration-e.remaining) / float64(duration) * 100
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	return Snapshot{
		Phase:                  e.phase,
		Status:                 e.status,
		RemainingSeconds:       e.remaining,
		DurationSeconds:        duration,
		Progress:               progress,
		SessionLabel:           Label(e.phase),
		SessionNumber:          1 + e.completedFocus%e.cfg.SessionsUntilLongBreak,
		CompletedFocusSessions: e.completedFocus,
		CanStart:               e.status == StatusIdle,
		CanSkip:                e.status == StatusRunning || e.status == StatusCompleted,
		Config:                 e.cfg,
	}
}

// Label returns the display name for a phase.
func Label(phase Phase) string {
	switch phase {
	case PhaseShortBreak:
		return "Short Break"
	case PhaseLongBreak:
		return "Long Break"
	default:
		return "Focus"
	}
}

// Restore rebuilds an engine from persisted state. Out-of-range values are
// clamped rather than rejected so a corrupt row cannot wedge the timer.
func Restore(cfg Config, phase Phase, status Status, remaining, completedFocus int, sink Sink) *Engine {
	e := New(cfg, sink)
	switch phase {
	case PhaseFocus, PhaseShortBreak, PhaseLongBreak:
		e.phase = phase
	}
	switch status {
	case StatusIdle, StatusRunning, StatusPaused:
		e.status = status
	default:
		e.status = StatusIdle
	}
	if completedFocus > 0 {
		e.completedFocus = completedFocus
	}
	duration := e.cfg.DurationSeconds(e.phase)
	if remaining < 0 {
		remaining = 0
	}
	if remaining > duration {
		remaining = duration
	}
	e.remaining = remaining
	if e.status != StatusRunning && e.remaining == 0 {
		e.remaining = duration
	}
	return e
}
