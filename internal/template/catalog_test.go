package template

import (
	"testing"

	"focusflow/backend/internal/timer"
)

func TestCatalogContents(t *testing.T) {
	all := All()
	if len(all) != 8 {
		t.Fatalf("expected 8 templates, got %d", len(all))
	}

	seen := make(map[string]bool, len(all))
	for _, tpl := range all {
		if seen[tpl.ID] {
			t.Fatalf("duplicate template id %s", tpl.ID)
		}
		seen[tpl.ID] = true
		if !Validate(tpl.WorkMinutes, tpl.ShortBreakMinutes, tpl.LongBreakMinutes, tpl.SessionsUntilLongBreak) {
			t.Fatalf("template %s has invalid parameters", tpl.ID)
		}
	}
}

func TestByID(t *testing.T) {
	tpl, ok := ByID("deep-work")
	if !ok {
		t.Fatal("expected deep-work to exist")
	}
	if tpl.WorkMinutes != 50 {
		t.Fatalf("expected 50-minute work phase, got %d", tpl.WorkMinutes)
	}

	if _, ok := ByID("no-such-template"); ok {
		t.Fatal("expected lookup miss for unknown id")
	}
}

func TestByCategory(t *testing.T) {
	classic := ByCategory(CategoryClassic)
	if len(classic) != 3 {
		t.Fatalf("expected 3 classic templates, got %d", len(classic))
	}
	custom := ByCategory(CategoryCustom)
	if len(custom) != 1 || custom[0].ID != CustomID {
		t.Fatalf("expected only the custom template, got %v", custom)
	}
	if got := ByCategory("nonsense"); got != nil {
		t.Fatalf("expected nil for unknown category, got %v", got)
	}
}

func TestDefaultIsClassicPomodoro(t *testing.T) {
	tpl := Default()
	if tpl.ID != DefaultID {
		t.Fatalf("expected %s, got %s", DefaultID, tpl.ID)
	}
	if tpl.WorkMinutes != 25 || tpl.ShortBreakMinutes != 5 || tpl.LongBreakMinutes != 15 {
		t.Fatalf("unexpected default durations: %d/%d/%d", tpl.WorkMinutes, tpl.ShortBreakMinutes, tpl.LongBreakMinutes)
	}
	if tpl.SessionsUntilLongBreak != 4 {
		t.Fatalf("expected cadence 4, got %d", tpl.SessionsUntilLongBreak)
	}
}

func TestNewCustomDerivesPoints(t *testing.T) {
	tpl := NewCustom(45, 5, 20, 3)
	if tpl.WorkPoints != 90 {
		t.Fatalf("expected 90 work points for 45 minutes, got %d", tpl.WorkPoints)
	}
	if tpl.ShortBreakPoints != 10 {
		t.Fatalf("expected 10 short break points, got %d", tpl.ShortBreakPoints)
	}
	if tpl.LongBreakPoints != 40 {
		t.Fatalf("expected 40 long break points, got %d", tpl.LongBreakPoints)
	}
	if tpl.Category != CategoryCustom {
		t.Fatalf("expected custom category, got %s", tpl.Category)
	}
}

func TestValidate(t *testing.T) {
	if !Validate(25, 5, 15, 4) {
		t.Fatal("expected classic parameters to validate")
	}
	if Validate(0, 5, 15, 4) {
		t.Fatal("expected zero work duration to fail")
	}
	if Validate(25, 5, 15, 1) {
		t.Fatal("expected cadence below 2 to fail")
	}
}

func TestEngineConfigConvertsMinutes(t *testing.T) {
	cfg := Default().EngineConfig(timer.ReloadApply)
	if cfg.FocusSeconds != 25*60 {
		t.Fatalf("expected 1500 focus seconds, got %d", cfg.FocusSeconds)
	}
	if cfg.ShortBreakSeconds != 5*60 || cfg.LongBreakSeconds != 15*60 {
		t.Fatalf("unexpected break durations: %d/%d", cfg.ShortBreakSeconds, cfg.LongBreakSeconds)
	}
	if cfg.ReloadPolicy != timer.ReloadApply {
		t.Fatalf("expected apply policy, got %s", cfg.ReloadPolicy)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid engine config: %v", err)
	}
}
