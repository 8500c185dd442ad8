package timer

import (
	"testing"
	"time"
)

func TestRunnerTicksWhileRunning(t *testing.T) {
	engine := New(testConfig(), nil)
	runner := NewRunner(engine)
	defer runner.Close()

	runner.Do(func(e *Engine) { e.Start() })

	deadline := time.After(3 * time.Second)
	for {
		if runner.Snapshot().RemainingSeconds < 4 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("runner never ticked the engine")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestRunnerStopsWhenEngineResets(t *testing.T) {
	engine := New(testConfig(), nil)
	runner := NewRunner(engine)
	defer runner.Close()

	runner.Do(func(e *Engine) { e.Start() })
	runner.Do(func(e *Engine) { e.Reset() })

	before := runner.Snapshot().RemainingSeconds
	time.Sleep(1500 * time.Millisecond)
	after := runner.Snapshot().RemainingSeconds

	if before != after {
		t.Fatalf("engine ticked after reset: %d then %d", before, after)
	}
	if got := runner.Snapshot().Status; got != StatusIdle {
		t.Fatalf("expected idle, got %s", got)
	}
}

func TestRunnerCloseCancelsTicker(t *testing.T) {
	engine := New(testConfig(), nil)
	runner := NewRunner(engine)

	runner.Do(func(e *Engine) { e.Start() })
	runner.Close()

	before := runner.Snapshot().RemainingSeconds
	time.Sleep(1500 * time.Millisecond)
	after := runner.Snapshot().RemainingSeconds

	if before != after {
		t.Fatalf("engine ticked after close: %d then %d", before, after)
	}
}

func TestRunnerDoKeepsStateConsistent(t *testing.T) {
	engine := New(testConfig(), nil)
	runner := NewRunner(engine)
	defer runner.Close()

	runner.Do(func(e *Engine) {
		e.Start()
		e.Advance(4)
	})

	snap := runner.Snapshot()
	if snap.Phase != PhaseShortBreak {
		t.Fatalf("expected short break, got %s", snap.Phase)
	}
	if snap.CompletedFocusSessions != 1 {
		t.Fatalf("expected 1 completed session, got %d", snap.CompletedFocusSessions)
	}
}
