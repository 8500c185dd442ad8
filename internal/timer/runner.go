package timer

import (
	"sync"
	"time"
)

// Runner owns one engine and drives it with a one-second ticker while the
// engine is running. All access goes through the runner's lock, so the
// engine state has a single owner even though ticks arrive from a
// background goroutine.
type Runner struct {
	mu     sync.Mutex
	engine *Engine
	stop   chan struct{}
	closed bool
}

func NewRunner(engine *Engine) *Runner {
	return &Runner{engine: engine}
}

// Do runs fn against the engine under the runner's lock, then starts or
// cancels the ticker to match the engine's status. fn must not call back
// into the runner.
func (r *Runner) Do(fn func(*Engine)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.engine)
	r.syncTicker()
}

func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Snapshot()
}

// Close cancels the pending tick. The engine itself stays intact.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.stopTicker()
}

func (r *Runner) syncTicker() {
	if r.closed {
		r.stopTicker()
		return
	}
	running := r.engine.status == StatusRunning
	switch {
	case running && r.stop == nil:
		r.stop = make(chan struct{})
		go r.loop(r.stop)
	case !running && r.stop != nil:
		r.stopTicker()
	}
}

func (r *Runner) stopTicker() {
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}

func (r *Runner) loop(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.stop != stop {
				r.mu.Unlock()
				return
			}
			r.engine.Tick()
			r.syncTicker()
			r.mu.Unlock()
		}
	}
}
