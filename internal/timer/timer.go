package timer

import (
	"sync"
	"time"
)

// Kind selects the counting direction.
type Kind string

const (
	Countdown Kind = "countdown"
	CountUp   Kind = "countup"
)

// Status is the lifecycle state of a Timer.
type Status string

const (
	StatusStopped Status = "stopped"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

// Callbacks are invoked as the timer advances. They run on the timer's tick
// goroutine (or the caller's goroutine for the synchronous first tick) with
// the timer lock released, so they may call back into the Timer. Callbacks
// that mutate external state should revalidate it: a tick that has already
// passed the cancellation check when Stop is called may still deliver.
type Callbacks struct {
	OnTick     func(displayTime string, remainingSeconds int)
	OnComplete func()
	OnPause    func()
	OnResume   func()
}

// State is a point-in-time snapshot of a Timer.
type State struct {
	Kind             Kind   `json:"kind"`
	TotalSeconds     int    `json:"totalSeconds"`
	RemainingSeconds int    `json:"remainingSeconds"`
	Status           Status `json:"status"`
}

// Option configures a Timer.
type Option func(*Timer)

// WithInterval overrides the 1-second tick interval. Tests use short
// intervals; the semantic unit stays "one second per tick".
func WithInterval(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// Timer drives a single countdown or count-up clock at one tick per
// interval. A generation counter invalidates pending ticks: Pause, Stop,
// Reset, and Configure bump the generation, and a scheduled tick whose
// generation no longer matches returns without effect. Only one tick is
// pending at any moment, so Start while running is a no-op.
type Timer struct {
	mu        sync.Mutex
	kind      Kind
	total     int
	remaining int
	status    Status
	gen       uint64
	interval  time.Duration
	pending   *time.Timer
	cb        Callbacks
}

// New creates a stopped timer with a zero-length countdown configured.
func New(opts ...Option) *Timer {
	t := &Timer{
		kind:     Countdown,
		status:   StatusStopped,
		interval: time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetCallbacks replaces the callback set. Nil members are simply not invoked.
func (t *Timer) SetCallbacks(cb Callbacks) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cb = cb
}

// Configure resets the timer to Stopped with the given budget: remaining
// starts at totalSeconds for Countdown and at 0 for CountUp.
//
// Calling Configure while the timer is Running or Paused is a documented
// no-op (the caller must Stop first), mirroring the rule that a live tick
// loop is never reconfigured underneath itself.
func (t *Timer) Configure(totalSeconds int, kind Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusStopped {
		return
	}
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	t.gen++
	t.cancelLocked()
	t.kind = kind
	t.total = totalSeconds
	t.remaining = t.startValueLocked()
}

// Start begins the tick loop. No-op unless Stopped (a paused timer is
// resumed with Resume, not Start). OnTick fires once synchronously before
// the first interval elapses, reflecting the current remaining seconds.
func (t *Timer) Start() {
	t.mu.Lock()
	if t.status != StatusStopped {
		t.mu.Unlock()
		return
	}
	t.status = StatusRunning
	t.scheduleLocked()
	onTick := t.cb.OnTick
	display, remaining := FormatSeconds(t.remaining), t.remaining
	t.mu.Unlock()

	if onTick != nil {
		onTick(display, remaining)
	}
}

// Pause halts ticking without losing the current remaining count.
// No-op unless Running.
func (t *Timer) Pause() {
	t.mu.Lock()
	if t.status != StatusRunning {
		t.mu.Unlock()
		return
	}
	t.gen++
	t.cancelLocked()
	t.status = StatusPaused
	onPause := t.cb.OnPause
	t.mu.Unlock()

	if onPause != nil {
		onPause()
	}
}

// Resume restarts the tick loop from the exact remaining count at pause
// time. No-op unless Paused.
func (t *Timer) Resume() {
	t.mu.Lock()
	if t.status != StatusPaused {
		t.mu.Unlock()
		return
	}
	t.status = StatusRunning
	t.scheduleLocked()
	onResume := t.cb.OnResume
	t.mu.Unlock()

	if onResume != nil {
		onResume()
	}
}

// Stop halts the tick loop unconditionally and invalidates any pending
// tick. The remaining count is preserved.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.cancelLocked()
	t.status = StatusStopped
}

// Reset stops the timer and restores remaining to its starting value.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.cancelLocked()
	t.status = StatusStopped
	t.remaining = t.startValueLocked()
}

// Snapshot returns the current timer state.
func (t *Timer) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{
		Kind:             t.kind,
		TotalSeconds:     t.total,
		RemainingSeconds: t.remaining,
		Status:           t.status,
	}
}

// Remaining returns the current remaining seconds.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Status returns the current lifecycle status.
func (t *Timer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// DisplayTime formats the remaining seconds as MM:SS, or HH:MM:SS at an
// hour or more.
func (t *Timer) DisplayTime() string {
	return FormatSeconds(t.Remaining())
}

// Progress returns the percentage complete, 0-100. Returns 0 for a
// zero-length budget.
func (t *Timer) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.total == 0 {
		return 0
	}
	if t.kind == Countdown {
		return float64(t.total-t.remaining) / float64(t.total) * 100
	}
	return float64(t.remaining) / float64(t.total) * 100
}

// startValueLocked returns the remaining count a fresh run begins from.
func (t *Timer) startValueLocked() int {
	if t.kind == Countdown {
		return t.total
	}
	return 0
}

// cancelLocked discards the pending tick, if any.
func (t *Timer) cancelLocked() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

// scheduleLocked arms the next tick under the current generation.
func (t *Timer) scheduleLocked() {
	gen := t.gen
	t.pending = time.AfterFunc(t.interval, func() {
		t.tick(gen)
	})
}

// tick advances the clock by one second. A stale generation means the tick
// was cancelled after scheduling; it returns without effect.
func (t *Timer) tick(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.status != StatusRunning {
		t.mu.Unlock()
		return
	}

	if t.kind == Countdown {
		t.remaining--
	} else {
		t.remaining++
	}

	if t.reachedBoundLocked() {
		// Clamp so the stored count is never negative or over-shot.
		if t.kind == Countdown {
			t.remaining = 0
		} else {
			t.remaining = t.total
		}
		t.gen++
		t.pending = nil
		t.status = StatusStopped
		onComplete := t.cb.OnComplete
		t.mu.Unlock()

		if onComplete != nil {
			onComplete()
		}
		return
	}

	t.scheduleLocked()
	onTick := t.cb.OnTick
	display, remaining := FormatSeconds(t.remaining), t.remaining
	t.mu.Unlock()

	if onTick != nil {
		onTick(display, remaining)
	}
}

// reachedBoundLocked reports whether the terminal bound has been reached.
func (t *Timer) reachedBoundLocked() bool {
	if t.kind == Countdown {
		return t.remaining <= 0
	}
	return t.remaining >= t.total
}
