package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

const testInterval = 10 * time.Millisecond

// waitSignal waits for one signal on ch or fails the test.
func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestCountdown_CompletesOnce(t *testing.T) {
	tm := New(WithInterval(testInterval))
	tm.Configure(5, Countdown)

	var completions atomic.Int32
	var minSeen atomic.Int32
	minSeen.Store(1000)
	done := make(chan struct{}, 1)

	tm.SetCallbacks(Callbacks{
		OnTick: func(_ string, remaining int) {
			if int32(remaining) < minSeen.Load() {
				minSeen.Store(int32(remaining))
			}
			if remaining < 0 {
				t.Errorf("remaining went negative: %d", remaining)
			}
		},
		OnComplete: func() {
			completions.Add(1)
			done <- struct{}{}
		},
	})

	tm.Start()
	waitSignal(t, done, "completion")

	// Allow any stray tick to surface before asserting exactly-once.
	time.Sleep(5 * testInterval)

	if got := completions.Load(); got != 1 {
		t.Errorf("completions = %d, want 1", got)
	}
	if got := tm.Remaining(); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if got := tm.DisplayTime(); got != "00:00" {
		t.Errorf("DisplayTime = %q, want %q", got, "00:00")
	}
	if got := tm.Status(); got != StatusStopped {
		t.Errorf("Status = %q, want %q", got, StatusStopped)
	}
}

func TestCountUp_CompletesAtTotal(t *testing.T) {
	tm := New(WithInterval(testInterval))
	tm.Configure(3, CountUp)

	if got := tm.Remaining(); got != 0 {
		t.Fatalf("count-up should start at 0, got %d", got)
	}

	var completions atomic.Int32
	var last atomic.Int32
	done := make(chan struct{}, 1)

	tm.SetCallbacks(Callbacks{
		OnTick: func(_ string, remaining int) {
			prev := last.Load()
			if int32(remaining) < prev {
				t.Errorf("count-up decreased: %d after %d", remaining, prev)
			}
			last.Store(int32(remaining))
			if remaining > 3 {
				t.Errorf("count-up overshot total: %d", remaining)
			}
		},
		OnComplete: func() {
			completions.Add(1)
			done <- struct{}{}
		},
	})

	tm.Start()
	waitSignal(t, done, "completion")
	time.Sleep(5 * testInterval)

	if got := completions.Load(); got != 1 {
		t.Errorf("completions = %d, want 1", got)
	}
	if got := tm.Remaining(); got != 3 {
		t.Errorf("Remaining = %d, want clamped total 3", got)
	}
}

func TestStart_FiresSynchronousFirstTick(t *testing.T) {
	tm := New(WithInterval(time.Hour)) // interval never elapses in this test
	tm.Configure(90, Countdown)

	var gotDisplay string
	gotRemaining := -1
	tm.SetCallbacks(Callbacks{
		OnTick: func(display string, remaining int) {
			gotDisplay = display
			gotRemaining = remaining
		},
	})

	tm.Start()

	if gotRemaining != 90 {
		t.Errorf("synchronous tick remaining = %d, want 90", gotRemaining)
	}
	if gotDisplay != "01:30" {
		t.Errorf("synchronous tick display = %q, want %q", gotDisplay, "01:30")
	}
}

func TestStart_Idempotent(t *testing.T) {
	tm := New(WithInterval(time.Hour))
	tm.Configure(60, Countdown)

	var ticks atomic.Int32
	tm.SetCallbacks(Callbacks{
		OnTick: func(string, int) { ticks.Add(1) },
	})

	tm.Start()
	tm.Start()

	// Only the first Start fires the synchronous tick; the second is a no-op.
	if got := ticks.Load(); got != 1 {
		t.Errorf("ticks after double Start = %d, want 1", got)
	}
	if got := tm.Status(); got != StatusRunning {
		t.Errorf("Status = %q, want %q", got, StatusRunning)
	}
}

func TestPauseResume_PreservesRemaining(t *testing.T) {
	tm := New(WithInterval(testInterval))
	tm.Configure(1000, Countdown)

	ticked := make(chan int, 64)
	paused := make(chan struct{}, 1)
	resumed := make(chan struct{}, 1)
	tm.SetCallbacks(Callbacks{
		OnTick:   func(_ string, remaining int) { ticked <- remaining },
		OnPause:  func() { paused <- struct{}{} },
		OnResume: func() { resumed <- struct{}{} },
	})

	tm.Start()
	<-ticked // synchronous tick
	waitSignal(t, drainToSignal(ticked), "first interval tick")

	tm.Pause()
	waitSignal(t, paused, "pause callback")
	if got := tm.Status(); got != StatusPaused {
		t.Fatalf("Status = %q, want %q", got, StatusPaused)
	}

	atPause := tm.Remaining()

	// No drift while paused.
	time.Sleep(10 * testInterval)
	if got := tm.Remaining(); got != atPause {
		t.Errorf("Remaining drifted while paused: %d, want %d", got, atPause)
	}

	// Drain ticks delivered before the pause landed.
	for len(ticked) > 0 {
		<-ticked
	}

	tm.Resume()
	waitSignal(t, resumed, "resume callback")

	select {
	case remaining := <-ticked:
		if remaining != atPause-1 {
			t.Errorf("first tick after resume = %d, want %d", remaining, atPause-1)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for post-resume tick")
	}
}

func TestPause_NoOpUnlessRunning(t *testing.T) {
	tm := New(WithInterval(time.Hour))
	tm.Configure(60, Countdown)

	var pauses atomic.Int32
	tm.SetCallbacks(Callbacks{OnPause: func() { pauses.Add(1) }})

	tm.Pause() // stopped: no-op
	if got := tm.Status(); got != StatusStopped {
		t.Errorf("Status = %q, want %q", got, StatusStopped)
	}

	tm.Start()
	tm.Pause()
	tm.Pause() // already paused: no-op

	if got := pauses.Load(); got != 1 {
		t.Errorf("pause callbacks = %d, want 1", got)
	}
}

func TestResume_NoOpUnlessPaused(t *testing.T) {
	tm := New(WithInterval(time.Hour))
	tm.Configure(60, Countdown)

	var resumes atomic.Int32
	tm.SetCallbacks(Callbacks{OnResume: func() { resumes.Add(1) }})

	tm.Resume() // stopped: no-op
	tm.Start()
	tm.Resume() // running, not paused: no-op

	if got := resumes.Load(); got != 0 {
		t.Errorf("resume callbacks = %d, want 0", got)
	}
}

func TestStop_CancelsPendingTick(t *testing.T) {
	tm := New(WithInterval(testInterval))
	tm.Configure(1000, Countdown)

	ticked := make(chan int, 64)
	tm.SetCallbacks(Callbacks{
		OnTick:     func(_ string, remaining int) { ticked <- remaining },
		OnComplete: func() { t.Error("completion after stop") },
	})

	tm.Start()
	<-ticked
	waitSignal(t, drainToSignal(ticked), "first interval tick")

	tm.Stop()
	atStop := tm.Remaining()

	// Drain anything delivered before Stop landed, then verify silence.
	time.Sleep(2 * testInterval)
	for len(ticked) > 0 {
		<-ticked
	}
	time.Sleep(10 * testInterval)

	if len(ticked) != 0 {
		t.Errorf("received %d ticks after stop settled", len(ticked))
	}
	if got := tm.Remaining(); got != atStop {
		t.Errorf("Remaining changed after stop: %d, want %d", got, atStop)
	}
	if got := tm.Status(); got != StatusStopped {
		t.Errorf("Status = %q, want %q", got, StatusStopped)
	}
}

func TestReset_RestoresStartValue(t *testing.T) {
	tm := New(WithInterval(testInterval))
	tm.Configure(500, Countdown)

	ticked := make(chan int, 64)
	tm.SetCallbacks(Callbacks{
		OnTick: func(_ string, remaining int) { ticked <- remaining },
	})

	tm.Start()
	<-ticked
	waitSignal(t, drainToSignal(ticked), "first interval tick")

	tm.Reset()
	if got := tm.Remaining(); got != 500 {
		t.Errorf("Remaining after reset = %d, want 500", got)
	}
	if got := tm.Status(); got != StatusStopped {
		t.Errorf("Status = %q, want %q", got, StatusStopped)
	}

	tm.Configure(4, CountUp)
	tm.Reset()
	if got := tm.Remaining(); got != 0 {
		t.Errorf("count-up Remaining after reset = %d, want 0", got)
	}
}

func TestConfigure_NoOpWhileActive(t *testing.T) {
	tm := New(WithInterval(time.Hour))
	tm.Configure(60, Countdown)
	tm.Start()

	tm.Configure(30, CountUp) // running: no-op
	s := tm.Snapshot()
	if s.TotalSeconds != 60 || s.Kind != Countdown {
		t.Errorf("Configure applied while running: %+v", s)
	}

	tm.Pause()
	tm.Configure(30, CountUp) // paused: still no-op
	s = tm.Snapshot()
	if s.TotalSeconds != 60 {
		t.Errorf("Configure applied while paused: %+v", s)
	}

	tm.Stop()
	tm.Configure(30, CountUp)
	s = tm.Snapshot()
	if s.TotalSeconds != 30 || s.Kind != CountUp || s.RemainingSeconds != 0 {
		t.Errorf("Configure after stop = %+v", s)
	}
}

func TestProgress(t *testing.T) {
	tm := New()
	tm.Configure(0, Countdown)
	if got := tm.Progress(); got != 0 {
		t.Errorf("Progress with zero total = %v, want 0", got)
	}

	tm.Configure(100, Countdown)
	tm.mu.Lock()
	tm.remaining = 25
	tm.mu.Unlock()
	if got := tm.Progress(); got != 75 {
		t.Errorf("countdown Progress = %v, want 75", got)
	}

	tm.Configure(100, CountUp)
	tm.mu.Lock()
	tm.remaining = 40
	tm.mu.Unlock()
	if got := tm.Progress(); got != 40 {
		t.Errorf("count-up Progress = %v, want 40", got)
	}
}

// drainToSignal converts the next receive on ch into a signal channel so
// waitSignal can apply a timeout to it.
func drainToSignal(ch <-chan int) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		<-ch
		out <- struct{}{}
	}()
	return out
}
