package timer

import (
	"testing"
	"time"
)

func TestTimerState(t *testing.T) {
	now := time.Unix(1000, 0)

	t.Run("empty timer is not started", func(t *testing.T) {
		tm := New()
		if tm.IsStarted() {
			t.Error("expected timer not to be started")
		}
		if tm.IsRunning() {
			t.Error("expected timer not to be running")
		}
		if got := tm.Elapsed(now); got != 0 {
			t.Errorf("expected zero elapsed, got %v", got)
		}
	})

	t.Run("single stamp is running", func(t *testing.T) {
		tm := New(100)
		if !tm.IsRunning() {
			t.Error("expected timer to be running")
		}
		if got, want := tm.Elapsed(now), 900*time.Second; got != want {
			t.Errorf("expected %v elapsed, got %v", want, got)
		}
	})

	t.Run("closed pair is paused", func(t *testing.T) {
		tm := New(100, 160)
		if tm.IsRunning() {
			t.Error("expected timer to be paused")
		}
		if !tm.IsStarted() {
			t.Error("expected timer to be started")
		}
		if got, want := tm.Elapsed(now), 60*time.Second; got != want {
			t.Errorf("expected %v elapsed, got %v", want, got)
		}
	})

	t.Run("pairs plus running interval", func(t *testing.T) {
		tm := New(100, 160, 900)
		if got, want := tm.Elapsed(now), 160*time.Second; got != want {
			t.Errorf("expected %v elapsed, got %v", want, got)
		}
	})
}

func TestTimerMutations(t *testing.T) {
	var tm Timer
	tm.Toggle(time.Unix(10, 0))
	if !tm.IsRunning() {
		t.Fatal("expected toggle to start the timer")
	}

	tm.Pause(time.Unix(25, 0))
	if tm.IsRunning() {
		t.Fatal("expected pause to stop the timer")
	}

	// Pausing an already paused timer must not restart it.
	tm.Pause(time.Unix(30, 0))
	if len(tm.Stamps) != 2 {
		t.Fatalf("expected 2 stamps, got %v", tm.Stamps)
	}

	clone := tm.Clone()
	tm.Reset()
	if tm.IsStarted() {
		t.Error("expected reset timer not to be started")
	}
	if len(clone.Stamps) != 2 {
		t.Error("clone must not share stamps with the original")
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{75 * time.Second, "01:15"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
		{25 * time.Hour, "1 day 01:00:00"},
		{50*time.Hour + 30*time.Second, "2 days 02:00:30"},
		{-time.Second, "00:00"},
	}

	for _, tt := range tests {
		if got := FormatElapsed(tt.in); got != tt.want {
			t.Errorf("FormatElapsed(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
