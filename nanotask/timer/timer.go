// Package timer tracks start/pause toggles for a task and derives the time it
// has been running.
//
// A Timer is nothing but an ordered list of UNIX timestamps. Even positions are
// starts, odd positions are pauses, so the timer is running exactly when the
// list has an odd length. No other state is kept.
package timer

import (
	"fmt"
	"time"
)

// Timer holds the toggle timestamps of one task.
type Timer struct {
	Stamps []int64 `json:"stamps,omitempty" yaml:"stamps,omitempty"`
}

// New returns a timer seeded with the given stamps.
func New(stamps ...int64) Timer {
	if len(stamps) == 0 {
		return Timer{}
	}
	cp := make([]int64, len(stamps))
	copy(cp, stamps)
	return Timer{Stamps: cp}
}

// IsRunning reports whether the timer is currently counting.
func (t Timer) IsRunning() bool {
	return len(t.Stamps)%2 == 1
}

// IsStarted reports whether the timer was ever started.
func (t Timer) IsStarted() bool {
	return len(t.Stamps) > 0
}

// Elapsed returns the total running time up to now.
func (t Timer) Elapsed(now time.Time) time.Duration {
	var secs int64
	for i := 1; i < len(t.Stamps); i += 2 {
		secs += t.Stamps[i] - t.Stamps[i-1]
	}

	elapsed := time.Duration(secs) * time.Second
	if t.IsRunning() {
		last := time.Unix(t.Stamps[len(t.Stamps)-1], 0)
		elapsed += now.Sub(last)
	}
	return elapsed
}

// Toggle starts a paused timer or pauses a running one.
func (t *Timer) Toggle(now time.Time) {
	t.Stamps = append(t.Stamps, now.Unix())
}

// Pause stops the timer if it is running and does nothing otherwise.
func (t *Timer) Pause(now time.Time) {
	if t.IsRunning() {
		t.Toggle(now)
	}
}

// Reset clears every stamp.
func (t *Timer) Reset() {
	t.Stamps = nil
}

// Clone returns a deep copy.
func (t Timer) Clone() Timer {
	return New(t.Stamps...)
}

// FormatElapsed renders a duration as MM:SS below one hour, HH:MM:SS below one
// day, and with a day prefix past that.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	rest := total % 86400
	h, m, s := rest/3600, (rest%3600)/60, rest%60

	var clock string
	if total < 3600 {
		clock = fmt.Sprintf("%02d:%02d", m, s)
	} else {
		clock = fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}

	switch {
	case days == 1:
		return "1 day " + clock
	case days > 1:
		return fmt.Sprintf("%d days %s", days, clock)
	}
	return clock
}
