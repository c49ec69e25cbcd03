package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is the progress state of a task.
type Status int

const (
	NotStarted Status = iota
	WIP
	CurrentMission
	Waiting
	Done
)

// Statuses lists every status in declaration order.
var Statuses = []Status{NotStarted, WIP, CurrentMission, Waiting, Done}

// String returns the upper-snake name used in files and filters.
func (s Status) String() string {
	switch s {
	case NotStarted:
		return "NOT_STARTED"
	case WIP:
		return "WIP"
	case CurrentMission:
		return "CURRENT_MISSION"
	case Waiting:
		return "WAITING"
	case Done:
		return "DONE"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	switch s {
	case NotStarted, WIP, CurrentMission, Waiting, Done:
		return true
	}
	return false
}

// ParseStatus accepts the upper-snake name in any case, with dashes or
// underscores.
func ParseStatus(name string) (Status, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	for _, s := range Statuses {
		if s.String() == norm {
			return s, nil
		}
	}
	return NotStarted, fmt.Errorf("unknown status %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Importance ranks a task from 1 (lowest) to 10; 0 means undecided.
type Importance uint8

const (
	Undecided     Importance = 0
	MaxImportance Importance = 10
)

// Valid reports whether i is within 0..10.
func (i Importance) Valid() bool {
	return i <= MaxImportance
}

func (i Importance) String() string {
	if i == Undecided {
		return "UNDECIDED"
	}
	return strconv.Itoa(int(i))
}

// ParseImportance accepts a number in 0..10 or "undecided".
func ParseImportance(s string) (Importance, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "undecided") {
		return Undecided, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Undecided, fmt.Errorf("invalid importance %q: %w", s, err)
	}
	if n < 0 || n > int(MaxImportance) {
		return Undecided, fmt.Errorf("importance %d out of range 0..%d", n, MaxImportance)
	}
	return Importance(n), nil
}
