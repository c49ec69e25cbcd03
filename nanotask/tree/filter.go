package tree

import (
	"fmt"
	"regexp"
	"strings"
)

// FilterKind selects the task field a Filter inspects.
type FilterKind int

const (
	FilterName FilterKind = iota
	FilterExtraInfo
	FilterStatus
	FilterImportance
)

func (k FilterKind) String() string {
	switch k {
	case FilterName:
		return "NAME"
	case FilterExtraInfo:
		return "EXTRA_INFO"
	case FilterStatus:
		return "STATUS"
	case FilterImportance:
		return "IMPORTANCE"
	}
	return fmt.Sprintf("FilterKind(%d)", int(k))
}

// Filter is a predicate over tasks. Text kinds match a regular expression
// anchored at the start of the field; status and importance compare for
// equality.
type Filter struct {
	Kind       FilterKind
	Pattern    string
	Status     Status
	Importance Importance

	re *regexp.Regexp
}

// NewNameFilter matches tasks whose name starts with a match of pattern.
func NewNameFilter(pattern string) (*Filter, error) {
	return newTextFilter(FilterName, pattern)
}

// NewExtraInfoFilter matches tasks whose note starts with a match of pattern.
func NewExtraInfoFilter(pattern string) (*Filter, error) {
	return newTextFilter(FilterExtraInfo, pattern)
}

func newTextFilter(kind FilterKind, pattern string) (*Filter, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("invalid %s filter %q: %w", kind, pattern, err)
	}
	return &Filter{Kind: kind, Pattern: pattern, re: re}, nil
}

// NewStatusFilter matches tasks with exactly this status.
func NewStatusFilter(s Status) (*Filter, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status filter: %w", ErrInvalidValue)
	}
	return &Filter{Kind: FilterStatus, Status: s}, nil
}

// NewImportanceFilter matches tasks with exactly this importance.
func NewImportanceFilter(i Importance) (*Filter, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("invalid importance filter: %w", ErrInvalidValue)
	}
	return &Filter{Kind: FilterImportance, Importance: i}, nil
}

// ParseFilter reads "name=<re>", "info=<re>", "status=<STATUS>" or
// "importance=<n>".
func ParseFilter(expr string) (*Filter, error) {
	key, value, ok := strings.Cut(expr, "=")
	if !ok {
		return nil, fmt.Errorf("invalid filter %q: expected field=value", expr)
	}

	switch strings.ToLower(strings.TrimSpace(key)) {
	case "name":
		return NewNameFilter(value)
	case "info", "extra_info", "note":
		return NewExtraInfoFilter(value)
	case "status":
		s, err := ParseStatus(value)
		if err != nil {
			return nil, err
		}
		return NewStatusFilter(s)
	case "importance":
		i, err := ParseImportance(value)
		if err != nil {
			return nil, err
		}
		return NewImportanceFilter(i)
	}
	return nil, fmt.Errorf("invalid filter %q: unknown field %q", expr, key)
}

// Matches reports whether task satisfies the filter.
func (f *Filter) Matches(task Task) bool {
	switch f.Kind {
	case FilterName:
		return f.matchText(task.Name)
	case FilterExtraInfo:
		return f.matchText(task.ExtraInfo)
	case FilterStatus:
		return task.Status == f.Status
	case FilterImportance:
		return task.Importance == f.Importance
	}
	return false
}

func (f *Filter) matchText(field string) bool {
	if f.re == nil {
		re, err := regexp.Compile(`^(?:` + f.Pattern + `)`)
		if err != nil {
			return false
		}
		f.re = re
	}
	return f.re.MatchString(field)
}

func (f *Filter) String() string {
	switch f.Kind {
	case FilterName, FilterExtraInfo:
		return fmt.Sprintf("%s regex '%s'", f.Kind, f.Pattern)
	case FilterStatus:
		return fmt.Sprintf("%s == %s", f.Kind, f.Status)
	case FilterImportance:
		return fmt.Sprintf("%s == %s", f.Kind, f.Importance)
	}
	return f.Kind.String()
}
