package tree

import "errors"

// Precondition failures. Operations wrap these with the ids involved and leave
// the tree untouched when they return one.
var (
	ErrNotFound       = errors.New("task not found")
	ErrRootTask       = errors.New("operation not allowed on the root task")
	ErrSelfTarget     = errors.New("source and destination are the same task")
	ErrCycle          = errors.New("operation would make a task its own ancestor")
	ErrDegenerateMove = errors.New("task is already a direct child of the destination")
	ErrDuplicateID    = errors.New("task id already in use")
	ErrInvalidID      = errors.New("task id must be positive")
	ErrInvalidValue   = errors.New("invalid task attribute")
)
