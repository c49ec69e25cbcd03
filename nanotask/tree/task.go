package tree

import (
	"time"

	"github.com/arthur-debert/nanotask/nanotask/timer"
)

// Task is one node of the forest. Values returned by Tree are snapshots; edits
// go through the Tree mutators so the dirty flag and invariants stay right.
type Task struct {
	ID         int         `json:"id"`
	ParentID   int         `json:"parent_id"`
	Name       string      `json:"name"`
	Status     Status      `json:"status"`
	Importance Importance  `json:"importance"`
	Private    bool        `json:"private,omitempty"`
	Collapsed  bool        `json:"collapsed,omitempty"`
	ExtraInfo  string      `json:"extra_info,omitempty"`
	Deadline   *time.Time  `json:"deadline,omitempty"`
	ArchivedAt *time.Time  `json:"archived_at,omitempty"`
	Timer      timer.Timer `json:"timer"`
}

// IsArchived reports whether the task carries an archive date.
func (t Task) IsArchived() bool {
	return t.ArchivedAt != nil
}

// HasDeadline reports whether a deadline is set.
func (t Task) HasDeadline() bool {
	return t.Deadline != nil
}

func (t Task) clone() Task {
	c := t
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	if t.ArchivedAt != nil {
		a := *t.ArchivedAt
		c.ArchivedAt = &a
	}
	c.Timer = t.Timer.Clone()
	return c
}

// NodeRef addresses either the root sentinel or a real task. The zero value is
// the root.
type NodeRef struct {
	id int
}

// Root is the sentinel whose children are the top-level tasks.
var Root = NodeRef{}

// Node refers to the task with the given id.
func Node(id int) NodeRef {
	return NodeRef{id: id}
}

// IsRoot reports whether r is the root sentinel.
func (r NodeRef) IsRoot() bool {
	return r.id == 0
}

// ID returns the task id, 0 for the root.
func (r NodeRef) ID() int {
	return r.id
}
