package tree

import (
	"fmt"
	"time"
)

// update applies fn to the live task and marks the tree dirty on success.
func (t *Tree) update(op string, id int, fn func(*Task) error) error {
	if id == 0 {
		return fmt.Errorf("%s: %w", op, ErrRootTask)
	}
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%s %d: %w", op, id, ErrNotFound)
	}
	if err := fn(&n.task); err != nil {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}
	t.dirty = true
	return nil
}

// Rename changes a task's name.
func (t *Tree) Rename(id int, name string) error {
	return t.update("rename", id, func(task *Task) error {
		task.Name = name
		return nil
	})
}

// SetStatus changes a task's status.
func (t *Tree) SetStatus(id int, status Status) error {
	return t.update("set status", id, func(task *Task) error {
		if !status.Valid() {
			return fmt.Errorf("%w: status %d", ErrInvalidValue, int(status))
		}
		task.Status = status
		return nil
	})
}

// SetImportance changes a task's importance.
func (t *Tree) SetImportance(id int, importance Importance) error {
	return t.update("set importance", id, func(task *Task) error {
		if !importance.Valid() {
			return fmt.Errorf("%w: importance %d", ErrInvalidValue, importance)
		}
		task.Importance = importance
		return nil
	})
}

// ToggleCollapse flips whether the task's subtree is hidden in the default view.
func (t *Tree) ToggleCollapse(id int) error {
	return t.update("toggle collapse", id, func(task *Task) error {
		task.Collapsed = !task.Collapsed
		return nil
	})
}

// TogglePrivacy flips whether the task's name is masked in listings.
func (t *Tree) TogglePrivacy(id int) error {
	return t.update("toggle privacy", id, func(task *Task) error {
		task.Private = !task.Private
		return nil
	})
}

// SetExtraInfo replaces the free-text note.
func (t *Tree) SetExtraInfo(id int, info string) error {
	return t.update("set note", id, func(task *Task) error {
		task.ExtraInfo = info
		return nil
	})
}

// SetDeadline sets the deadline date, or clears it when deadline is nil.
func (t *Tree) SetDeadline(id int, deadline *time.Time) error {
	return t.update("set deadline", id, func(task *Task) error {
		if deadline == nil {
			task.Deadline = nil
			return nil
		}
		y, m, d := deadline.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, deadline.Location())
		task.Deadline = &day
		return nil
	})
}

// ToggleTimer starts or pauses the task's timer.
func (t *Tree) ToggleTimer(id int) error {
	now := t.timeFunc()
	return t.update("toggle timer", id, func(task *Task) error {
		task.Timer.Toggle(now)
		return nil
	})
}

// PauseTimer pauses the task's timer if it is running.
func (t *Tree) PauseTimer(id int) error {
	now := t.timeFunc()
	return t.update("pause timer", id, func(task *Task) error {
		task.Timer.Pause(now)
		return nil
	})
}

// ResetTimer drops every stamp of the task's timer.
func (t *Tree) ResetTimer(id int) error {
	return t.update("reset timer", id, func(task *Task) error {
		task.Timer.Reset()
		return nil
	})
}

// HasActiveTimer reports whether any task's timer is running.
func (t *Tree) HasActiveTimer() bool {
	for _, n := range t.nodes {
		if n.task.Timer.IsRunning() {
			return true
		}
	}
	return false
}

// Visible is the journal view. Without a filter it hides collapsed subtrees
// and archived tasks; with one it expands collapsed subtrees and keeps only
// the matching, non-archived tasks.
func (t *Tree) Visible(filter *Filter) []Task {
	if filter == nil {
		return t.Flatten(true, true)
	}
	return filterTasks(t.Flatten(false, true), filter)
}

// ArchivedView lists every archived task in tree order, optionally filtered.
func (t *Tree) ArchivedView(filter *Filter) []Task {
	var archived []Task
	for _, task := range t.Flatten(false, false) {
		if task.IsArchived() {
			archived = append(archived, task)
		}
	}
	if filter == nil {
		return archived
	}
	return filterTasks(archived, filter)
}

func filterTasks(tasks []Task, filter *Filter) []Task {
	var out []Task
	for _, task := range tasks {
		if filter.Matches(task) {
			out = append(out, task)
		}
	}
	return out
}
