package tree

import (
	"encoding/json"
	"fmt"
	"time"
)

// document is the persisted form: every task in pre-order, each naming its
// parent. Pre-order guarantees a parent is decoded before its children and
// keeps sibling order.
type document struct {
	Tasks []Task `json:"tasks"`
}

// MarshalJSON implements json.Marshaler.
func (t *Tree) MarshalJSON() ([]byte, error) {
	tasks := t.Flatten(false, false)
	if tasks == nil {
		tasks = []Task{}
	}
	return json.Marshal(document{Tasks: tasks})
}

// UnmarshalJSON replaces the forest with the decoded one. The clock is kept
// and the result is clean.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode task tree: %w", err)
	}

	fresh := New()
	if t.timeFunc != nil {
		fresh.timeFunc = t.timeFunc
	}
	for _, task := range doc.Tasks {
		if err := fresh.AddChild(task, task.ParentID); err != nil {
			return fmt.Errorf("decode task tree: %w", err)
		}
	}
	if err := fresh.Validate(); err != nil {
		return fmt.Errorf("decode task tree: %w", err)
	}

	t.nodes = fresh.nodes
	t.roots = fresh.roots
	t.timeFunc = fresh.timeFunc
	t.dirty = false
	return nil
}

// Decode builds a tree from its persisted form using the given clock.
func Decode(data []byte, now func() time.Time) (*Tree, error) {
	t := New()
	if now != nil {
		t.timeFunc = now
	}
	if len(data) == 0 {
		return t, nil
	}
	if err := t.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return t, nil
}
