// Package workspace manages the registry of task stores a user can switch
// between. The registry is itself a lease-guarded store whose payload is the
// ordered list of workspaces.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SlotName is the shelf key holding the workspace list.
const SlotName = "workspaces"

var (
	// ErrDuplicate is returned when adding a workspace already registered.
	ErrDuplicate = errors.New("workspace already registered")

	// ErrNotFound is returned for unknown workspaces or out-of-range indexes.
	ErrNotFound = errors.New("workspace not found")
)

// Workspace names one independently lockable task store.
type Workspace struct {
	StorePath string `json:"store_path"`
	LockPath  string `json:"lock_path"`
}

// New returns the workspace for a store path, with the lease next to it.
func New(storePath string) Workspace {
	return Workspace{StorePath: storePath, LockPath: storePath + ".lock"}
}

// Equal compares both paths.
func (w Workspace) Equal(other Workspace) bool {
	return w.StorePath == other.StorePath && w.LockPath == other.LockPath
}

func (w Workspace) String() string { return w.StorePath }

// List is the ordered workspace list persisted by the registry.
type List struct {
	items []Workspace
	dirty bool
}

// DecodeList builds a list from its stored form; nil data yields an empty
// list.
func DecodeList(data []byte) (*List, error) {
	l := &List{}
	if len(data) == 0 {
		return l, nil
	}
	if err := l.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return l, nil
}

// Slot implements the store payload contract.
func (l *List) Slot() string { return SlotName }

// Dirty reports unsaved changes.
func (l *List) Dirty() bool { return l.dirty }

// ClearDirty is called by the store after a successful flush.
func (l *List) ClearDirty() { l.dirty = false }

type listDocument struct {
	Workspaces []Workspace `json:"workspaces"`
}

// MarshalJSON implements json.Marshaler.
func (l *List) MarshalJSON() ([]byte, error) {
	items := l.items
	if items == nil {
		items = []Workspace{}
	}
	return json.Marshal(listDocument{Workspaces: items})
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *List) UnmarshalJSON(data []byte) error {
	var doc listDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode workspaces: %w", err)
	}
	l.items = doc.Workspaces
	l.dirty = false
	return nil
}

// Items returns a copy of the workspaces in order.
func (l *List) Items() []Workspace {
	out := make([]Workspace, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of workspaces.
func (l *List) Len() int { return len(l.items) }

// Index returns the position of ws, or -1.
func (l *List) Index(ws Workspace) int {
	for i, item := range l.items {
		if item.Equal(ws) {
			return i
		}
	}
	return -1
}

// Get returns the workspace at a zero-based index.
func (l *List) Get(index int) (Workspace, error) {
	if index < 0 || index >= len(l.items) {
		return Workspace{}, fmt.Errorf("workspace #%d: %w", index+1, ErrNotFound)
	}
	return l.items[index], nil
}

// Add appends a workspace.
func (l *List) Add(ws Workspace) error {
	if l.Index(ws) >= 0 {
		return fmt.Errorf("%s: %w", ws, ErrDuplicate)
	}
	l.items = append(l.items, ws)
	l.dirty = true
	return nil
}

// Remove drops a workspace and reports whether it was listed.
func (l *List) Remove(ws Workspace) bool {
	i := l.Index(ws)
	if i < 0 {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.dirty = true
	return true
}
