// Package tree implements the in-memory task forest.
//
// Tasks live in an arena keyed by id. Each node records its parent id and the
// ordered ids of its children; the root is not a task but the NodeRef sentinel
// whose children are the top-level tasks. Every structural operation checks its
// preconditions before touching anything, so a failed call never leaves a
// partially applied change behind.
package tree

import (
	"fmt"
	"time"
)

// SlotName is the key under which the forest is stored in the backing shelf.
const SlotName = "task_tree"

type node struct {
	task     Task
	children []int
}

// Tree is the task forest. It is not safe for concurrent use; the owning
// store serializes access.
type Tree struct {
	nodes    map[int]*node
	roots    []int
	dirty    bool
	timeFunc func() time.Time
}

// Option configures a Tree.
type Option func(*Tree)

// WithTimeFunc sets the clock used for archive dates and timer stamps.
func WithTimeFunc(fn func() time.Time) Option {
	return func(t *Tree) {
		t.timeFunc = fn
	}
}

// New returns an empty forest.
func New(opts ...Option) *Tree {
	t := &Tree{
		nodes:    make(map[int]*node),
		timeFunc: time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Slot implements the store payload contract.
func (t *Tree) Slot() string { return SlotName }

// Dirty reports whether the tree changed since the last ClearDirty.
func (t *Tree) Dirty() bool { return t.dirty }

// ClearDirty is called by the store after a successful flush.
func (t *Tree) ClearDirty() { t.dirty = false }

// MarkDirty flags the tree as modified.
func (t *Tree) MarkDirty() { t.dirty = true }

// Len returns the number of tasks, archived ones included.
func (t *Tree) Len() int { return len(t.nodes) }

// IsEmpty reports whether the forest has no tasks.
func (t *Tree) IsEmpty() bool { return len(t.nodes) == 0 }

// GenerateID returns 1 for an empty forest and max(id)+1 otherwise. The id is
// not reserved: insert the task before asking again.
func (t *Tree) GenerateID() int {
	highest := 0
	for id := range t.nodes {
		if id > highest {
			highest = id
		}
	}
	return highest + 1
}

// childList returns the mutable child list of a parent (0 = root).
func (t *Tree) childList(parentID int) *[]int {
	if parentID == 0 {
		return &t.roots
	}
	n, ok := t.nodes[parentID]
	if !ok {
		return nil
	}
	return &n.children
}

func (t *Tree) exists(id int) bool {
	if id == 0 {
		return true
	}
	_, ok := t.nodes[id]
	return ok
}

// AddRoot appends a task to the top level.
func (t *Tree) AddRoot(task Task) error {
	return t.AddChild(task, 0)
}

// AddChild appends a task to the children of parentID (0 = root).
func (t *Tree) AddChild(task Task, parentID int) error {
	if task.ID <= 0 {
		return fmt.Errorf("add task %d: %w", task.ID, ErrInvalidID)
	}
	if _, dup := t.nodes[task.ID]; dup {
		return fmt.Errorf("add task %d: %w", task.ID, ErrDuplicateID)
	}
	if !t.exists(parentID) {
		return fmt.Errorf("add task %d under %d: parent %w", task.ID, parentID, ErrNotFound)
	}
	if !task.Status.Valid() || !task.Importance.Valid() {
		return fmt.Errorf("add task %d: %w", task.ID, ErrInvalidValue)
	}

	task = task.clone()
	task.ParentID = parentID
	t.nodes[task.ID] = &node{task: task}
	list := t.childList(parentID)
	*list = append(*list, task.ID)
	t.dirty = true
	return nil
}

// NewTask creates a NotStarted task with a fresh id under parentID.
func (t *Tree) NewTask(name string, parentID int) (Task, error) {
	task := Task{ID: t.GenerateID(), Name: name, Status: NotStarted}
	if err := t.AddChild(task, parentID); err != nil {
		return Task{}, err
	}
	return t.nodes[task.ID].task.clone(), nil
}

// Resolve maps an id to a NodeRef; 0 resolves to Root.
func (t *Tree) Resolve(id int) (NodeRef, error) {
	if !t.exists(id) {
		return Root, fmt.Errorf("resolve %d: %w", id, ErrNotFound)
	}
	return Node(id), nil
}

// Get returns a snapshot of the task with the given id.
func (t *Tree) Get(id int) (Task, error) {
	if id == 0 {
		return Task{}, fmt.Errorf("get: %w", ErrRootTask)
	}
	n, ok := t.nodes[id]
	if !ok {
		return Task{}, fmt.Errorf("get %d: %w", id, ErrNotFound)
	}
	return n.task.clone(), nil
}

// Children returns the ordered ids directly under ref.
func (t *Tree) Children(ref NodeRef) ([]int, error) {
	list := t.childList(ref.ID())
	if list == nil {
		return nil, fmt.Errorf("children of %d: %w", ref.ID(), ErrNotFound)
	}
	out := make([]int, len(*list))
	copy(out, *list)
	return out, nil
}

// Flatten lists the whole forest depth-first, parents before children.
// hideCollapsed stops descent below collapsed tasks (the collapsed task itself
// is still listed); hideArchived drops archived tasks from the output but
// still descends into them.
func (t *Tree) Flatten(hideCollapsed, hideArchived bool) []Task {
	out, _ := t.FlattenFrom(Root, hideCollapsed, hideArchived)
	return out
}

// FlattenFrom is Flatten restricted to the descendants of ref, ref excluded.
func (t *Tree) FlattenFrom(ref NodeRef, hideCollapsed, hideArchived bool) ([]Task, error) {
	list := t.childList(ref.ID())
	if list == nil {
		return nil, fmt.Errorf("flatten %d: %w", ref.ID(), ErrNotFound)
	}

	var out []Task
	t.walk(*list, hideCollapsed, hideArchived, func(n *node) {
		out = append(out, n.task.clone())
	})
	return out, nil
}

// walk visits nodes in pre-order using an explicit stack.
func (t *Tree) walk(start []int, hideCollapsed, hideArchived bool, visit func(*node)) {
	stack := make([]int, 0, len(start))
	for i := len(start) - 1; i >= 0; i-- {
		stack = append(stack, start[i])
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[id]

		if !(hideCollapsed && n.task.Collapsed) {
			for i := len(n.children) - 1; i >= 0; i-- {
				stack = append(stack, n.children[i])
			}
		}

		if hideArchived && n.task.IsArchived() {
			continue
		}
		visit(n)
	}
}

func (t *Tree) descendantIDs(id int) []int {
	var ids []int
	t.walk(t.nodes[id].children, false, false, func(n *node) {
		ids = append(ids, n.task.ID)
	})
	return ids
}

// IndentDepth returns the number of hops from the task to the root.
func (t *Tree) IndentDepth(id int) (int, error) {
	ancestors, err := t.Ancestors(id)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, nil
	}
	return len(ancestors) + 1, nil
}

// Ancestors returns the ids above the task, nearest first, root excluded.
func (t *Tree) Ancestors(id int) ([]int, error) {
	if !t.exists(id) {
		return nil, fmt.Errorf("ancestors of %d: %w", id, ErrNotFound)
	}

	var out []int
	seen := map[int]bool{id: true}
	for cur := id; cur != 0; {
		n, ok := t.nodes[cur]
		if !ok {
			return nil, fmt.Errorf("ancestors of %d: dangling parent %d: %w", id, cur, ErrNotFound)
		}
		parent := n.task.ParentID
		if parent == 0 {
			break
		}
		if seen[parent] {
			return nil, fmt.Errorf("ancestors of %d: %w", id, ErrCycle)
		}
		seen[parent] = true
		out = append(out, parent)
		cur = parent
	}
	return out, nil
}

// IsDescendant reports whether id sits somewhere below ancestorID. Every task
// descends from the root.
func (t *Tree) IsDescendant(ancestorID, id int) bool {
	if id == 0 || !t.exists(id) || !t.exists(ancestorID) {
		return false
	}
	if ancestorID == 0 {
		return true
	}
	ancestors, err := t.Ancestors(id)
	if err != nil {
		return false
	}
	for _, a := range ancestors {
		if a == ancestorID {
			return true
		}
	}
	return false
}

func removeID(list *[]int, id int) int {
	for i, v := range *list {
		if v == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return i
		}
	}
	return -1
}

func indexOf(list []int, id int) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

// Move re-parents src under dest, appending it to dest's children.
func (t *Tree) Move(src int, dest NodeRef) error {
	if src == 0 {
		return fmt.Errorf("move: %w", ErrRootTask)
	}
	n, ok := t.nodes[src]
	if !ok {
		return fmt.Errorf("move %d: %w", src, ErrNotFound)
	}
	if !t.exists(dest.ID()) {
		return fmt.Errorf("move %d to %d: destination %w", src, dest.ID(), ErrNotFound)
	}
	if dest.ID() == src {
		return fmt.Errorf("move %d: %w", src, ErrSelfTarget)
	}
	if n.task.ParentID == dest.ID() {
		return fmt.Errorf("move %d to %d: %w", src, dest.ID(), ErrDegenerateMove)
	}
	if !dest.IsRoot() && t.nodes[dest.ID()].task.ParentID == src {
		return fmt.Errorf("move %d to its direct child %d: %w", src, dest.ID(), ErrDegenerateMove)
	}
	if t.IsDescendant(src, dest.ID()) {
		return fmt.Errorf("move %d below its descendant %d: %w", src, dest.ID(), ErrCycle)
	}

	removeID(t.childList(n.task.ParentID), src)
	list := t.childList(dest.ID())
	*list = append(*list, src)
	n.task.ParentID = dest.ID()
	t.dirty = true
	return nil
}

// Swap exchanges the positions of two tasks. Each keeps its id and subtree and
// takes the other's former slot.
func (t *Tree) Swap(a, b int) error {
	if a == 0 || b == 0 {
		return fmt.Errorf("swap: %w", ErrRootTask)
	}
	na, okA := t.nodes[a]
	nb, okB := t.nodes[b]
	if !okA || !okB {
		return fmt.Errorf("swap %d and %d: %w", a, b, ErrNotFound)
	}
	if a == b {
		return fmt.Errorf("swap %d: %w", a, ErrSelfTarget)
	}
	if t.IsDescendant(a, b) || t.IsDescendant(b, a) {
		return fmt.Errorf("swap %d and %d: %w", a, b, ErrCycle)
	}

	pa, pb := na.task.ParentID, nb.task.ParentID
	listA, listB := t.childList(pa), t.childList(pb)
	ia, ib := indexOf(*listA, a), indexOf(*listB, b)

	(*listA)[ia] = b
	(*listB)[ib] = a
	na.task.ParentID, nb.task.ParentID = pb, pa
	t.dirty = true
	return nil
}

// Delete detaches a task. With cascade the whole subtree goes; otherwise the
// children are appended, in order, to the deleted task's former parent.
// Deleting the root is a programming error.
func (t *Tree) Delete(id int, cascade bool) error {
	if id == 0 {
		panic("tree: cannot delete the root task")
	}
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("delete %d: %w", id, ErrNotFound)
	}

	parent := n.task.ParentID
	removeID(t.childList(parent), id)

	if cascade {
		for _, d := range t.descendantIDs(id) {
			delete(t.nodes, d)
		}
	} else {
		list := t.childList(parent)
		for _, c := range n.children {
			t.nodes[c].task.ParentID = parent
			*list = append(*list, c)
		}
	}

	delete(t.nodes, id)
	t.dirty = true
	return nil
}

// Clear removes every task.
func (t *Tree) Clear() {
	t.nodes = make(map[int]*node)
	t.roots = nil
	t.dirty = true
}

func (t *Tree) setArchived(id int, cascade bool, at *time.Time) error {
	if id == 0 {
		return fmt.Errorf("archive: %w", ErrRootTask)
	}
	if _, ok := t.nodes[id]; !ok {
		return fmt.Errorf("archive %d: %w", id, ErrNotFound)
	}

	ids := []int{id}
	if cascade {
		ids = append(ids, t.descendantIDs(id)...)
	}
	for _, target := range ids {
		if at == nil {
			t.nodes[target].task.ArchivedAt = nil
			continue
		}
		stamp := *at
		t.nodes[target].task.ArchivedAt = &stamp
	}
	t.dirty = true
	return nil
}

// Archive stamps the task (and with cascade every descendant) with the current
// time. Archived tasks stay in the tree.
func (t *Tree) Archive(id int, cascade bool) error {
	now := t.timeFunc()
	return t.setArchived(id, cascade, &now)
}

// Restore clears the archive date of the task and, with cascade, of every
// descendant.
func (t *Tree) Restore(id int, cascade bool) error {
	return t.setArchived(id, cascade, nil)
}

// Validate checks the structural invariants: each task is listed exactly once
// by the parent it names, every task is reachable from the root and no task is
// its own ancestor.
func (t *Tree) Validate() error {
	seen := make(map[int]int)
	check := func(parentID int, list []int) error {
		for _, c := range list {
			n, ok := t.nodes[c]
			if !ok {
				return fmt.Errorf("child %d of %d: %w", c, parentID, ErrNotFound)
			}
			if n.task.ParentID != parentID {
				return fmt.Errorf("task %d listed under %d but names parent %d", c, parentID, n.task.ParentID)
			}
			seen[c]++
		}
		return nil
	}

	if err := check(0, t.roots); err != nil {
		return err
	}
	for id, n := range t.nodes {
		if err := check(id, n.children); err != nil {
			return err
		}
	}
	for id := range t.nodes {
		if seen[id] != 1 {
			return fmt.Errorf("task %d listed %d times", id, seen[id])
		}
		if _, err := t.Ancestors(id); err != nil {
			return err
		}
	}
	return nil
}
