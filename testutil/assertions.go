package testutil

import (
	"testing"

	"github.com/arthur-debert/nanotask/nanotask/tree"
	"github.com/google/go-cmp/cmp"
)

// IDs extracts task ids in order.
func IDs(tasks []tree.Task) []int {
	ids := make([]int, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

// AssertOrder checks that the tasks come in exactly the expected id order.
func AssertOrder(t *testing.T, tasks []tree.Task, want ...int) {
	t.Helper()
	if want == nil {
		want = []int{}
	}
	if diff := cmp.Diff(want, IDs(tasks)); diff != "" {
		t.Errorf("unexpected task order (-want +got):\n%s", diff)
	}
}

// AssertValid fails the test if the tree breaks a structural invariant.
func AssertValid(t *testing.T, tr *tree.Tree) {
	t.Helper()
	if err := tr.Validate(); err != nil {
		t.Fatalf("tree invariant violated: %v", err)
	}
}

// AssertParent checks a task's parent id.
func AssertParent(t *testing.T, tr *tree.Tree, id, wantParent int) {
	t.Helper()
	task, err := tr.Get(id)
	if err != nil {
		t.Fatalf("failed to get task %d: %v", id, err)
	}
	if task.ParentID != wantParent {
		t.Errorf("expected task %d under %d, got %d", id, wantParent, task.ParentID)
	}
}

// AssertChildren checks the ordered direct children of a node.
func AssertChildren(t *testing.T, tr *tree.Tree, ref tree.NodeRef, want ...int) {
	t.Helper()
	got, err := tr.Children(ref)
	if err != nil {
		t.Fatalf("failed to list children of %d: %v", ref.ID(), err)
	}
	if want == nil {
		want = []int{}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected children of %d (-want +got):\n%s", ref.ID(), diff)
	}
}
