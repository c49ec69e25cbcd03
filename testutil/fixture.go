// Package testutil holds fixtures and assertions shared by the nanotask tests.
package testutil

import (
	_ "embed"
	"testing"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/tree"
)

//go:embed testdata/universe.json
var universeJSON []byte

// Universe ids. The fixture is:
//
//	1 Personal
//	  2 Buy groceries
//	    3 Milk            (done)
//	    4 Bread
//	  5 Exercise          (private, timer 60s)
//	6 Work
//	  7 Team meeting      (collapsed)
//	    8 Prepare agenda
//	  9 Deploy            (archived)
//	    10 Rollback plan
//	11 Old ideas          (archived)
const (
	Personal      = 1
	BuyGroceries  = 2
	Milk          = 3
	Bread         = 4
	Exercise      = 5
	Work          = 6
	TeamMeeting   = 7
	PrepareAgenda = 8
	Deploy        = 9
	RollbackPlan  = 10
	OldIdeas      = 11
)

// FixedNow is the clock used by fixture trees.
var FixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// Clock returns a time function pinned to FixedNow.
func Clock() func() time.Time {
	return func() time.Time { return FixedNow }
}

// UniverseJSON returns a copy of the raw fixture document.
func UniverseJSON() []byte {
	out := make([]byte, len(universeJSON))
	copy(out, universeJSON)
	return out
}

// LoadUniverse decodes the fixture into a clean tree.
func LoadUniverse(t *testing.T) *tree.Tree {
	t.Helper()

	tr, err := tree.Decode(universeJSON, Clock())
	if err != nil {
		t.Fatalf("failed to load universe fixture: %v", err)
	}
	return tr
}

// Node describes one task for BuildTree.
type Node struct {
	ID     int
	Parent int
	Name   string
}

// BuildTree inserts the nodes in order; parents must come first.
func BuildTree(t *testing.T, nodes ...Node) *tree.Tree {
	t.Helper()

	tr := tree.New(tree.WithTimeFunc(Clock()))
	for _, n := range nodes {
		task := tree.Task{ID: n.ID, Name: n.Name}
		if err := tr.AddChild(task, n.Parent); err != nil {
			t.Fatalf("failed to add task %d under %d: %v", n.ID, n.Parent, err)
		}
	}
	tr.ClearDirty()
	return tr
}
