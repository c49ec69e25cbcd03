package tree_test

import (
	"testing"

	"github.com/arthur-debert/nanotask/nanotask/tree"
	"github.com/arthur-debert/nanotask/testutil"
)

func TestParseFilter(t *testing.T) {
	tr := testutil.LoadUniverse(t)
	tasks := tr.Flatten(false, false)

	tests := []struct {
		expr string
		want []int
	}{
		{"name=B", []int{2, 4}},
		{"name=read", nil},
		{"name=.*read", []int{4}},
		{"note=weekly", []int{7}},
		{"status=done", []int{3, 9}},
		{"status=current-mission", []int{6}},
		{"importance=9", []int{6, 9}},
		{"importance=undecided", []int{3, 4, 8, 11}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := tree.ParseFilter(tt.expr)
			if err != nil {
				t.Fatalf("parse %q: %v", tt.expr, err)
			}
			var got []tree.Task
			for _, task := range tasks {
				if f.Matches(task) {
					got = append(got, task)
				}
			}
			testutil.AssertOrder(t, got, tt.want...)
		})
	}
}

func TestParseFilterErrors(t *testing.T) {
	for _, expr := range []string{"name", "colour=red", "status=later", "importance=11", "name=("} {
		if _, err := tree.ParseFilter(expr); err == nil {
			t.Errorf("expected %q to be rejected", expr)
		}
	}
}

func TestFilterString(t *testing.T) {
	name, _ := tree.NewNameFilter("Buy")
	if got := name.String(); got != "NAME regex 'Buy'" {
		t.Errorf("unexpected description %q", got)
	}
	status, _ := tree.NewStatusFilter(tree.Done)
	if got := status.String(); got != "STATUS == DONE" {
		t.Errorf("unexpected description %q", got)
	}
}
