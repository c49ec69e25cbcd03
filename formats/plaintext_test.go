package formats

import (
	"strings"
	"testing"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/timer"
	"github.com/arthur-debert/nanotask/nanotask/tree"
	"github.com/arthur-debert/nanotask/testutil"
	"github.com/google/go-cmp/cmp"
)

func TestPlainTextJournal(t *testing.T) {
	tr := testutil.LoadUniverse(t)
	rows := Rows(tr, tr.Visible(nil))

	got := PlainText.Render(rows, RenderOptions{Now: testutil.FixedNow})
	want := `1 [WIP] Personal  !5
  2 [NOT_STARTED] Buy groceries  !3
    3 [DONE] Milk
    4 [NOT_STARTED] Bread
  5 [WAITING] ********  !7  timer 01:00
6 [CURRENT_MISSION] Work  !9
  7 [WIP] Team meeting  !4  collapsed
      weekly sync
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected listing (-want +got):\n%s", diff)
	}
}

func TestPlainTextShowPrivate(t *testing.T) {
	tr := testutil.LoadUniverse(t)
	task, _ := tr.Get(testutil.Exercise)

	got := PlainText.Render([]Row{{Task: task, Depth: 0}}, RenderOptions{Now: testutil.FixedNow, ShowPrivate: true})
	if !strings.HasPrefix(got, "5 [WAITING] Exercise") {
		t.Errorf("expected the private name, got %q", got)
	}
}

func TestPlainTextDetails(t *testing.T) {
	now := testutil.FixedNow
	yesterday := now.Add(-24 * time.Hour)
	archived := now.Add(-48 * time.Hour)

	tests := []struct {
		name string
		task tree.Task
		want string
	}{
		{
			name: "bare task",
			task: tree.Task{ID: 1, Name: "Plain"},
			want: "1 [NOT_STARTED] Plain\n",
		},
		{
			name: "running timer",
			task: tree.Task{ID: 2, Name: "Focus", Status: tree.WIP, Timer: timer.New(now.Add(-90 * time.Minute).Unix())},
			want: "2 [WIP] Focus  timer 01:30:00 running\n",
		},
		{
			name: "overdue deadline",
			task: tree.Task{ID: 3, Name: "Taxes", Deadline: &yesterday},
			want: "3 [NOT_STARTED] Taxes  due 2024-05-31 overdue\n",
		},
		{
			name: "done task is never overdue",
			task: tree.Task{ID: 4, Name: "Taxes", Status: tree.Done, Deadline: &yesterday},
			want: "4 [DONE] Taxes  due 2024-05-31\n",
		},
		{
			name: "archived",
			task: tree.Task{ID: 5, Name: "Old", ArchivedAt: &archived},
			want: "5 [NOT_STARTED] Old  archived 2024-05-30\n",
		},
		{
			name: "multi-line note skips blank lines",
			task: tree.Task{ID: 6, Name: "Notes", ExtraInfo: "first\n\n  second  "},
			want: "6 [NOT_STARTED] Notes\n    first\n    second\n",
		},
		{
			name: "private note is hidden",
			task: tree.Task{ID: 7, Name: "Secret", Private: true, ExtraInfo: "pin 1234"},
			want: "7 [NOT_STARTED] ********\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlainText.Render([]Row{{Task: tt.task}}, RenderOptions{Now: now})
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlainTextEmpty(t *testing.T) {
	if got := PlainText.Render(nil, RenderOptions{}); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}
