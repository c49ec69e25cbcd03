package formats

import (
	"strings"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/timer"
	"github.com/arthur-debert/nanotask/nanotask/tree"
)

const (
	privateMask = "********"
	dateLayout  = "2006-01-02"
)

// displayName masks private tasks unless asked not to
func displayName(task tree.Task, opts RenderOptions) string {
	if task.Private && !opts.ShowPrivate {
		return privateMask
	}
	return task.Name
}

// details lists the optional attributes shown after the name
func details(task tree.Task, opts RenderOptions) []string {
	var out []string
	if task.Importance != tree.Undecided {
		out = append(out, "!"+task.Importance.String())
	}
	if task.Timer.IsStarted() {
		elapsed := timer.FormatElapsed(task.Timer.Elapsed(opts.Now))
		if task.Timer.IsRunning() {
			elapsed += " running"
		}
		out = append(out, "timer "+elapsed)
	}
	if task.HasDeadline() {
		due := "due " + task.Deadline.Format(dateLayout)
		if task.Status != tree.Done && task.Deadline.Before(startOfDay(opts.Now)) {
			due += " overdue"
		}
		out = append(out, due)
	}
	if task.IsArchived() {
		out = append(out, "archived "+task.ArchivedAt.Format(dateLayout))
	}
	if task.Collapsed {
		out = append(out, "collapsed")
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// isBlankLine checks if a line contains only whitespace
func isBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}
