package formats

import (
	"fmt"
	"strings"
)

// PlainText format implementation
// Each task is one line indented two spaces per level:
//
//	<id> [<STATUS>] <name>  <details...>
//
// followed by its note lines, indented one level deeper. Private tasks have
// their name and note masked.
var PlainText = &ListingFormat{
	Name:      "plaintext",
	Extension: ".txt",
	Render: func(rows []Row, opts RenderOptions) string {
		var result strings.Builder

		for _, row := range rows {
			task := row.Task
			indent := strings.Repeat("  ", row.Depth)

			result.WriteString(indent)
			result.WriteString(fmt.Sprintf("%d [%s] %s", task.ID, task.Status, displayName(task, opts)))
			for _, d := range details(task, opts) {
				result.WriteString("  ")
				result.WriteString(d)
			}
			result.WriteString("\n")

			if task.ExtraInfo == "" || (task.Private && !opts.ShowPrivate) {
				continue
			}
			for _, line := range strings.Split(task.ExtraInfo, "\n") {
				if isBlankLine(line) {
					continue
				}
				result.WriteString(indent)
				result.WriteString("    ")
				result.WriteString(strings.TrimSpace(line))
				result.WriteString("\n")
			}
		}

		return result.String()
	},
}

func init() {
	if err := Register(PlainText); err != nil {
		panic(fmt.Sprintf("failed to register PlainText format: %v", err))
	}
}
