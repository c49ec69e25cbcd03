package formats

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/nanotask/nanotask/tree"
)

// Markdown format implementation
// Tasks become a nested checklist; done tasks are ticked and other statuses
// are shown in bold after the box. Details follow in italics and the note
// as a blockquote under the item.
var Markdown = &ListingFormat{
	Name:      "markdown",
	Extension: ".md",
	Render: func(rows []Row, opts RenderOptions) string {
		var result strings.Builder

		for _, row := range rows {
			task := row.Task
			indent := strings.Repeat("  ", row.Depth)

			box := "[ ]"
			if task.Status == tree.Done {
				box = "[x]"
			}
			result.WriteString(fmt.Sprintf("%s- %s ", indent, box))
			if task.Status != tree.Done && task.Status != tree.NotStarted {
				result.WriteString(fmt.Sprintf("**%s** ", task.Status))
			}
			if task.Private && !opts.ShowPrivate {
				result.WriteString(privateMask)
			} else {
				result.WriteString(escapeMarkdown(task.Name))
			}
			if d := details(task, opts); len(d) > 0 {
				result.WriteString(" _(" + strings.Join(d, ", ") + ")_")
			}
			result.WriteString("\n")

			if task.ExtraInfo == "" || (task.Private && !opts.ShowPrivate) {
				continue
			}
			for _, line := range strings.Split(task.ExtraInfo, "\n") {
				if isBlankLine(line) {
					continue
				}
				result.WriteString(indent + "  > " + escapeMarkdown(strings.TrimSpace(line)) + "\n")
			}
		}

		return result.String()
	},
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func init() {
	if err := Register(Markdown); err != nil {
		panic(fmt.Sprintf("failed to register Markdown format: %v", err))
	}
}
