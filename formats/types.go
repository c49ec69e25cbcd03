// Package formats renders task listings. Each listing format registers
// itself by name; the CLI picks one with --format.
package formats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/tree"
)

// Row is one line of a listing: a task and its nesting depth, 0 for a
// top-level task.
type Row struct {
	Task  tree.Task
	Depth int
}

// RenderOptions control how rows are rendered.
type RenderOptions struct {
	// Now is used for running timers and overdue deadlines
	Now time.Time

	// ShowPrivate prints private task names instead of masking them
	ShowPrivate bool
}

// ListingFormat defines how a task listing is rendered
type ListingFormat struct {
	// Name is the format identifier (alphanumeric, dashes, underscores, lowercase)
	Name string

	// Extension is the file extension including the dot (e.g., ".txt", ".md")
	Extension string

	// Render turns rows into the formatted listing
	Render func(rows []Row, opts RenderOptions) string
}

// registry holds all available listing formats
var registry = make(map[string]*ListingFormat)

// Register adds a new listing format to the registry
func Register(format *ListingFormat) error {
	if !isValidFormatName(format.Name) {
		return fmt.Errorf("invalid format name %q: must be lowercase alphanumeric with dashes and underscores only", format.Name)
	}
	if format.Render == nil {
		return fmt.Errorf("format %q has no renderer", format.Name)
	}

	if !strings.HasPrefix(format.Extension, ".") {
		format.Extension = "." + format.Extension
	}

	if _, exists := registry[format.Name]; exists {
		return fmt.Errorf("format %q already registered", format.Name)
	}

	registry[format.Name] = format
	return nil
}

// Get returns a listing format by name
func Get(name string) (*ListingFormat, error) {
	format, exists := registry[name]
	if !exists {
		return nil, fmt.Errorf("unknown format %q", name)
	}
	return format, nil
}

// List returns all registered format names, sorted
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rows pairs tasks with their depth in t. Tasks missing from t are skipped.
func Rows(t *tree.Tree, tasks []tree.Task) []Row {
	rows := make([]Row, 0, len(tasks))
	for _, task := range tasks {
		depth, err := t.IndentDepth(task.ID)
		if err != nil {
			continue
		}
		rows = append(rows, Row{Task: task, Depth: depth - 1})
	}
	return rows
}

// isValidFormatName checks if a format name is valid
func isValidFormatName(name string) bool {
	if name == "" {
		return false
	}

	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return false
		}
	}
	return true
}
