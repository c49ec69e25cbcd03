package main

import (
	"fmt"
	"time"

	"github.com/arthur-debert/nanotask/formats"
	"github.com/arthur-debert/nanotask/nanotask/session"
	"github.com/arthur-debert/nanotask/nanotask/tree"
	"github.com/spf13/cobra"
)

// listOptions selects and renders a view of the tree.
type listOptions struct {
	all         bool
	archived    bool
	filter      string
	format      string
	showPrivate bool
}

func (o *listOptions) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVarP(&o.all, "all", "a", false, "show collapsed and archived tasks too")
	flags.BoolVar(&o.archived, "archived", false, "show only archived tasks")
	flags.StringVarP(&o.filter, "filter", "f", "", "filter as field=value; fields: name, note, status, importance")
	flags.StringVar(&o.format, "format", "plaintext", fmt.Sprintf("output format: %v", formats.List()))
	flags.BoolVar(&o.showPrivate, "show-private", false, "print the names of private tasks")
}

// render writes the selected view of t.
func (c *cli) render(t *tree.Tree, o listOptions) error {
	format, err := formats.Get(o.format)
	if err != nil {
		return NewValidationError("list tasks", "format", o.format, fmt.Sprintf("Available formats: %v", formats.List()))
	}

	var filter *tree.Filter
	if o.filter != "" {
		filter, err = tree.ParseFilter(o.filter)
		if err != nil {
			return &CLIError{
				Operation:   "list tasks",
				Cause:       fmt.Sprintf("invalid filter %q", o.filter),
				Details:     err.Error(),
				Suggestions: []string{"Use field=value, e.g. name=Buy, status=done or importance=7"},
				Underlying:  err,
			}
		}
	}

	var tasks []tree.Task
	switch {
	case o.archived:
		tasks = t.ArchivedView(filter)
	case o.all:
		for _, task := range t.Flatten(false, false) {
			if filter == nil || filter.Matches(task) {
				tasks = append(tasks, task)
			}
		}
	default:
		tasks = t.Visible(filter)
	}

	if len(tasks) == 0 {
		fmt.Fprintln(c.out, "No tasks")
		return nil
	}
	opts := formats.RenderOptions{Now: time.Now(), ShowPrivate: o.showPrivate}
	fmt.Fprint(c.out, format.Render(formats.Rows(t, tasks), opts))
	return nil
}

func (c *cli) listCmd() *cobra.Command {
	var o listOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List tasks as an indented tree.

By default collapsed subtrees and archived tasks are hidden. With --filter
collapsed subtrees are expanded and only matching tasks are shown. Name and
note filters are regular expressions matched at the start of the field.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.tasks(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(s.Payload(), o)
		},
	}
	o.bind(cmd)
	return cmd
}

func (c *cli) watchCmd() *cobra.Command {
	var o listOptions
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "List tasks and list them again whenever another process changes them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.tasks(cmd.Context())
			if err != nil {
				return err
			}

			show := func() {
				fmt.Fprintf(c.out, "== %s (%s) ==\n", s.Path(), time.Now().Format(time.TimeOnly))
				if err := c.render(s.Payload(), o); err != nil {
					c.logger.Error("failed to render tasks", "error", err)
				}
			}
			show()

			poller := session.NewPoller(s, c.cfg.PollInterval, c.cfg.AutosaveInterval,
				session.WithOnReload(show),
				session.WithLogger(c.logger),
			)
			if err := poller.Run(cmd.Context()); err != nil {
				return WrapError("watch tasks", err)
			}
			return nil
		},
	}
	o.bind(cmd)
	return cmd
}
