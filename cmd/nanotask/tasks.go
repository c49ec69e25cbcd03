package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/tree"
	"github.com/spf13/cobra"
)

const deadlineLayout = "2006-01-02"

// edit runs fn as one locked edit of the selected workspace.
func (c *cli) edit(cmd *cobra.Command, operation string, fn func(*tree.Tree) error) error {
	s, err := c.tasks(cmd.Context())
	if err != nil {
		return err
	}
	if err := s.Edit(cmd.Context(), c.confirm, fn); err != nil {
		return WrapError(operation, err)
	}
	return nil
}

func parseID(operation, arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, NewValidationError(operation, "task id", arg, "Task ids are the positive numbers shown by 'nanotask list'")
	}
	return id, nil
}

func (c *cli) addCmd() *cobra.Command {
	var parent int
	cmd := &cobra.Command{
		Use:   "add <name>...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			var added tree.Task
			err := c.edit(cmd, "add task", func(t *tree.Tree) error {
				task, err := t.NewTask(name, parent)
				added = task
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Added task %d\n", added.ID)
			return nil
		},
	}
	cmd.Flags().IntVarP(&parent, "parent", "p", 0, "parent task id (0 for a top-level task)")
	return cmd
}

func (c *cli) renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>...",
		Short: "Rename a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("rename task", args[0])
			if err != nil {
				return err
			}
			name := strings.Join(args[1:], " ")
			return c.edit(cmd, "rename task", func(t *tree.Tree) error {
				return t.Rename(id, name)
			})
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	names := make([]string, len(tree.Statuses))
	for i, s := range tree.Statuses {
		names[i] = strings.ToLower(s.String())
	}
	return &cobra.Command{
		Use:       "status <id> <status>",
		Short:     "Set the status of a task",
		Long:      "Set the status of a task. Statuses: " + strings.Join(names, ", ") + ".",
		Args:      cobra.ExactArgs(2),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("set status", args[0])
			if err != nil {
				return err
			}
			status, err := tree.ParseStatus(args[1])
			if err != nil {
				return NewValidationError("set status", "status", args[1], "Valid statuses: "+strings.Join(names, ", "))
			}
			return c.edit(cmd, "set status", func(t *tree.Tree) error {
				return t.SetStatus(id, status)
			})
		},
	}
}

func (c *cli) importanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "importance <id> <0-10|undecided>",
		Short: "Set the importance of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("set importance", args[0])
			if err != nil {
				return err
			}
			importance, err := tree.ParseImportance(args[1])
			if err != nil {
				return NewValidationError("set importance", "importance", args[1], "Use a number from 1 to 10, or 'undecided'")
			}
			return c.edit(cmd, "set importance", func(t *tree.Tree) error {
				return t.SetImportance(id, importance)
			})
		},
	}
}

func (c *cli) noteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note <id> [text]...",
		Short: "Set the note of a task; without text the note is cleared",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("set note", args[0])
			if err != nil {
				return err
			}
			note := strings.Join(args[1:], " ")
			return c.edit(cmd, "set note", func(t *tree.Tree) error {
				return t.SetExtraInfo(id, note)
			})
		},
	}
}

func (c *cli) deadlineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deadline <id> <YYYY-MM-DD|none>",
		Short: "Set or clear the deadline of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("set deadline", args[0])
			if err != nil {
				return err
			}
			var deadline *time.Time
			if !strings.EqualFold(args[1], "none") {
				day, err := time.ParseInLocation(deadlineLayout, args[1], time.Local)
				if err != nil {
					return NewValidationError("set deadline", "date", args[1], "Use the YYYY-MM-DD format, or 'none' to clear")
				}
				deadline = &day
			}
			return c.edit(cmd, "set deadline", func(t *tree.Tree) error {
				return t.SetDeadline(id, deadline)
			})
		},
	}
}

func (c *cli) collapseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collapse <id>",
		Short: "Collapse or expand the subtasks of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("toggle collapse", args[0])
			if err != nil {
				return err
			}
			return c.edit(cmd, "toggle collapse", func(t *tree.Tree) error {
				return t.ToggleCollapse(id)
			})
		},
	}
}

func (c *cli) privateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "private <id>",
		Short: "Mark a task private or public; private names are masked in listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("toggle privacy", args[0])
			if err != nil {
				return err
			}
			return c.edit(cmd, "toggle privacy", func(t *tree.Tree) error {
				return t.TogglePrivacy(id)
			})
		},
	}
}

func (c *cli) timerCmd() *cobra.Command {
	timerCmd := &cobra.Command{
		Use:   "timer",
		Short: "Track time spent on a task",
	}

	actions := []struct {
		use, short string
		apply      func(t *tree.Tree, id int) error
	}{
		{"toggle <id>", "Start or pause the timer", (*tree.Tree).ToggleTimer},
		{"pause <id>", "Pause the timer if it is running", (*tree.Tree).PauseTimer},
		{"reset <id>", "Clear the timer", (*tree.Tree).ResetTimer},
	}
	for _, action := range actions {
		operation := strings.Fields(action.use)[0] + " timer"
		timerCmd.AddCommand(&cobra.Command{
			Use:   action.use,
			Short: action.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(operation, args[0])
				if err != nil {
					return err
				}
				return c.edit(cmd, operation, func(t *tree.Tree) error {
					return action.apply(t, id)
				})
			},
		})
	}
	return timerCmd
}
