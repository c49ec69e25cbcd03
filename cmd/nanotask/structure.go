package main

import (
	"strings"

	"github.com/arthur-debert/nanotask/nanotask/tree"
	"github.com/spf13/cobra"
)

func (c *cli) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <parent-id|root>",
		Short: "Move a task, with its subtasks, under another task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("move task", args[0])
			if err != nil {
				return err
			}
			dest := tree.Root
			if !strings.EqualFold(args[1], "root") {
				destID, err := parseID("move task", args[1])
				if err != nil {
					return err
				}
				dest = tree.Node(destID)
			}
			return c.edit(cmd, "move task", func(t *tree.Tree) error {
				return t.Move(id, dest)
			})
		},
	}
}

func (c *cli) swapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "swap <id> <id>",
		Short: "Swap the positions of two tasks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseID("swap tasks", args[0])
			if err != nil {
				return err
			}
			b, err := parseID("swap tasks", args[1])
			if err != nil {
				return err
			}
			return c.edit(cmd, "swap tasks", func(t *tree.Tree) error {
				return t.Swap(a, b)
			})
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task; its subtasks move up unless --cascade is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("delete task", args[0])
			if err != nil {
				return err
			}
			return c.edit(cmd, "delete task", func(t *tree.Tree) error {
				return t.Delete(id, cascade)
			})
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "also delete every subtask")
	return cmd
}

func (c *cli) archiveCmd() *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a task, hiding it from the journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("archive task", args[0])
			if err != nil {
				return err
			}
			return c.edit(cmd, "archive task", func(t *tree.Tree) error {
				return t.Archive(id, cascade)
			})
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "also archive every subtask")
	return cmd
}

func (c *cli) restoreCmd() *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Bring an archived task back to the journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("restore task", args[0])
			if err != nil {
				return err
			}
			return c.edit(cmd, "restore task", func(t *tree.Tree) error {
				return t.Restore(id, cascade)
			})
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "also restore every subtask")
	return cmd
}
