package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/arthur-debert/nanotask/nanotask/workspace"
	"github.com/spf13/cobra"
)

func (c *cli) workspaceCmd() *cobra.Command {
	wsCmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Manage the list of known workspaces",
	}
	wsCmd.AddCommand(c.workspaceAddCmd(), c.workspaceListCmd(), c.workspaceRemoveCmd())
	return wsCmd
}

func (c *cli) workspaceAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Register a workspace store file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return NewValidationError("add workspace", "path", args[0])
			}
			ws := workspace.New(abs)
			if err := c.registry.Add(cmd.Context(), c.confirm, ws); err != nil {
				return WrapError("add workspace", err)
			}
			fmt.Fprintf(c.out, "Added workspace %d: %s\n", len(c.registry.List())-1, ws.StorePath)
			return nil
		},
	}
}

func (c *cli) workspaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered workspaces; the default one is starred",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := c.registry.List()
			if len(list) == 0 {
				fmt.Fprintln(c.out, "No workspaces")
				return nil
			}
			def := workspace.New(c.cfg.DefaultWorkspace)
			for i, ws := range list {
				marker := " "
				if ws.Equal(def) {
					marker = "*"
				}
				fmt.Fprintf(c.out, "%s %d %s\n", marker, i, ws.StorePath)
			}
			return nil
		},
	}
}

func (c *cli) workspaceRemoveCmd() *cobra.Command {
	var deleteFiles bool
	cmd := &cobra.Command{
		Use:   "remove <index|path>",
		Short: "Unregister a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ws workspace.Workspace
			if index, err := strconv.Atoi(args[0]); err == nil {
				ws, err = c.registry.Get(index)
				if err != nil {
					return WrapError("remove workspace", err)
				}
			} else {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return NewValidationError("remove workspace", "path", args[0])
				}
				ws = workspace.New(abs)
			}

			if err := c.registry.Remove(cmd.Context(), c.confirm, ws, deleteFiles); err != nil {
				return WrapError("remove workspace", err)
			}
			fmt.Fprintf(c.out, "Removed workspace %s\n", ws.StorePath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&deleteFiles, "delete-files", false, "also delete the store and lock files")
	return cmd
}
