package main

import (
	"fmt"

	"github.com/arthur-debert/nanotask/nanotask/lease"
	"github.com/spf13/cobra"
)

func (c *cli) lockCmd() *cobra.Command {
	lockCmd := &cobra.Command{
		Use:   "lock",
		Short: "Inspect or break the lock of a workspace",
	}
	lockCmd.AddCommand(c.lockStatusCmd(), c.lockBreakCmd())
	return lockCmd
}

// workspaceLease returns a lease handle on the selected workspace without
// loading its store, so inspecting a held lock never waits for it.
func (c *cli) workspaceLease(cmd *cobra.Command) (*lease.Lease, error) {
	ws, err := c.resolveWorkspace(cmd.Context())
	if err != nil {
		return nil, err
	}
	l, err := lease.New(ws.LockPath, c.cfg.LockLifetime, c.cfg.LockAcquireTimeout, lease.WithLogger(c.logger))
	if err != nil {
		return nil, NewConfigError("open lock", err)
	}
	return l, nil
}

func (c *cli) lockStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who holds the lock of the workspace and of the registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.workspaceLease(cmd)
			if err != nil {
				return err
			}
			for _, target := range []*lease.Lease{l, c.registry.Store().Lease()} {
				state, rec, err := target.State()
				if err != nil {
					return WrapError("read lock", err)
				}
				fmt.Fprintf(c.out, "%s: %s\n", target.Path(), state)
				if state != lease.Unlocked {
					fmt.Fprintf(c.out, "  %s\n", rec)
				}
			}
			return nil
		},
	}
}

func (c *cli) lockBreakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "break",
		Short: "Remove the lock of the workspace, e.g. after a crash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.workspaceLease(cmd)
			if err != nil {
				return err
			}
			state, rec, err := l.State()
			if err != nil {
				return WrapError("read lock", err)
			}
			if state == lease.Unlocked {
				fmt.Fprintln(c.out, "Workspace is not locked")
				return nil
			}
			if state == lease.TheirsActive && !c.confirm(rec) {
				return &CLIError{
					Operation:   "break lock",
					Cause:       "cancelled",
					Details:     rec.String(),
					Suggestions: []string{CommonSuggestions.UseForce},
				}
			}

			if err := l.ForceBreak(cmd.Context()); err != nil {
				return WrapError("break lock", err)
			}
			if err := l.Release(); err != nil {
				return WrapError("break lock", err)
			}
			c.logger.Warn("lock broken from the command line", "lock", l.Path(), "previous", rec.String())
			fmt.Fprintln(c.out, "Lock removed")
			return nil
		},
	}
}
