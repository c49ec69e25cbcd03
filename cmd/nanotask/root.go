package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arthur-debert/nanotask/nanotask/config"
	"github.com/arthur-debert/nanotask/nanotask/lease"
	"github.com/arthur-debert/nanotask/nanotask/workspace"
	"github.com/spf13/cobra"
)

// cli holds the state of one invocation: flags, configuration and the
// workspace registry opened for it.
type cli struct {
	configPath string
	workspace  string
	logLevel   string
	verbose    bool
	force      bool

	cfg      config.Config
	logger   *slog.Logger
	registry *workspace.Registry

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

// run executes one invocation and closes whatever it opened, whether the
// command succeeded or not.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	c := &cli{in: bufio.NewReader(in), out: out, errOut: errOut}
	rootCmd := c.rootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	err := rootCmd.ExecuteContext(ctx)
	c.teardown()
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nanotask",
		Short: "Nanotask - hierarchical task lists shared through a file",
		Long: `Nanotask keeps a tree of tasks in a single file that several processes,
possibly on different machines, may open at the same time. Writers take a
lease on the file; readers pick up changes made by others.

Configuration Sources (in order of precedence):
1. Command line flags
2. Environment variables (NANOTASK_*)
3. Configuration file (--config, ./nanotask.yaml, ~/.config/nanotask/nanotask.yaml)
4. Built-in defaults

Examples:
  nanotask add "Buy milk"
  nanotask add --parent 1 "Semi-skimmed"
  nanotask status 2 done
  nanotask list --filter name=Buy
  nanotask -w ~/work.json list`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file path")
	flags.StringVarP(&c.workspace, "workspace", "w", "", "workspace index or store path (default from config)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug|info|warn|error")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "also log to stderr")
	flags.BoolVar(&c.force, "force", false, "take over locks held by other processes without asking")

	rootCmd.AddCommand(
		c.addCmd(),
		c.listCmd(),
		c.watchCmd(),
		c.renameCmd(),
		c.statusCmd(),
		c.importanceCmd(),
		c.noteCmd(),
		c.deadlineCmd(),
		c.collapseCmd(),
		c.privateCmd(),
		c.timerCmd(),
		c.moveCmd(),
		c.swapCmd(),
		c.deleteCmd(),
		c.archiveCmd(),
		c.restoreCmd(),
		c.lockCmd(),
		c.workspaceCmd(),
	)
	return rootCmd
}

// setup loads the configuration, starts logging and opens the registry.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	v := config.NewViper(c.configPath)
	if c.logLevel != "" {
		v.Set(config.KeyLogLevel, c.logLevel)
	}
	cfg, err := config.Read(v, c.configPath != "")
	if err != nil {
		return NewConfigError("load configuration", err)
	}
	c.cfg = cfg

	logger, err := initLogging(cfg.LogLevel, c.verbose, c.errOut)
	if err != nil {
		return NewConfigError("initialize logging", err)
	}
	c.logger = logger.With("command", cmd.Name())

	for _, dir := range []string{cfg.DataDir, filepath.Dir(cfg.WorkspacesFile)} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return NewConfigError("create data directory", err, CommonSuggestions.CheckPerms)
		}
	}

	settings := workspace.Settings{LockLifetime: cfg.LockLifetime, LockAcquireTimeout: cfg.LockAcquireTimeout}
	registry, err := workspace.NewRegistry(cfg.WorkspacesFile, cfg.WorkspacesLockFile, settings,
		workspace.WithLogger(c.logger))
	if err != nil {
		return NewConfigError("open workspace registry", err)
	}
	if err := registry.Initialize(cmd.Context(), c.confirm); err != nil {
		return WrapError("open workspace registry", err)
	}
	c.registry = registry
	return nil
}

func (c *cli) teardown() {
	if c.registry == nil {
		return
	}
	if err := c.registry.Close(); err != nil {
		c.logger.Error("failed to close registry", "error", err)
	}
	c.registry = nil
}

// confirm asks on the terminal whether to break a lease held by someone
// else. --force answers yes.
func (c *cli) confirm(holder lease.Record) bool {
	if c.force {
		c.logger.Warn("breaking lease because of --force", "holder", holder.String())
		return true
	}
	fmt.Fprintf(c.errOut, "The task list is locked (%s).\nIf that process crashed you can take over the lock. Take over? [y/N] ", holder)
	answer, err := c.in.ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(c.errOut)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// resolveWorkspace turns the --workspace flag into a workspace, registering
// paths that are not known yet. A number selects a registered workspace by
// its index in 'workspace list'.
func (c *cli) resolveWorkspace(ctx context.Context) (workspace.Workspace, error) {
	if index, err := strconv.Atoi(c.workspace); err == nil {
		ws, err := c.registry.Get(index)
		if err != nil {
			return workspace.Workspace{}, NewStoreError("select workspace", err, "Run 'nanotask workspace list' to see the indexes")
		}
		return ws, nil
	}

	path := c.workspace
	if path == "" {
		path = c.cfg.DefaultWorkspace
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return workspace.Workspace{}, NewValidationError("select workspace", "path", path)
	}

	ws := workspace.New(abs)
	for _, known := range c.registry.List() {
		if known.Equal(ws) {
			return known, nil
		}
	}
	if err := c.registry.Add(ctx, c.confirm, ws); err != nil {
		return workspace.Workspace{}, WrapError("register workspace", err)
	}
	c.logger.Info("registered workspace", "workspace", ws.StorePath)
	return ws, nil
}

// tasks loads the selected workspace's task store.
func (c *cli) tasks(ctx context.Context) (*workspace.TaskStore, error) {
	if _, s, ok := c.registry.Loaded(); ok {
		return s, nil
	}
	ws, err := c.resolveWorkspace(ctx)
	if err != nil {
		return nil, err
	}
	s, err := c.registry.Load(ctx, ws, c.confirm)
	if err != nil {
		return nil, WrapError("load workspace "+ws.StorePath, err)
	}
	return s, nil
}
