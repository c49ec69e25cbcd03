package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/nanotask/nanotask/config"
	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := config.Default()
	if c.LockAcquireTimeout != 600*time.Second || c.LockLifetime != 580*time.Second {
		t.Errorf("unexpected lease defaults: timeout %s lifetime %s", c.LockAcquireTimeout, c.LockLifetime)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"lifetime equals timeout", func(c *config.Config) { c.LockLifetime = c.LockAcquireTimeout }},
		{"lifetime above timeout", func(c *config.Config) { c.LockLifetime = 700 * time.Second }},
		{"zero lifetime", func(c *config.Config) { c.LockLifetime = 0 }},
		{"zero poll interval", func(c *config.Config) { c.PollInterval = 0 }},
		{"negative autosave", func(c *config.Config) { c.AutosaveInterval = -time.Second }},
		{"no workspaces file", func(c *config.Config) { c.WorkspacesFile = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.Default()
			tt.modify(&c)
			if err := c.Validate(); !errors.Is(err, config.ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, "nanotask.yaml", `
data_dir: /srv/tasks
workspaces_file: registry.json
default_workspace: /home/me/inbox.json
lock_acquire_timeout: 120
lock_lifetime: 90
autosave_interval: 30
poll_interval: 0.5
log_level: debug
`)

	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := config.Config{
		DataDir:            "/srv/tasks",
		WorkspacesFile:     "/srv/tasks/registry.json",
		WorkspacesLockFile: "/srv/tasks/registry.json.lock",
		DefaultWorkspace:   "/home/me/inbox.json",
		LockAcquireTimeout: 120 * time.Second,
		LockLifetime:       90 * time.Second,
		AutosaveInterval:   30 * time.Second,
		PollInterval:       500 * time.Millisecond,
		LogLevel:           "debug",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "nanotask.json", `{"data_dir": "/srv/tasks", "lock_lifetime": 90}`)
	t.Setenv("NANOTASK_LOCK_LIFETIME", "30")
	t.Setenv("NANOTASK_LOG_LEVEL", "warn")

	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.LockLifetime != 30*time.Second {
		t.Errorf("expected env lifetime 30s, got %s", got.LockLifetime)
	}
	if got.LogLevel != "warn" {
		t.Errorf("expected env log level, got %q", got.LogLevel)
	}
	if got.LockAcquireTimeout != 600*time.Second {
		t.Errorf("expected default timeout, got %s", got.LockAcquireTimeout)
	}
	if got.DefaultWorkspace != "/srv/tasks/tasks.json" {
		t.Errorf("unexpected default workspace %q", got.DefaultWorkspace)
	}
}

func TestLoadRejectsInvalidLease(t *testing.T) {
	path := writeConfig(t, "nanotask.yaml", "lock_acquire_timeout: 580\nlock_lifetime: 600\n")
	if _, err := config.Load(path); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing explicit config file")
	}
}
