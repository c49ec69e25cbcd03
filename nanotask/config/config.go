// Package config holds the runtime settings of nanotask and loads them from
// a config file and NANOTASK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "NANOTASK"

// Config keys. Durations are given in seconds.
const (
	KeyDataDir            = "data_dir"
	KeyWorkspacesFile     = "workspaces_file"
	KeyWorkspacesLockFile = "workspaces_lock_file"
	KeyDefaultWorkspace   = "default_workspace"
	KeyLockAcquireTimeout = "lock_acquire_timeout"
	KeyLockLifetime       = "lock_lifetime"
	KeyAutosaveInterval   = "autosave_interval"
	KeyPollInterval       = "poll_interval"
	KeyLogLevel           = "log_level"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is built once at startup and passed down explicitly.
type Config struct {
	DataDir            string
	WorkspacesFile     string
	WorkspacesLockFile string
	DefaultWorkspace   string
	LockAcquireTimeout time.Duration
	LockLifetime       time.Duration
	AutosaveInterval   time.Duration
	PollInterval       time.Duration
	LogLevel           string
}

// Default returns the built-in settings.
func Default() Config {
	dataDir := defaultDataDir()
	return Config{
		DataDir:            dataDir,
		WorkspacesFile:     filepath.Join(dataDir, "workspaces.json"),
		WorkspacesLockFile: filepath.Join(dataDir, "workspaces.json.lock"),
		DefaultWorkspace:   filepath.Join(dataDir, "tasks.json"),
		LockAcquireTimeout: 600 * time.Second,
		LockLifetime:       580 * time.Second,
		AutosaveInterval:   60 * time.Second,
		PollInterval:       time.Second,
		LogLevel:           "info",
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "nanotask")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "nanotask")
	}
	return filepath.Join(os.TempDir(), "nanotask")
}

// Validate checks the constraints the lease protocol depends on.
func (c Config) Validate() error {
	if c.LockLifetime <= 0 {
		return fmt.Errorf("%w: lock lifetime must be positive", ErrInvalid)
	}
	if c.LockLifetime >= c.LockAcquireTimeout {
		return fmt.Errorf("%w: lock lifetime %s must be shorter than the acquire timeout %s",
			ErrInvalid, c.LockLifetime, c.LockAcquireTimeout)
	}
	if c.AutosaveInterval <= 0 || c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll and autosave intervals must be positive", ErrInvalid)
	}
	if c.WorkspacesFile == "" || c.WorkspacesLockFile == "" {
		return fmt.Errorf("%w: workspaces file and lock file are required", ErrInvalid)
	}
	return nil
}

// NewViper returns a viper instance seeded with the defaults and wired to
// the environment. When path is empty the config file is looked up as
// nanotask.{json,yaml,toml} in the working directory and
// $HOME/.config/nanotask.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("nanotask")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/nanotask")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault(KeyDataDir, d.DataDir)
	v.SetDefault(KeyWorkspacesFile, "")
	v.SetDefault(KeyWorkspacesLockFile, "")
	v.SetDefault(KeyDefaultWorkspace, "")
	v.SetDefault(KeyLockAcquireTimeout, d.LockAcquireTimeout.Seconds())
	v.SetDefault(KeyLockLifetime, d.LockLifetime.Seconds())
	v.SetDefault(KeyAutosaveInterval, d.AutosaveInterval.Seconds())
	v.SetDefault(KeyPollInterval, d.PollInterval.Seconds())
	v.SetDefault(KeyLogLevel, d.LogLevel)
	return v
}

// Load reads the config file at path (or the discovered one when path is
// empty), overlays the environment and validates the result. A missing
// discovered file is not an error; a missing explicit one is.
func Load(path string) (Config, error) {
	return Read(NewViper(path), path != "")
}

// Read loads v's config file and builds the Config. Flags bound to v
// beforehand take precedence over the file. When explicit is false a
// missing config file is ignored.
func Read(v *viper.Viper, explicit bool) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from v, resolving relative file names against
// the data directory.
func FromViper(v *viper.Viper) (Config, error) {
	c := Config{
		DataDir:            v.GetString(KeyDataDir),
		WorkspacesFile:     v.GetString(KeyWorkspacesFile),
		WorkspacesLockFile: v.GetString(KeyWorkspacesLockFile),
		DefaultWorkspace:   v.GetString(KeyDefaultWorkspace),
		LockAcquireTimeout: seconds(v.GetFloat64(KeyLockAcquireTimeout)),
		LockLifetime:       seconds(v.GetFloat64(KeyLockLifetime)),
		AutosaveInterval:   seconds(v.GetFloat64(KeyAutosaveInterval)),
		PollInterval:       seconds(v.GetFloat64(KeyPollInterval)),
		LogLevel:           v.GetString(KeyLogLevel),
	}

	if c.WorkspacesFile == "" {
		c.WorkspacesFile = "workspaces.json"
	}
	if c.WorkspacesLockFile == "" {
		c.WorkspacesLockFile = c.WorkspacesFile + ".lock"
	}
	if c.DefaultWorkspace == "" {
		c.DefaultWorkspace = "tasks.json"
	}
	c.WorkspacesFile = c.resolve(c.WorkspacesFile)
	c.WorkspacesLockFile = c.resolve(c.WorkspacesLockFile)
	c.DefaultWorkspace = c.resolve(c.DefaultWorkspace)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) resolve(name string) string {
	if filepath.IsAbs(name) || c.DataDir == "" {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
