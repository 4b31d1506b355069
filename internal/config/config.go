// Package config loads the optional wsreset YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/wsreset/internal/infra"
	"github.com/eliteGoblin/wsreset/internal/policy"
)

// Config holds settings that flags can override.
type Config struct {
	Policy      string        `yaml:"policy"`       // registered policy id
	Root        string        `yaml:"root"`         // overrides the resolved configuration root
	AssumeYes   bool          `yaml:"assume_yes"`   // answer yes to every question
	Backup      bool          `yaml:"backup"`       // back up storage.json before rewriting
	KillTimeout time.Duration `yaml:"kill_timeout"` // grace period before force-kill
	SnapshotDir string        `yaml:"snapshot_dir"` // encrypted snapshot database directory
	LogFile     string        `yaml:"log_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Policy:      policy.DefaultPolicyID,
		Backup:      true,
		KillTimeout: infra.DefaultTerminateTimeout,
		SnapshotDir: filepath.Join(userDir(os.UserConfigDir), "wsreset"),
		LogFile:     filepath.Join(userDir(os.UserCacheDir), "wsreset", "wsreset.log"),
	}
}

// DefaultPath returns <user config dir>/wsreset/config.yaml.
func DefaultPath() string {
	return filepath.Join(userDir(os.UserConfigDir), "wsreset", "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error when
// path is the default location; an explicitly given file must exist.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Policy == "" {
		return errors.New("policy must not be empty")
	}
	if c.KillTimeout < 0 {
		return fmt.Errorf("kill_timeout must not be negative, got %s", c.KillTimeout)
	}
	return nil
}

func userDir(fn func() (string, error)) string {
	dir, err := fn()
	if err != nil {
		return os.TempDir()
	}
	return dir
}
