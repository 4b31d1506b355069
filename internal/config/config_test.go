package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingDefaultFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "config.yaml"), true)
	assert.Error(t, err)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
root: /tmp/custom-root
assume_yes: true
backup: false
kill_timeout: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "windsurf", cfg.Policy)
	assert.Equal(t, "/tmp/custom-root", cfg.Root)
	assert.True(t, cfg.AssumeYes)
	assert.False(t, cfg.Backup)
	assert.Equal(t, 2*time.Second, cfg.KillTimeout)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backup: [unterminated"), 0644))

	_, err := Load(path, true)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.KillTimeout = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Policy = ""
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}
