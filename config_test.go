package stemshell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("mysh", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromHomeDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".mysh")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"prompt: \"db>\"\nhistory: false\naudit: true\nlog_level: debug\n"), 0644))

	cfg, err := LoadConfig("mysh", "")
	require.NoError(t, err)
	assert.Equal(t, "db>", cfg.Prompt)
	assert.False(t, cfg.History)
	assert.True(t, cfg.Audit)
	assert.True(t, cfg.Banner)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "shell.toml")
	require.NoError(t, os.WriteFile(path, []byte("history_file = \"/tmp/h\"\nbanner = false\n"), 0644))

	cfg, err := LoadConfig("mysh", path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/h", cfg.HistoryFile)
	assert.False(t, cfg.Banner)

	_, err = LoadConfig("mysh", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigEnvironmentOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MY_SH_PROMPT", "env>")
	t.Setenv("MY_SH_HISTORY", "false")

	cfg, err := LoadConfig("my-sh", "")
	require.NoError(t, err)
	assert.Equal(t, "env>", cfg.Prompt)
	assert.False(t, cfg.History)
}
