package stemshell

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the user settings of a shell.
type Config struct {
	// Prompt is used when the application sets none.
	Prompt string `mapstructure:"prompt"`
	// History enables the persisted line history.
	History bool `mapstructure:"history"`
	// HistoryFile overrides ~/.<name>/history.
	HistoryFile string `mapstructure:"history_file"`
	// Audit enables the invocation log of applications that provide one.
	Audit bool `mapstructure:"audit"`
	// AuditFile overrides ~/.<name>/audit.db.
	AuditFile string `mapstructure:"audit_file"`
	// Banner enables the startup banner.
	Banner bool `mapstructure:"banner"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		History:  true,
		Banner:   true,
		LogLevel: "warn",
	}
}

// ConfigDir returns ~/.<name>, the per-user directory of a shell.
func ConfigDir(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, "."+name), nil
}

// LoadConfig reads the configuration of the shell called name. path selects
// a config file explicitly; when empty, ~/.<name>/config.{yaml,toml,json} is
// used if it exists. Environment variables prefixed with the upper-cased
// name, such as MYSH_PROMPT, override file values.
func LoadConfig(name, path string) (Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("prompt", defaults.Prompt)
	v.SetDefault("history", defaults.History)
	v.SetDefault("history_file", defaults.HistoryFile)
	v.SetDefault("audit", defaults.Audit)
	v.SetDefault("audit_file", defaults.AuditFile)
	v.SetDefault("banner", defaults.Banner)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(envPrefix(name))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		dir, err := ConfigDir(name)
		if err != nil {
			return Config{}, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func envPrefix(name string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if r == '-' || r == '.' || r == ' ' {
			return '_'
		}
		return r
	}, name))
}
