// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/wechat-universal/internal/ime"
)

// Environment variables read by the start applet.
const (
	EnvDataDir     = "WECHAT_DATA_DIR"
	EnvBinds       = "CUSTOM_BINDS"
	EnvBindsConfig = "CUSTOM_BINDS_CONFIG"
	EnvIME         = "IME_WORKAROUND"
)

// Default configuration values.
const (
	AppName        = "wechat-universal"
	DefaultDataDir = "Documents/WeChat_Data"
	DefaultBwrap   = "bwrap"
	DefaultCommand = "/opt/wechat-universal/wechat"
	DefaultTimeout = 5 * time.Second
)

// Config represents the wechat-universal configuration.
type Config struct {
	Start   StartConfig   `toml:"start"`
	Sandbox SandboxConfig `toml:"sandbox"`
	Bus     BusConfig     `toml:"bus"`
}

// StartConfig holds defaults for the start applet.
type StartConfig struct {
	DataDir          string   `toml:"data_dir"`          // Absolute, or relative to home
	IME              ime.Mode `toml:"ime"`               // none, auto, fcitx, ibus
	Binds            []string `toml:"binds"`             // Extra binds, same syntax as --bind
	BindsConfig      string   `toml:"binds_config"`      // Empty = BindsConfigPath()
	ActivateExisting bool     `toml:"activate_existing"` // Raise a running session instead of starting another
}

// SandboxConfig describes how the sandbox is launched.
type SandboxConfig struct {
	Bwrap        string   `toml:"bwrap"`
	Command      string   `toml:"command"`
	Args         []string `toml:"args"`
	ShareNetwork bool     `toml:"share_network"`
}

// BusConfig holds D-Bus settings.
type BusConfig struct {
	Timeout Duration `toml:"timeout"` // Per-call timeout, e.g. "5s"
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Start: StartConfig{
			DataDir:          DefaultDataDir,
			IME:              ime.Auto,
			BindsConfig:      "",
			ActivateExisting: true,
		},
		Sandbox: SandboxConfig{
			Bwrap:        DefaultBwrap,
			Command:      DefaultCommand,
			ShareNetwork: true,
		},
		Bus: BusConfig{
			Timeout: Duration(DefaultTimeout),
		},
	}
}

// ConfigDir returns the wechat-universal config directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppName)
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// BindsConfigPath returns the default binds config file.
func BindsConfigPath() string {
	return filepath.Join(ConfigDir(), "binds.list")
}

// RuntimeDir returns the per-user runtime directory for session state.
// Uses XDG_RUNTIME_DIR if set, otherwise /run/user/<uid>.
func RuntimeDir() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = filepath.Join("/run/user", fmt.Sprint(os.Getuid()))
	}
	return filepath.Join(runtimeDir, AppName)
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides start settings from the environment. CUSTOM_BINDS is
// not handled here; it is appended to the bind list by the caller.
func (c *Config) ApplyEnv(getenv func(string) string, logger *slog.Logger) {
	if v := getenv(EnvDataDir); v != "" {
		c.Start.DataDir = v
	}
	if v := getenv(EnvBindsConfig); v != "" {
		c.Start.BindsConfig = v
	}
	if v := getenv(EnvIME); v != "" {
		ime.Update(&c.Start.IME, v, logger)
	}
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ExpandHome makes path absolute by joining relative paths onto home.
func ExpandHome(path, home string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(home, path)
}
