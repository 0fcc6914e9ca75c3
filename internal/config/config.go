// Package config loads and saves the tally configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/tally/internal/retry"

	"github.com/BurntSushi/toml"
)

// Config holds all tally configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Remote     RemoteConfig     `toml:"remote"`
	Retry      RetryConfig      `toml:"retry"`
	Server     ServerConfig     `toml:"server"`
	Appearance AppearanceConfig `toml:"appearance"`
	Logging    LoggingConfig    `toml:"logging"`
}

// GeneralConfig holds the local database and signed-in user.
type GeneralConfig struct {
	DBPath string `toml:"db_path,omitempty"`
	UserID string `toml:"user_id,omitempty"`
}

// RemoteConfig points the CLI at a tally server instead of a local
// database.
type RemoteConfig struct {
	URL        string `toml:"url,omitempty"`
	Token      string `toml:"token,omitempty"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// RetryConfig bounds retries of reads.
type RetryConfig struct {
	Attempts       int `toml:"attempts"`
	InitialDelayMS int `toml:"initial_delay_ms"`
}

// ServerConfig configures `tally serve`.
type ServerConfig struct {
	Addr  string `toml:"addr"`
	Token string `toml:"token,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LoggingConfig selects the log level and format (text or json).
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Remote: RemoteConfig{TimeoutSec: 10},
		Retry: RetryConfig{
			Attempts:       retry.DefaultAttempts,
			InitialDelayMS: int(retry.DefaultInitialDelay / time.Millisecond),
		},
		Server: ServerConfig{Addr: "127.0.0.1:8787"},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Logging: LoggingConfig{Level: "warn", Format: "text"},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tally")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tally")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "tally")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "tally")
}

// DBPath returns the configured database path or the default one.
func (c Config) DBPath() string {
	if c.General.DBPath != "" {
		return c.General.DBPath
	}
	return filepath.Join(DataDir(), "tally.db")
}

// RetryPolicy converts the retry section into a retry.Policy.
func (c Config) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	if c.Retry.Attempts > 0 {
		p.Attempts = c.Retry.Attempts
	}
	if c.Retry.InitialDelayMS > 0 {
		p.InitialDelay = time.Duration(c.Retry.InitialDelayMS) * time.Millisecond
	}
	return p
}

// RemoteTimeout returns the per-request timeout of the remote client.
func (c Config) RemoteTimeout() time.Duration {
	if c.Remote.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Remote.TimeoutSec) * time.Second
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

// LoadFile reads the config file as stored, without environment
// overrides. Use it for read-modify-write of the file.
func LoadFile() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("TALLY_USER")); v != "" {
		cfg.General.UserID = v
	}
	if v := strings.TrimSpace(os.Getenv("TALLY_REMOTE_URL")); v != "" {
		cfg.Remote.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("TALLY_TOKEN")); v != "" {
		cfg.Remote.Token = v
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
