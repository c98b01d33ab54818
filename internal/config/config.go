package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// NOTE: Load creates the file with defaults on first run; Save always writes
// atomically with 0600 permissions since the file may hold credentials.

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// RedisConfig holds the connection settings of the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	// KeyPrefix is prepended to every key, e.g. "raidsched:".
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

// StorageConfig selects where schedules are persisted.
type StorageConfig struct {
	// Backend is one of "memory", "file" (default) or "redis".
	Backend string `yaml:"backend" json:"backend"`
	// Dir is the data directory of the file backend.
	Dir   string      `yaml:"dir" json:"dir"`
	Redis RedisConfig `yaml:"redis" json:"redis"`
}

// DigestConfig describes the periodic "next raids" announcement.
type DigestConfig struct {
	// Cron is a standard 5-field cron expression. Empty disables the digest.
	Cron string `yaml:"cron" json:"cron"`
	// Count is the number of raids announced per community.
	Count int `yaml:"count" json:"count"`
	// Timezone overrides each community's default zone when set.
	Timezone    string   `yaml:"timezone" json:"timezone"`
	Communities []string `yaml:"communities" json:"communities"`
	// WebhookURL receives the digest as JSON. Empty means log only.
	WebhookURL string `yaml:"webhook_url" json:"webhook_url"`
}

// FeedConfig tunes the iCalendar export.
type FeedConfig struct {
	Name                string `yaml:"name" json:"name"`
	RaidDurationMinutes int    `yaml:"raid_duration_minutes" json:"raid_duration_minutes"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address of the API.
	Listen string `yaml:"listen" json:"listen"`

	// DefaultTimezone is the display zone of communities that never set one.
	DefaultTimezone string `yaml:"default_timezone" json:"default_timezone"`

	// LogLevel is one of "debug", "info" or "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	Storage StorageConfig `yaml:"storage" json:"storage"`
	Digest  DigestConfig  `yaml:"digest" json:"digest"`
	Feed    FeedConfig    `yaml:"feed" json:"feed"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.DefaultTimezone == "" {
		c.DefaultTimezone = "CET"
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = "info"
	}

	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		// Unknown or empty backend; fall back to files so data survives restarts.
		c.Storage.Backend = BackendFile
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "/var/lib/raidsched"
	}
	if c.Storage.Redis.Addr == "" {
		c.Storage.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Storage.Redis.KeyPrefix == "" {
		c.Storage.Redis.KeyPrefix = "raidsched:"
	}

	if c.Digest.Count <= 0 {
		c.Digest.Count = 3
	}
	if c.Digest.Communities == nil {
		c.Digest.Communities = []string{}
	}

	if c.Feed.RaidDurationMinutes <= 0 {
		c.Feed.RaidDurationMinutes = 180
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (parent directory created as needed) and returned.
//   - Otherwise the YAML is read and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path: parent directory 0700, temp file in the same
// directory, fsync, chmod 0600, rename.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".raidsched-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// BasicAuthEnabled reports whether both credentials are set.
func (c *Config) BasicAuthEnabled() bool {
	return c.BasicAuth != nil && c.BasicAuth.Username != "" && c.BasicAuth.Password != ""
}
