package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the overlay reads.
const EnvPrefix = "TRADEPORTAL_"

// Config is the complete portal configuration.
type Config struct {
	User   UserConfig   `json:"user" yaml:"user"`
	Local  LocalConfig  `json:"local" yaml:"local"`
	Remote RemoteConfig `json:"remote" yaml:"remote"`
	Sync   SyncConfig   `json:"sync" yaml:"sync"`
	Log    LogConfig    `json:"log" yaml:"log"`
	Server ServerConfig `json:"server" yaml:"server"`
}

// UserConfig identifies the signed-in user. An empty ID means local-only.
type UserConfig struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty" env:"USER_ID"`
	Email string `json:"email,omitempty" yaml:"email,omitempty" env:"USER_EMAIL"`
}

// LocalConfig selects the device-side store.
type LocalConfig struct {
	Type          string `json:"type" yaml:"type" env:"LOCAL_TYPE"` // "sqlite", "file", "redis" or "memory"
	Path          string `json:"path,omitempty" yaml:"path,omitempty" env:"LOCAL_PATH"`
	Dir           string `json:"dir,omitempty" yaml:"dir,omitempty"`
	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty" env:"REDIS_ADDR"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty" env:"REDIS_PASSWORD"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
	RedisPrefix   string `json:"redis_prefix,omitempty" yaml:"redis_prefix,omitempty"`
}

// RemoteConfig selects the cloud backend.
type RemoteConfig struct {
	Type         string `json:"type" yaml:"type" env:"REMOTE_TYPE"` // "none", "rest" or "postgres"
	URL          string `json:"url,omitempty" yaml:"url,omitempty" env:"REMOTE_URL"`
	APIKey       string `json:"api_key,omitempty" yaml:"api_key,omitempty" env:"REMOTE_KEY"`
	AccessToken  string `json:"access_token,omitempty" yaml:"access_token,omitempty" env:"REMOTE_TOKEN"`
	DSN          string `json:"dsn,omitempty" yaml:"dsn,omitempty" env:"DB_DSN"`
	MaxOpenConns int    `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`
}

// SyncConfig holds the online/offline timings as duration strings, e.g.
// "10s" or "1m".
type SyncConfig struct {
	InitialTimeout string `json:"initial_timeout" yaml:"initial_timeout"`
	RetryDelay     string `json:"retry_delay" yaml:"retry_delay"`
	RetryTimeout   string `json:"retry_timeout" yaml:"retry_timeout"`
	WriteTimeout   string `json:"write_timeout" yaml:"write_timeout"`
	ProbeInterval  string `json:"probe_interval" yaml:"probe_interval"`
	ProbeTimeout   string `json:"probe_timeout" yaml:"probe_timeout"`
}

// SyncDurations is SyncConfig with every value parsed.
type SyncDurations struct {
	InitialTimeout time.Duration
	RetryDelay     time.Duration
	RetryTimeout   time.Duration
	WriteTimeout   time.Duration
	ProbeInterval  time.Duration
	ProbeTimeout   time.Duration
}

// ParseDurations converts the duration strings. Empty values are zero.
func (s SyncConfig) ParseDurations() (SyncDurations, error) {
	var out SyncDurations
	fields := []struct {
		name string
		val  string
		dst  *time.Duration
	}{
		{"initial_timeout", s.InitialTimeout, &out.InitialTimeout},
		{"retry_delay", s.RetryDelay, &out.RetryDelay},
		{"retry_timeout", s.RetryTimeout, &out.RetryTimeout},
		{"write_timeout", s.WriteTimeout, &out.WriteTimeout},
		{"probe_interval", s.ProbeInterval, &out.ProbeInterval},
		{"probe_timeout", s.ProbeTimeout, &out.ProbeTimeout},
	}
	for _, f := range fields {
		if f.val == "" {
			continue
		}
		d, err := time.ParseDuration(f.val)
		if err != nil {
			return out, fmt.Errorf("sync.%s: %w", f.name, err)
		}
		if d < 0 {
			return out, fmt.Errorf("sync.%s must not be negative", f.name)
		}
		*f.dst = d
	}
	return out, nil
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `json:"level" yaml:"level" env:"LOG_LEVEL"`
	Encoding    string `json:"encoding" yaml:"encoding" env:"LOG_ENCODING"` // "json" or "console"
	Development bool   `json:"development,omitempty" yaml:"development,omitempty"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" env:"SERVER_ADDR"`
}

// Load reads path when it exists, falls back to defaults otherwise, then
// applies the environment overlay and validates.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fromFile, err := readFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			cfg = fromFile
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON)
// without the environment overlay.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Missing sections keep their defaults.
	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	return cfg, nil
}

// ApplyEnv overwrites fields from TRADEPORTAL_* environment variables.
// Unset variables leave the current value alone.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Local.Type {
	case "sqlite":
		if c.Local.Path == "" {
			return fmt.Errorf("local.path required for sqlite store")
		}
	case "file":
		if c.Local.Dir == "" {
			return fmt.Errorf("local.dir required for file store")
		}
	case "redis":
		if c.Local.RedisAddr == "" {
			return fmt.Errorf("local.redis_addr required for redis store")
		}
	case "memory":
	default:
		return fmt.Errorf("local.type must be 'sqlite', 'file', 'redis' or 'memory'")
	}

	switch c.Remote.Type {
	case "", "none":
	case "rest":
		if c.Remote.URL == "" || c.Remote.APIKey == "" {
			return fmt.Errorf("remote url and api_key required for rest backend")
		}
	case "postgres":
		if c.Remote.DSN == "" {
			return fmt.Errorf("remote.dsn required for postgres backend")
		}
	default:
		return fmt.Errorf("remote.type must be 'none', 'rest' or 'postgres'")
	}

	if _, err := c.Sync.ParseDurations(); err != nil {
		return err
	}

	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("log.encoding must be 'json' or 'console'")
	}
	return nil
}

// RemoteEnabled reports whether a backend is configured.
func (c *Config) RemoteEnabled() bool {
	return c.Remote.Type != "" && c.Remote.Type != "none"
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Local: LocalConfig{
			Type:        "sqlite",
			Path:        "./tradeportal.db",
			Dir:         "./tradeportal-data",
			RedisPrefix: "tradeportal:",
		},
		Remote: RemoteConfig{
			Type:         "none",
			MaxOpenConns: 5,
		},
		Sync: SyncConfig{
			InitialTimeout: "10s",
			RetryDelay:     "2s",
			RetryTimeout:   "5s",
			WriteTimeout:   "10s",
			ProbeInterval:  "60s",
			ProbeTimeout:   "3s",
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
