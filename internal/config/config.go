// Package config loads editor and service settings from TOML or YAML files
// with QUIRE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Ignore store kinds.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config is the full settings tree.
type Config struct {
	Document DocumentConfig `toml:"document" yaml:"document"`
	Suggest  SuggestConfig  `toml:"suggest" yaml:"suggest"`
	History  HistoryConfig  `toml:"history" yaml:"history"`
	Ignore   IgnoreConfig   `toml:"ignore" yaml:"ignore"`
	Log      LogConfig      `toml:"log" yaml:"log"`
	Metrics  MetricsConfig  `toml:"metrics" yaml:"metrics"`
	Spelld   SpelldConfig   `toml:"spelld" yaml:"spelld"`
}

// DocumentConfig locates the persisted document.
type DocumentConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// SuggestConfig configures the suggestion overlay and its channel.
type SuggestConfig struct {
	// URL is the WebSocket endpoint. Empty disables suggestions.
	URL        string `toml:"url" yaml:"url"`
	DebounceMs int    `toml:"debounce_ms" yaml:"debounce_ms"`
	QueueSize  int    `toml:"queue_size" yaml:"queue_size"`
}

// HistoryConfig configures undo grouping.
type HistoryConfig struct {
	GroupDelayMs int `toml:"group_delay_ms" yaml:"group_delay_ms"`
	Depth        int `toml:"depth" yaml:"depth"`
}

// IgnoreConfig selects where the ignore list is persisted.
type IgnoreConfig struct {
	Store     string `toml:"store" yaml:"store"`
	Path      string `toml:"path" yaml:"path"`
	RedisAddr string `toml:"redis_addr" yaml:"redis_addr"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// MetricsConfig sets the /metrics listen address. Empty disables it.
type MetricsConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// SpelldConfig configures the stub spelling service.
type SpelldConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
	// Dictionary maps misspellings to candidate corrections.
	Dictionary map[string][]string `toml:"dictionary" yaml:"dictionary"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Document: DocumentConfig{Path: filepath.Join(dataDir(), "document.json")},
		Suggest:  SuggestConfig{DebounceMs: 400, QueueSize: 64},
		History:  HistoryConfig{GroupDelayMs: 500, Depth: 100},
		Ignore:   IgnoreConfig{Store: StoreFile, Path: filepath.Join(dataDir(), "ignore.json")},
		Log:      LogConfig{Level: "info"},
		Spelld: SpelldConfig{
			Addr: "127.0.0.1:7070",
			Dictionary: map[string][]string{
				"teh":     {"the"},
				"recieve": {"receive"},
			},
		},
	}
}

func dataDir() string {
	if v := os.Getenv("QUIRE_DATA_DIR"); v != "" {
		return v
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "quire")
	}
	return ".quire"
}

// Load reads path on top of the defaults. A missing file yields defaults.
// Environment overrides are applied and the result validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := decode(path, data, cfg); err != nil {
				return nil, err
			}
		}
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies QUIRE_* variables.
func (c *Config) ApplyEnvOverrides() error {
	strs := map[string]*string{
		"QUIRE_DOCUMENT_PATH": &c.Document.Path,
		"QUIRE_SUGGEST_URL":   &c.Suggest.URL,
		"QUIRE_IGNORE_STORE":  &c.Ignore.Store,
		"QUIRE_IGNORE_PATH":   &c.Ignore.Path,
		"QUIRE_REDIS_ADDR":    &c.Ignore.RedisAddr,
		"QUIRE_LOG_LEVEL":     &c.Log.Level,
		"QUIRE_METRICS_ADDR":  &c.Metrics.Addr,
		"QUIRE_SPELLD_ADDR":   &c.Spelld.Addr,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	ints := map[string]*int{
		"QUIRE_DEBOUNCE_MS":            &c.Suggest.DebounceMs,
		"QUIRE_HISTORY_GROUP_DELAY_MS": &c.History.GroupDelayMs,
		"QUIRE_HISTORY_DEPTH":          &c.History.Depth,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

// Validate checks ranges and required combinations.
func (c *Config) Validate() error {
	if c.Suggest.DebounceMs < 0 {
		return fmt.Errorf("suggest.debounce_ms must not be negative")
	}
	if c.Suggest.QueueSize < 1 {
		return fmt.Errorf("suggest.queue_size must be at least 1")
	}
	if c.History.GroupDelayMs < 0 {
		return fmt.Errorf("history.group_delay_ms must not be negative")
	}
	if c.History.Depth < 1 {
		return fmt.Errorf("history.depth must be at least 1")
	}
	switch c.Ignore.Store {
	case StoreFile:
		if c.Ignore.Path == "" {
			return fmt.Errorf("ignore.path is required for the file store")
		}
	case StoreRedis:
		if c.Ignore.RedisAddr == "" {
			return fmt.Errorf("ignore.redis_addr is required for the redis store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown ignore.store %q", c.Ignore.Store)
	}
	return nil
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Suggest.DebounceMs) * time.Millisecond
}

func (c *Config) GroupDelay() time.Duration {
	return time.Duration(c.History.GroupDelayMs) * time.Millisecond
}
