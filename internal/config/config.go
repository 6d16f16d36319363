// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config represents the tracker configuration that can be loaded from a JSON file.
// All fields are optional; missing values come from the environment or defaults.
type Config struct {
	// Server
	Port  int    `json:"port,omitempty"`  // HTTP listen port
	Store string `json:"store,omitempty"` // "memory" or "postgres"

	// Backends
	DatabaseURL   string `json:"database_url,omitempty"`   // PostgreSQL connection URL
	RedisURL      string `json:"redis_url,omitempty"`      // Redis URL for event publishing; empty disables events
	EventsChannel string `json:"events_channel,omitempty"` // Channel prefix for published events
	SeedFile      string `json:"seed_file,omitempty"`      // YAML roster loaded at startup

	// Tuning
	ReassignConcurrency int `json:"reassign_concurrency,omitempty"` // Parallel writes during orphan reassignment
	DefaultPageSize     int `json:"default_page_size,omitempty"`    // Candidate list page size when none is requested
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                8080,
		Store:               StoreMemory,
		EventsChannel:       "recruit-tracker",
		ReassignConcurrency: 4,
		DefaultPageSize:     10,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overlays environment variables onto c. Set variables win over file values.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	strs := map[string]*string{
		"DATABASE_URL":      &c.DatabaseURL,
		"REDIS_URL":         &c.RedisURL,
		"TRACKER_STORE":     &c.Store,
		"TRACKER_SEED_FILE": &c.SeedFile,
		"EVENTS_CHANNEL":    &c.EventsChannel,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"TRACKER_PORT":         &c.Port,
		"REASSIGN_CONCURRENCY": &c.ReassignConcurrency,
		"DEFAULT_PAGE_SIZE":    &c.DefaultPageSize,
	}
	for key, dst := range ints {
		v := getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %v", key, err)
		}
		*dst = n
	}
	return nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	switch c.Store {
	case "", StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("config error: 'store' must be %q or %q, got %q", StoreMemory, StorePostgres, c.Store)
	}
	if c.Store == StorePostgres && c.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' is required for the postgres store")
	}

	// Validate numeric ranges
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}
	if c.ReassignConcurrency < 0 {
		return fmt.Errorf("config error: 'reassign_concurrency' must be non-negative")
	}
	if c.DefaultPageSize < 0 || c.DefaultPageSize > 100 {
		return fmt.Errorf("config error: 'default_page_size' must be between 1 and 100")
	}

	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: seed file not found: %s", c.SeedFile)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Store == "" {
		result.Store = defaults.Store
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.EventsChannel == "" {
		result.EventsChannel = defaults.EventsChannel
	}
	if result.SeedFile == "" {
		result.SeedFile = defaults.SeedFile
	}

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.ReassignConcurrency == 0 {
		result.ReassignConcurrency = defaults.ReassignConcurrency
	}
	if result.DefaultPageSize == 0 {
		result.DefaultPageSize = defaults.DefaultPageSize
	}

	return result
}

// Load resolves the effective configuration: optional file, then environment,
// then defaults, then validation.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return Config{}, err
	}
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}
