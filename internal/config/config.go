// Package config loads tracker configuration from the project config
// file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Dir is the project-local directory holding the database, config
// file, and advisory lock.
const Dir = ".deltatrack"

// FileName is the config file name inside Dir.
const FileName = "config.yaml"

// Config holds tracker configuration
type Config struct {
	// DatabasePath is the SQLite database file path
	// Default: .deltatrack/dt.db
	DatabasePath string `yaml:"database_path"`

	// Actor is the name recorded in audit events
	// Default: $USER, falling back to "unknown"
	Actor string `yaml:"actor"`

	// DedupThreshold is the minimum title similarity score (0..1) at
	// which backlog capture surfaces potential duplicates
	// Default: 0.4
	DedupThreshold float64 `yaml:"dedup_threshold"`

	// RecommendTopN is how many items the recommendation listing shows
	// Default: 5, Range: 1-100
	RecommendTopN int `yaml:"recommend_top_n"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	actor := os.Getenv("USER")
	if actor == "" {
		actor = "unknown"
	}
	return &Config{
		DatabasePath:   filepath.Join(Dir, "dt.db"),
		Actor:          actor,
		DedupThreshold: 0.4,
		RecommendTopN:  5,
	}
}

// Load reads the config file under root (if present) over the defaults,
// then applies environment overrides. A missing config file is not an
// error; the defaults apply.
func Load(root string) (*Config, error) {
	cfg := DefaultConfig()

	path := filepath.Join(root, Dir, FileName)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if v := os.Getenv("DT_DB"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("DT_ACTOR"); v != "" {
		cfg.Actor = v
	}
	if v := os.Getenv("DT_DEDUP_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid DT_DEDUP_THRESHOLD: %w", err)
		}
		cfg.DedupThreshold = f
	}
	if v := os.Getenv("DT_RECOMMEND_TOP_N"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid DT_RECOMMEND_TOP_N: %w", err)
		}
		cfg.RecommendTopN = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config file under root, creating the directory if
// needed.
func (c *Config) Save(root string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Validate checks if the configuration has valid values
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.Actor == "" {
		return fmt.Errorf("actor is required")
	}
	if c.DedupThreshold < 0 || c.DedupThreshold > 1 {
		return fmt.Errorf("dedup_threshold must be between 0 and 1 (got %g)", c.DedupThreshold)
	}
	if c.RecommendTopN < 1 || c.RecommendTopN > 100 {
		return fmt.Errorf("recommend_top_n must be between 1 and 100 (got %d)", c.RecommendTopN)
	}
	return nil
}
