// Package config holds the explicit run configuration. Callers load it
// once and pass it by value; no package in this module reads global
// settings behind the caller's back.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// StorageConfig selects an optional database export target.
type StorageConfig struct {
	// Kind names a registered backend ("postgres", "sqlite", "mssql",
	// "mysql"). Empty disables export.
	Kind string `json:"kind"`
	DSN  string `json:"dsn"`
	// TablePrefix is prepended to per-file table names.
	TablePrefix string `json:"table_prefix"`
}

// MetricsConfig selects an optional metrics backend.
type MetricsConfig struct {
	// Backend is "datadog" or "none"/empty.
	Backend string `json:"backend"`
	// Tags are extra backend tags as "k:v,k:v".
	Tags string `json:"tags"`
}

// Config is the full run configuration.
type Config struct {
	SourcesDir string `json:"sources_dir"`
	StagingDir string `json:"staging_dir"`
	OutputDir  string `json:"output_dir"`

	Storage StorageConfig `json:"storage"`
	Metrics MetricsConfig `json:"metrics"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		SourcesDir: "data/sources",
		StagingDir: "data/staging",
		OutputDir:  "data/output",
	}
}

// Load reads a JSON config file and applies environment overrides. A
// missing file is not an error; defaults are used. A present but
// malformed file is an error.
//
// A .env file next to the config (or in the working directory) is
// loaded first, so DSNs can live outside version control.
func Load(path string) (Config, error) {
	// Best effort; a missing .env is the normal case.
	_ = godotenv.Load()
	if path != "" {
		_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	}

	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// fall through to defaults
		case err != nil:
			return Config{}, fmt.Errorf("config: open %s: %w", path, err)
		default:
			defer f.Close()
			dec := json.NewDecoder(f)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&cfg); err != nil {
				return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets the environment override the file. DSNs in particular
// are expected to arrive this way in deployments.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TABULAR_SOURCES_DIR"); v != "" {
		cfg.SourcesDir = v
	}
	if v := os.Getenv("TABULAR_STAGING_DIR"); v != "" {
		cfg.StagingDir = v
	}
	if v := os.Getenv("TABULAR_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("TABULAR_STORAGE_KIND"); v != "" {
		cfg.Storage.Kind = v
	}
	if v := os.Getenv("TABULAR_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("TABULAR_METRICS_BACKEND"); v != "" {
		cfg.Metrics.Backend = v
	}
	if v := os.Getenv("TABULAR_METRICS_TAGS"); v != "" {
		cfg.Metrics.Tags = v
	}
}

// Save writes the configuration as indented JSON.
func (c Config) Save(path string) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	b = append(b, '\n')
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate checks directory fields are set. It does not create them.
func (c Config) Validate() error {
	if c.SourcesDir == "" {
		return fmt.Errorf("config: sources_dir is empty")
	}
	if c.StagingDir == "" {
		return fmt.Errorf("config: staging_dir is empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("config: output_dir is empty")
	}
	return nil
}
