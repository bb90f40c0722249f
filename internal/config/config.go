// Package config loads the gallery configuration: compiled-in defaults,
// optionally overridden by a TOML file, plus the GitHub credential from the
// process environment (a local .env file is honoured when present).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// TokenEnvVar is the environment variable carrying the GitHub credential.
const TokenEnvVar = "GITHUB_TOKEN"

// Config holds every tunable of the pipeline. All fields have working
// defaults; a config file only needs to override what differs.
type Config struct {
	// Source index repository holding one markdown descriptor per theme.
	IndexOwner string `toml:"index_owner"`
	IndexRepo  string `toml:"index_repo"`
	IndexPath  string `toml:"index_path"`

	// Base URL prefixed onto relative thumbnail references.
	MediaBaseURL string `toml:"media_base_url"`

	// Where the consolidated artifact is written.
	OutputPath string `toml:"output_path"`

	// Bulk stats enrichment.
	BulkBatchSize int `toml:"bulk_batch_size"`

	// Interactive refresh path.
	RefreshBatchSize   int      `toml:"refresh_batch_size"`
	RefreshBatchDelay  Duration `toml:"refresh_batch_delay"`
	RefreshMaxAttempts int      `toml:"refresh_max_attempts"`

	// Applied to every outbound call.
	RequestTimeout Duration `toml:"request_timeout"`
}

// Duration is a time.Duration that unmarshals from TOML strings like "30s".
type Duration time.Duration

// UnmarshalText implements toml's text unmarshaling for durations.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the plain time.Duration value.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration for the upstream Typora theme index.
func Default() Config {
	return Config{
		IndexOwner:         "typora",
		IndexRepo:          "theme.typora.io",
		IndexPath:          "_posts/theme",
		MediaBaseURL:       "https://theme.typora.io/media/",
		OutputPath:         "themes.json",
		BulkBatchSize:      50,
		RefreshBatchSize:   5,
		RefreshBatchDelay:  Duration(time.Second),
		RefreshMaxAttempts: 2,
		RequestTimeout:     Duration(30 * time.Second),
	}
}

// Load returns the default configuration, overlaid with path's contents when
// path is non-empty. A missing explicit file is an error; defaults are only
// silently used when no file was asked for.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// Token reads the GitHub credential from the environment, loading a .env
// file first if one exists alongside the process.
func Token() string {
	_ = godotenv.Load()
	return os.Getenv(TokenEnvVar)
}
