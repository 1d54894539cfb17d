// Package config provides the configuration structure for the announcer
// service. Values come from a TOML file, overridden by environment variables,
// overridden in turn by command-line flags in the entrypoint.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// Built-in defaults, matching the service's historical deployment.
const (
	DefaultHost       = "0.0.0.0"
	DefaultPort       = 4684
	DefaultStaticRoot = "static"
	DefaultNaming     = "unique"
	DefaultRateDelta  = -20
	DefaultTimeout    = 30
	DefaultLanguage   = "en"
	DefaultTLD        = "com"
	DefaultLogLevel   = "info"
)

// ServerConfig holds the HTTP bind and URL settings.
type ServerConfig struct {
	Host string `toml:"host" env:"ANNOUNCER_HOST"`
	Port int    `toml:"port" env:"ANNOUNCER_PORT"`

	// ExternalBaseURL is the configured default base for returned file
	// links, e.g. "http://gallery.example.com:4648". Empty means derive
	// the base from each inbound request.
	ExternalBaseURL string `toml:"external_base_url" env:"ANNOUNCER_EXTERNAL_BASE_URL"`

	// StaticRoot is the directory served under /static; artifacts live in
	// its audio/ subdirectory.
	StaticRoot string `toml:"static_root" env:"ANNOUNCER_STATIC_ROOT"`
}

// EngineConfig holds the speech engine selection and voice preferences.
type EngineConfig struct {
	// Variant is "espeak" (offline) or "translate" (cloud).
	Variant string `toml:"variant" env:"ANNOUNCER_ENGINE"`

	// Voice selects an offline voice by case-insensitive substring.
	Voice string `toml:"voice" env:"ANNOUNCER_VOICE"`

	// VoiceIndex selects an offline voice by enumeration index and beats
	// Voice when set.
	VoiceIndex *int `toml:"voice_index" env:"ANNOUNCER_VOICE_INDEX"`

	// RateDelta adjusts the offline engine's default speech rate.
	RateDelta int `toml:"rate_delta" env:"ANNOUNCER_RATE_DELTA"`

	// Language and TLD configure the cloud variant.
	Language string `toml:"language" env:"ANNOUNCER_LANGUAGE"`
	TLD      string `toml:"tld" env:"ANNOUNCER_TLD"`

	TimeoutSeconds int `toml:"timeout_seconds" env:"ANNOUNCER_TIMEOUT_SECONDS"`
}

// ArtifactConfig holds the caching policy settings.
type ArtifactConfig struct {
	// Naming is "unique" (fresh file per request) or "reuse" (cache by
	// action and identifier).
	Naming string `toml:"naming" env:"ANNOUNCER_NAMING"`

	// ForceDefault regenerates reuse-policy artifacts on every request.
	ForceDefault bool `toml:"force_default" env:"ANNOUNCER_FORCE_DEFAULT"`
}

// NATSConfig holds the optional event publishing settings. An empty URL
// disables publishing.
type NATSConfig struct {
	URL     string `toml:"url" env:"ANNOUNCER_NATS_URL"`
	Subject string `toml:"subject" env:"ANNOUNCER_NATS_SUBJECT"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" env:"ANNOUNCER_LOG_LEVEL"`
}

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig   `toml:"server"`
	Engine    EngineConfig   `toml:"engine"`
	Artifacts ArtifactConfig `toml:"artifacts"`
	NATS      NATSConfig     `toml:"nats"`
	Log       LogConfig      `toml:"log"`
}

// Default returns a configuration with all built-in defaults applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:       DefaultHost,
			Port:       DefaultPort,
			StaticRoot: DefaultStaticRoot,
		},
		Engine: EngineConfig{
			Variant:        "espeak",
			RateDelta:      DefaultRateDelta,
			Language:       DefaultLanguage,
			TLD:            DefaultTLD,
			TimeoutSeconds: DefaultTimeout,
		},
		Artifacts: ArtifactConfig{
			Naming: DefaultNaming,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load builds the configuration: defaults, then the TOML file at path (if
// any), then environment overrides. An empty path skips the file layer; a
// missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
		}
	}

	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	err = cfg.validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validation errors.
var (
	ErrPortRange = errors.New("port must be between 1 and 65535")
)

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: got %d", ErrPortRange, c.Server.Port)
	}

	return nil
}
