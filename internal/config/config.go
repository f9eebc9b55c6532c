// Package config resolves the effective session and log level.
//
// Values are layered, later layers winning: built-in defaults, an optional
// YAML file, CTIM_* environment variables, then command-line overrides
// applied with Override.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/session"
)

// Environment variables.
const (
	EnvExternalIDPrefix = "CTIM_EXTERNAL_ID_PREFIX"
	EnvSource           = "CTIM_SOURCE"
	EnvSourceURI        = "CTIM_SOURCE_URI"
	EnvLogLevel         = "CTIM_LOG_LEVEL"
)

// Config holds the settings of one run.
type Config struct {
	Session  session.Session `yaml:"session"`
	LogLevel string          `yaml:"log_level"` // debug, info, warn or error (default: warn)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Session:  session.Default(),
		LogLevel: "warn",
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays YAML onto c. Keys left out of the file keep their current
// values; unknown keys are rejected.
func (c *Config) decode(data []byte) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Session.ExternalIDPrefix = getEnv(EnvExternalIDPrefix, c.Session.ExternalIDPrefix)
	c.Session.Source = getEnv(EnvSource, c.Session.Source)
	c.Session.SourceURI = getEnv(EnvSourceURI, c.Session.SourceURI)
	c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)
}

// Override replaces the session components that are non-empty.
func (c *Config) Override(externalIDPrefix, source, sourceURI string) {
	if externalIDPrefix != "" {
		c.Session.ExternalIDPrefix = externalIDPrefix
	}
	if source != "" {
		c.Session.Source = source
	}
	if sourceURI != "" {
		c.Session.SourceURI = sourceURI
	}
}

// Validate checks the session and the log level.
func (c *Config) Validate() error {
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("config: invalid session: %w", err)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
