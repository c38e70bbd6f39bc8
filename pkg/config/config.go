// Package config holds runtime configuration: defaults, an optional
// YAML overlay, and logger construction from the verbosity level.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Flag values override the
// YAML overlay, which overrides the struct defaults.
type Config struct {
	// ScanDuration is the passive collection window. Zero means scan
	// until interrupted.
	ScanDuration time.Duration `yaml:"scan_duration" default:"30s"`
	// ConnectTimeout bounds connection establishment during profiling.
	ConnectTimeout time.Duration `yaml:"connect_timeout" default:"30s"`
	// ScanOutput is the discovery summary destination.
	ScanOutput string `yaml:"scan_output" default:"config/discovered_devices.json"`
	// ProfileOutput is the device profile destination.
	ProfileOutput string `yaml:"profile_output" default:"config/device_profile.json"`
	// Adapter names the Bluetooth adapter (hci0, hci1, ...); empty
	// uses the system default.
	Adapter string `yaml:"adapter"`
	// Verbosity raises the log level: 0 warn, 1 info, 2+ debug.
	Verbosity int `yaml:"verbosity"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	defaults.SetDefaults(c)
	return c
}

// Load returns the defaults overlaid with the YAML file at path. An
// empty path skips the overlay; a missing or malformed file is an
// error so a typoed --config does not silently run on defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// UnmarshalYAML decodes an overlay document. Durations are written in
// Go syntax ("30s", "2m"); keys absent from the document keep their
// current values.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ScanDuration   *string `yaml:"scan_duration"`
		ConnectTimeout *string `yaml:"connect_timeout"`
		ScanOutput     *string `yaml:"scan_output"`
		ProfileOutput  *string `yaml:"profile_output"`
		Adapter        *string `yaml:"adapter"`
		Verbosity      *int    `yaml:"verbosity"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.ScanDuration != nil {
		d, err := time.ParseDuration(*raw.ScanDuration)
		if err != nil {
			return fmt.Errorf("scan_duration: %w", err)
		}
		c.ScanDuration = d
	}
	if raw.ConnectTimeout != nil {
		d, err := time.ParseDuration(*raw.ConnectTimeout)
		if err != nil {
			return fmt.Errorf("connect_timeout: %w", err)
		}
		c.ConnectTimeout = d
	}
	if raw.ScanOutput != nil {
		c.ScanOutput = *raw.ScanOutput
	}
	if raw.ProfileOutput != nil {
		c.ProfileOutput = *raw.ProfileOutput
	}
	if raw.Adapter != nil {
		c.Adapter = *raw.Adapter
	}
	if raw.Verbosity != nil {
		c.Verbosity = *raw.Verbosity
	}
	return nil
}

// LogLevel maps the counted verbosity to a logrus level.
func (c *Config) LogLevel() logrus.Level {
	switch {
	case c.Verbosity <= 0:
		return logrus.WarnLevel
	case c.Verbosity == 1:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

// NewLogger creates a configured logger instance.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger
}
