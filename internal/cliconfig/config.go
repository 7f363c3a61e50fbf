package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/qoncrete/qoncrete-go"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "QONCRETE_"

// Config holds CLI configuration for qoncrete.
type Config struct {
	SourceID string
	APIToken string

	SecureTransport bool
	CacheDNS        bool
	ServiceURL      string

	TimeoutAfter   time.Duration
	RetryOnTimeout int

	AutoBatch     bool
	BatchSize     int
	AutoSendAfter time.Duration
	Concurrency   int
	MaxPending    int

	LogLevel string
}

// DefaultConfig returns a Config with the client defaults.
func DefaultConfig() Config {
	d := qoncrete.DefaultConfig()
	return Config{
		CacheDNS:       d.CacheDNS,
		TimeoutAfter:   d.TimeoutAfter,
		RetryOnTimeout: d.RetryOnTimeout,
		AutoBatch:      d.AutoBatch,
		BatchSize:      d.BatchSize,
		AutoSendAfter:  d.AutoSendAfter,
		Concurrency:    d.Concurrency,
		LogLevel:       zerolog.InfoLevel.String(),
	}
}

// Validate checks the CLI-only settings. Client settings are checked by
// qoncrete.New.
func (c *Config) Validate() error {
	if c.SourceID == "" {
		return fmt.Errorf("source-id is required")
	}
	if c.APIToken == "" {
		return fmt.Errorf("api-token is required (or %sAPI_TOKEN)", EnvPrefix)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	return nil
}

// ClientConfig converts the CLI configuration to a client configuration.
func (c Config) ClientConfig() qoncrete.Config {
	cfg := qoncrete.DefaultConfig()
	cfg.SourceID = c.SourceID
	cfg.APIToken = c.APIToken
	cfg.SecureTransport = c.SecureTransport
	cfg.CacheDNS = c.CacheDNS
	cfg.ServiceURL = c.ServiceURL
	cfg.TimeoutAfter = c.TimeoutAfter
	cfg.RetryOnTimeout = c.RetryOnTimeout
	cfg.AutoBatch = c.AutoBatch
	cfg.BatchSize = c.BatchSize
	cfg.AutoSendAfter = c.AutoSendAfter
	cfg.Concurrency = c.Concurrency
	cfg.MaxPending = c.MaxPending
	return cfg
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	if c.APIToken != "" {
		c.APIToken = "*****"
	}
	return c
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setCount sets an int value where zero is meaningful (retries, limits).
func (s *configSetter) setCount(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if
// positive. Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setCountFromString is setIntFromString accepting zero.
func (s *configSetter) setCountFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 {
		return fmt.Errorf("parse %s: must not be negative", flag)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
