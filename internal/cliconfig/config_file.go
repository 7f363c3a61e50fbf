package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
// Pointers distinguish an explicit zero or false from an absent key.
type FileConfig struct {
	SourceID        string `toml:"source_id"`
	APIToken        string `toml:"api_token"`
	SecureTransport *bool  `toml:"secure"`
	CacheDNS        *bool  `toml:"cache_dns"`
	ServiceURL      string `toml:"service_url"`
	TimeoutAfter    string `toml:"timeout"`
	RetryOnTimeout  *int   `toml:"retry_on_timeout"`
	AutoBatch       *bool  `toml:"auto_batch"`
	BatchSize       int    `toml:"batch_size"`
	AutoSendAfter   string `toml:"auto_send_after"`
	Concurrency     int    `toml:"concurrency"`
	MaxPending      *int   `toml:"max_pending"`
	LogLevel        string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.qoncrete/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".qoncrete", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("source-id", fc.SourceID, &cfg.SourceID)
	s.setString("api-token", fc.APIToken, &cfg.APIToken)
	s.setString("service-url", fc.ServiceURL, &cfg.ServiceURL)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setBool("secure", fc.SecureTransport, &cfg.SecureTransport)
	s.setBool("cache-dns", fc.CacheDNS, &cfg.CacheDNS)
	s.setBool("auto-batch", fc.AutoBatch, &cfg.AutoBatch)

	if err := s.setDuration("timeout", fc.TimeoutAfter, &cfg.TimeoutAfter); err != nil {
		return err
	}
	if err := s.setDuration("auto-send-after", fc.AutoSendAfter, &cfg.AutoSendAfter); err != nil {
		return err
	}

	s.setInt("batch-size", fc.BatchSize, &cfg.BatchSize)
	s.setInt("concurrency", fc.Concurrency, &cfg.Concurrency)
	s.setCount("retry-on-timeout", fc.RetryOnTimeout, &cfg.RetryOnTimeout)
	s.setCount("max-pending", fc.MaxPending, &cfg.MaxPending)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
