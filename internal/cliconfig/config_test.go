package cliconfig

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

const (
	testSource = "0b7ac4e6-3a1f-4c5d-9e2b-8f6a1d2c3b4e"
	testToken  = "5f0e9d8c-7b6a-4954-a3b2-c1d0e9f8a7b6"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SecureTransport {
		t.Error("SecureTransport = true, want false")
	}
	if !cfg.CacheDNS {
		t.Error("CacheDNS = false, want true")
	}
	if cfg.TimeoutAfter != 15*time.Second {
		t.Errorf("TimeoutAfter = %v, want 15s", cfg.TimeoutAfter)
	}
	if cfg.BatchSize != 1000 {
		t.Errorf("BatchSize = %v, want 1000", cfg.BatchSize)
	}
	if cfg.Concurrency != 200 {
		t.Errorf("Concurrency = %v, want 200", cfg.Concurrency)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing source id", func(c *Config) { c.SourceID = "" }, true},
		{"missing api token", func(c *Config) { c.APIToken = "" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"debug log level", func(c *Config) { c.LogLevel = "debug" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.SourceID = testSource
			cfg.APIToken = testToken
			tt.modify(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ClientConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SourceID = testSource
	cfg.APIToken = testToken
	cfg.SecureTransport = true
	cfg.RetryOnTimeout = 0
	cfg.BatchSize = 50
	cfg.MaxPending = 10000
	cfg.ServiceURL = "http://localhost:8080"

	cc := cfg.ClientConfig()
	if err := cc.Validate(); err != nil {
		t.Fatalf("client config invalid: %v", err)
	}
	if cc.SourceID != testSource || cc.APIToken != testToken {
		t.Errorf("credentials not copied: %+v", cc)
	}
	if !cc.SecureTransport {
		t.Error("SecureTransport not copied")
	}
	if cc.RetryOnTimeout != 0 {
		t.Errorf("RetryOnTimeout = %d, want 0", cc.RetryOnTimeout)
	}
	if cc.BatchSize != 50 || cc.MaxPending != 10000 {
		t.Errorf("BatchSize = %d, MaxPending = %d", cc.BatchSize, cc.MaxPending)
	}
	if cc.ServiceURL != "http://localhost:8080" {
		t.Errorf("ServiceURL = %q", cc.ServiceURL)
	}
}

func TestConfig_Masked(t *testing.T) {
	cfg := Config{SourceID: testSource, APIToken: testToken}

	m := cfg.Masked()
	if m.APIToken == testToken {
		t.Error("Masked() kept the API token")
	}
	if m.SourceID != testSource {
		t.Errorf("SourceID = %q, want unchanged", m.SourceID)
	}
	if cfg.APIToken != testToken {
		t.Error("Masked() modified the receiver")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&buf, "warn")
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing: %q", out)
	}

	buf.Reset()
	fallback := NewLogger(&buf, "bogus")
	fallback.Info().Msg("fallback")
	if !strings.Contains(buf.String(), "fallback") {
		t.Errorf("unknown level should fall back to info: %q", buf.String())
	}
}
