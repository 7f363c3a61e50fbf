package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (QONCRETE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("source-id", env("SOURCE_ID"), &cfg.SourceID)
	s.setString("api-token", env("API_TOKEN"), &cfg.APIToken)
	s.setString("service-url", env("SERVICE_URL"), &cfg.ServiceURL)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	s.setBoolFromString("secure", env("SECURE"), &cfg.SecureTransport)
	s.setBoolFromString("cache-dns", env("CACHE_DNS"), &cfg.CacheDNS)
	s.setBoolFromString("auto-batch", env("AUTO_BATCH"), &cfg.AutoBatch)

	if err := s.setDuration("timeout", env("TIMEOUT"), &cfg.TimeoutAfter); err != nil {
		return err
	}
	if err := s.setDuration("auto-send-after", env("AUTO_SEND_AFTER"), &cfg.AutoSendAfter); err != nil {
		return err
	}

	if err := s.setCountFromString("retry-on-timeout", env("RETRY_ON_TIMEOUT"), &cfg.RetryOnTimeout); err != nil {
		return err
	}
	if err := s.setIntFromString("batch-size", env("BATCH_SIZE"), &cfg.BatchSize); err != nil {
		return err
	}
	if err := s.setIntFromString("concurrency", env("CONCURRENCY"), &cfg.Concurrency); err != nil {
		return err
	}
	if err := s.setCountFromString("max-pending", env("MAX_PENDING"), &cfg.MaxPending); err != nil {
		return err
	}

	return nil
}
