package qoncrete

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qoncrete/qoncrete-go/internal/domain"
)

// Defaults applied by DefaultConfig.
const (
	DefaultTimeoutAfter    = 15 * time.Second
	DefaultRetryOnTimeout  = 1
	DefaultBatchSize       = 1000
	DefaultAutoSendAfter   = 2 * time.Second
	DefaultConcurrency     = 200
	DefaultShutdownTimeout = 30 * time.Second

	// MaxBatchSize is the largest batch the ingestion endpoint accepts.
	MaxBatchSize = 1000
)

// Config holds the client configuration. Start from DefaultConfig and set
// SourceID and APIToken; New validates it once and never changes it after.
type Config struct {
	// SourceID and APIToken identify the log source. Both must be UUIDs
	// (versions 1 to 5); they are lowercased during validation.
	SourceID string
	APIToken string

	// SecureTransport selects https instead of http.
	SecureTransport bool

	// CacheDNS resolves the ingestion host through an in-memory cache.
	CacheDNS bool

	// TimeoutAfter bounds every request attempt.
	TimeoutAfter time.Duration

	// RetryOnTimeout is how many times a batch is resent after a timeout.
	RetryOnTimeout int

	// AutoBatch groups records into batches. When false every Send is
	// dispatched immediately.
	AutoBatch bool

	// BatchSize is the number of records per batch, 1 to MaxBatchSize.
	BatchSize int

	// AutoSendAfter flushes a partial batch when no batch was cut for this long.
	AutoSendAfter time.Duration

	// Concurrency limits simultaneous requests.
	Concurrency int

	// ServiceURL overrides the ingestion base URL, e.g. for staging.
	ServiceURL string

	// MaxPending caps records waiting to be batched. Records that do not fit
	// are dropped and reported as CLIENT_ERROR. 0 means unbounded.
	MaxPending int

	// RetryBackoff delays the first timeout retry, doubling up to 10x.
	// 0 retries immediately.
	RetryBackoff time.Duration

	// ShutdownTimeout bounds how long Close waits for in-flight requests
	// when its context has no deadline.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		CacheDNS:        true,
		TimeoutAfter:    DefaultTimeoutAfter,
		RetryOnTimeout:  DefaultRetryOnTimeout,
		AutoBatch:       true,
		BatchSize:       DefaultBatchSize,
		AutoSendAfter:   DefaultAutoSendAfter,
		Concurrency:     DefaultConcurrency,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Validate checks the configuration and normalizes it in place.
// Every failure is an *Error of kind CLIENT_ERROR.
func (c *Config) Validate() error {
	if c.SourceID == "" || c.APIToken == "" {
		return invalidConfig("source ID and API token must be specified")
	}
	c.SourceID = strings.ToLower(c.SourceID)
	c.APIToken = strings.ToLower(c.APIToken)
	if !isUUID(c.SourceID) || !isUUID(c.APIToken) {
		return invalidConfig("source ID and API token must be valid UUIDs")
	}

	if c.BatchSize < 1 || c.BatchSize > MaxBatchSize {
		return invalidConfig("batch size must be between 1 and %d, got %d", MaxBatchSize, c.BatchSize)
	}
	if c.TimeoutAfter <= 0 {
		return invalidConfig("timeout must be positive")
	}
	if c.RetryOnTimeout < 0 {
		return invalidConfig("retry on timeout must not be negative")
	}
	if c.AutoBatch && c.AutoSendAfter <= 0 {
		return invalidConfig("auto send interval must be positive")
	}
	if c.Concurrency < 1 {
		return invalidConfig("concurrency must be at least 1")
	}
	if c.MaxPending < 0 {
		return invalidConfig("max pending must not be negative")
	}
	if c.RetryBackoff < 0 {
		return invalidConfig("retry backoff must not be negative")
	}

	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	c.ServiceURL = strings.TrimRight(c.ServiceURL, "/")

	return nil
}

func invalidConfig(format string, args ...any) error {
	return domain.NewError(domain.KindClientError, format, args...)
}

// isUUID accepts only the canonical 36-character form of an RFC 4122 UUID
// with version 1 to 5. uuid.Parse alone also accepts braces, URNs and the
// 32-character form.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	v := u.Version()
	return v >= 1 && v <= 5 && u.Variant() == uuid.RFC4122
}
