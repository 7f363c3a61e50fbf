package qoncrete

import (
	"github.com/qoncrete/qoncrete-go/pkg/lifecycle"
	"github.com/qoncrete/qoncrete-go/pkg/log"
	"github.com/qoncrete/qoncrete-go/pkg/sender"
)

// Option configures optional behavior of a Client.
type Option func(*options)

type options struct {
	httpClient  sender.HTTPClient
	logger      log.Logger
	errorLogger func(error)
	emitter     lifecycle.EventEmitter
}

func defaultOptions() options {
	return options{
		logger:      log.NewNoopLogger(),
		errorLogger: func(error) {},
	}
}

// WithHTTPClient sets the HTTP client used for deliveries. It replaces the
// built-in pooled transport, so CacheDNS has no effect.
func WithHTTPClient(client sender.HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithErrorLogger sets the function receiving every failed submission or
// delivery. It is called from delivery goroutines and must be safe for
// concurrent use.
func WithErrorLogger(fn func(error)) Option {
	return func(o *options) {
		if fn != nil {
			o.errorLogger = fn
		}
	}
}

// WithStateHandler receives lifecycle transitions (Running, Closing, Closed).
func WithStateHandler(emitter lifecycle.EventEmitter) Option {
	return func(o *options) {
		o.emitter = emitter
	}
}
