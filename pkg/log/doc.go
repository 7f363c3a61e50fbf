// Package log provides the structured logging abstraction used by the
// delivery pipeline.
//
// The client never writes to stdout or stderr on its own. It logs through a
// Logger, which defaults to [NoopLogger]. Applications plug in zerolog with
// [NewZerologAdapter] or their own implementation:
//
//	logger := log.NewZerologAdapter(os.Stderr, zerolog.InfoLevel)
//	client, err := qoncrete.New(cfg, qoncrete.WithLogger(logger))
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
package log
