// Package lifecycle tracks whether a client accepts work and waits for its
// background workers on shutdown.
//
// # State Machine
//
// Valid state transitions:
//   - Running -> Closing
//   - Closing -> Closed
//
// A client starts Running. Once Closing it rejects new submissions; once
// Closed every worker registered with AddWorker has returned.
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
package lifecycle
