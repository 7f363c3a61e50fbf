// Package domain contains the core value types of the delivery pipeline.
//
// It has no dependencies on transport, logging or configuration and holds
// only the rules every other package agrees on.
//
// # Types
//
//   - [Record]: a single JSON log entry submitted by the caller
//   - [Batch]: an ordered group of records delivered in one request
//   - [Outcome] and [Result]: what one delivery ended with
//   - [Kind] and [Error]: the closed error taxonomy reported to callers
//
// [Classify] turns a [Result] into an [*Error] (or nil on success).
package domain
