// Package dispatch runs delivery tasks with a fixed parallelism limit.
//
// A [Dispatcher] accepts tasks without blocking the caller, starts them in
// the order they were enqueued, and never runs more than its concurrency
// limit at the same time. Excess tasks wait in an unbounded FIFO queue.
//
//	d := dispatch.New(200, logger)
//	d.Enqueue(func(ctx context.Context) { deliver(ctx, b) })
//	...
//	dropped, err := d.Close(ctx)
//
// Close abandons tasks that were queued but not started. Callers that need
// those tasks to run must wait for them before closing.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package dispatch
