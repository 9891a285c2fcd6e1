// Package queue persists hydration jobs in SQLite and implements the
// at-least-once transport the dispatcher consumes.
//
// Jobs move pending -> processing -> completed|failed. DequeueBatch claims
// pending rows atomically and stamps a heartbeat; the dispatcher refreshes it
// while handlers run, and ReclaimStaleProcessing returns rows whose heartbeat
// expired (a crashed consumer) to pending so they are delivered again.
// Failed rows are kept with their error message until an operator runs
// RetryFailed or clears them.
//
// Schema changes bump schemaVersion in store_core.go; operators delete the
// database to adopt the new schema.
package queue
