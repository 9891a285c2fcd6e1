// Package workflow consumes hydration jobs and routes them to handlers.
//
// The Dispatcher polls a Transport for batches, decodes each message, and
// moves it through RECEIVED -> DISPATCHED -> {COMPLETED, FAILED}. Unknown job
// types and malformed payloads are logged and dropped; handler errors and
// panics are caught at the dispatch boundary so one bad message never stops
// the rest of the batch. Jobs targeting the same record are serialized with
// a keyed lock while jobs for different records run concurrently up to the
// configured worker count.
//
// Transports that lease deliveries (the SQLite queue) get their leases
// refreshed by the HeartbeatMonitor while handlers run, and abandoned leases
// are reclaimed on every poll. Failed jobs are acknowledged and leave the live
// queue; there is no automatic retry.
//
// DrainOnce runs the same pipeline inline until the queue is empty, which is
// how scheduled invocations and tests consume jobs without the background
// loop.
package workflow
