// Package services defines shared utilities consumed by the hydration handlers
// and the external integrations under this directory.
//
// Key responsibilities:
//   - Context helpers that stamp owner IDs, job IDs, record IDs, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper, so the dispatcher and the
//     HTTP layer classify failures (not found, lookup failed, storage
//     unavailable, malformed job) the same way.
//
// Subpackages hold the provider clients (nutrition, imagegen). Construct them
// once at process start and inject them; nothing here keeps global clients.
package services
