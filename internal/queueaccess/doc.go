// Package queueaccess gives the CLI one view of the hydration queue whether
// the daemon is running or not. When the operator API answers, requests go
// over HTTP; otherwise the SQLite queue database is opened directly.
package queueaccess
