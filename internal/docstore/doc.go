// Package docstore persists pantry items and recipes as JSON documents in
// SQLite, keyed by owner partition (USER#<owner>) and record sort key
// (PANTRY#<id>, RECIPE#<id>).
//
// Deletes are soft: the row stays with active=0 and every read, list, and
// patch treats it as missing. Patch performs read-modify-write inside one
// transaction while holding a per-record lock, which is what lets the
// hydration handlers update a single field without clobbering concurrent
// edits to the rest of the record.
package docstore
