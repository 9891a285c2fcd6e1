// Package lifecycle owns the synchronous half of record creation.
//
// A create writes the base record (active, no macros, no image) and then
// enqueues the hydration jobs that will fill the derived fields later. The
// call never waits for hydration. A store failure fails the request; an
// enqueue failure is logged and the record simply stays unhydrated until it
// is re-hydrated manually.
//
// Updates replace only user-owned fields. Renaming a record clears its
// derived fields and enqueues fresh jobs. Deletes are soft, so in-flight
// jobs for the record complete without resurrecting it.
package lifecycle
