// Command pantry is the operator CLI for pantrypal: it runs the daemon,
// drains the hydration queue inline, inspects and repairs queued jobs,
// queries the nutrition provider, issues bearer tokens, and manages the
// configuration file.
package main
