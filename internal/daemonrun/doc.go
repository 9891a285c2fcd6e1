// Package daemonrun assembles the pantrypal runtime from configuration: the
// document store, the job transport, the nutrition and image clients, the
// hydration handlers and the dispatcher. Run wires that runtime into a
// daemon and blocks until the process is signalled; Build is shared with
// one-shot commands that drain the queue without serving HTTP.
package daemonrun
