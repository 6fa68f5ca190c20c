// Package daemon runs the newsforge service as a long-lived process: it
// enforces single-instance execution with a file lock, starts the scheduler
// and API server, and shuts both down cleanly on termination signals.
package daemon
