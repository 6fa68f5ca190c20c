// Package jobs persists video jobs, their pipeline steps, and fetched
// articles in SQLite. All state transitions are expressed as guarded UPDATE
// statements so the store, not the callers, enforces the forward-only
// lifecycle.
package jobs
