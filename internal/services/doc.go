// Package services defines shared utilities consumed by the gateway clients
// and the pipeline executor.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Sentinel error markers plus the Wrap helper that classify collaborator
//     failures (auth, rate limit, transient, malformed, business rejection)
//     so retry policy and job failure recording stay uniform.
//
// Use these helpers when wiring new stage logic so operational behaviour
// stays consistent across the pipeline.
package services
