// Package pipeline drives jobs through the fixed five-stage flow: fetch
// news, summarize, generate audio, create video, publish. The executor holds
// a per-job in-process lock so a job is never worked on twice concurrently,
// and every stage gets at most one attempt.
package pipeline
