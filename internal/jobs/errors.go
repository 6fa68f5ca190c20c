package jobs

import "errors"

// ErrNotFound indicates a write or read against a job id that does not exist.
// The executor treats this as "job deleted mid-flight" and aborts quietly.
var ErrNotFound = errors.New("job not found")

// ErrInvalidTransition indicates a status change that would move a job or
// step backwards, or mutate a terminal job.
var ErrInvalidTransition = errors.New("invalid status transition")
