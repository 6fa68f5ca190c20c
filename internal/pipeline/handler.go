package pipeline

import (
	"context"

	"newsforge/internal/jobs"
)

// Handler is the contract the executor needs from each pipeline stage. A
// handler mutates external state through the store and the gateway only; the
// job argument is a snapshot refreshed before each stage.
type Handler interface {
	Name() jobs.StepName
	Execute(ctx context.Context, job *jobs.Job) error
}
