package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"newsforge/internal/config"
	"newsforge/internal/gateway"
	"newsforge/internal/jobs"
	"newsforge/internal/logging"
	"newsforge/internal/metrics"
	"newsforge/internal/services"
)

var (
	// ErrAlreadyProcessing is returned when a second Run is attempted for a
	// job the executor already holds.
	ErrAlreadyProcessing = errors.New("job already processing")
	// ErrNotPublishable is returned for a manual publish on a job that is not
	// completed or has no video artifact.
	ErrNotPublishable = errors.New("job not publishable")
)

// Executor drives jobs through the five pipeline stages. Each job gets at
// most one attempt per stage; there is no automatic whole-job retry.
type Executor struct {
	store    *jobs.Store
	cfg      *config.Config
	logger   *slog.Logger
	registry *metrics.Registry
	handlers []Handler

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New constructs an executor with the standard five stage handlers.
func New(store *jobs.Store, gw *gateway.Gateway, cfg *config.Config, logger *slog.Logger, registry *metrics.Registry) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		store:    store,
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "pipeline")),
		registry: registry,
		handlers: []Handler{
			&fetchStage{store: store, gw: gw, cfg: cfg},
			&summarizeStage{store: store, gw: gw, cfg: cfg},
			&audioStage{store: store, gw: gw, cfg: cfg},
			&videoStage{store: store, gw: gw, cfg: cfg},
			&publishStage{store: store, gw: gw, cfg: cfg},
		},
	}
}

// Holding reports whether the executor currently owns the job.
func (e *Executor) Holding(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.inFlight[id]
	return ok
}

// InFlight returns how many jobs the executor currently owns.
func (e *Executor) InFlight() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inFlight)
}

func (e *Executor) acquire(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight == nil {
		e.inFlight = make(map[string]struct{})
	}
	if _, held := e.inFlight[id]; held {
		return false
	}
	e.inFlight[id] = struct{}{}
	return true
}

func (e *Executor) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, id)
}

// Run executes the full pipeline for a queued job. A second concurrent call
// for the same job returns ErrAlreadyProcessing. A job deleted mid-flight
// aborts silently.
func (e *Executor) Run(ctx context.Context, jobID string) error {
	if !e.acquire(jobID) {
		return ErrAlreadyProcessing
	}
	defer e.release(jobID)

	ctx = services.WithJobID(ctx, jobID)
	logger := logging.WithContext(ctx, e.logger)

	if err := e.store.MarkRunning(ctx, jobID); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			logger.Debug("job vanished before start")
			return nil
		}
		return fmt.Errorf("mark running: %w", err)
	}
	logger.Info("job started", logging.String(logging.FieldEventType, "job_start"))

	for _, handler := range e.handlers {
		job, err := e.store.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			logger.Debug("job deleted mid-flight")
			return nil
		}

		if handler.Name() == jobs.StepPublish && !job.PublishRequested {
			if err := e.store.CompleteStep(ctx, jobID, jobs.StepPublish); err != nil {
				if errors.Is(err, jobs.ErrNotFound) {
					return nil
				}
				return err
			}
			logger.Info("publish skipped", logging.String(logging.FieldStage, string(jobs.StepPublish)))
			continue
		}

		done, err := e.runStage(ctx, logger, handler, job)
		if err != nil {
			return err
		}
		if !done {
			return nil
		}
	}

	if err := e.store.MarkCompleted(ctx, jobID); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("mark completed: %w", err)
	}
	e.count("completed")
	logger.Info("job completed", logging.String(logging.FieldEventType, "job_complete"))
	return nil
}

// runStage executes one stage. It reports done=false with a nil error when
// the run should stop without surfacing an error to the caller (job failed
// and was recorded, or job deleted).
func (e *Executor) runStage(ctx context.Context, logger *slog.Logger, handler Handler, job *jobs.Job) (bool, error) {
	name := handler.Name()
	stageCtx := services.WithStage(ctx, string(name))
	stageLogger := logging.WithContext(stageCtx, logger)

	if err := e.store.StartStep(stageCtx, job.ID, name); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("start step %s: %w", name, err)
	}
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	start := time.Now()
	execErr := handler.Execute(stageCtx, job)
	elapsed := time.Since(start)
	e.observeStage(name, elapsed, execErr == nil)

	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return false, execErr
		}
		if errors.Is(execErr, jobs.ErrNotFound) {
			stageLogger.Debug("job deleted mid-stage")
			return false, nil
		}
		cause := stageError(name, execErr)
		if err := e.store.FailStep(stageCtx, job.ID, name, execErr.Error()); err != nil && !errors.Is(err, jobs.ErrNotFound) {
			stageLogger.Error("failed to record step failure", logging.Error(err))
		}
		if err := e.store.MarkFailed(stageCtx, job.ID, cause); err != nil && !errors.Is(err, jobs.ErrNotFound) {
			stageLogger.Error("failed to mark job failed", logging.Error(err))
		}
		e.count("failed")
		stageLogger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failed"),
			logging.Error(execErr),
		)
		return false, nil
	}

	if err := e.store.CompleteStep(stageCtx, job.ID, name); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("complete step %s: %w", name, err)
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", elapsed),
	)
	return true, nil
}

// RunPublish re-runs the publish stage for a completed job with a video
// artifact. The job keeps its completed status; only the publish step and the
// external reference change.
func (e *Executor) RunPublish(ctx context.Context, jobID string) error {
	if !e.acquire(jobID) {
		return ErrAlreadyProcessing
	}
	defer e.release(jobID)

	ctx = services.WithJobID(ctx, jobID)
	ctx = services.WithStage(ctx, string(jobs.StepPublish))
	logger := logging.WithContext(ctx, e.logger)

	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return jobs.ErrNotFound
	}
	if job.Status != jobs.StatusCompleted {
		return fmt.Errorf("%w: status is %s", ErrNotPublishable, job.Status)
	}
	if _, ok := job.Artifact(jobs.ArtifactVideo); !ok {
		return fmt.Errorf("%w: no video artifact", ErrNotPublishable)
	}

	if err := e.store.ResetStep(ctx, jobID, jobs.StepPublish); err != nil {
		return err
	}
	if err := e.store.StartStep(ctx, jobID, jobs.StepPublish); err != nil {
		return err
	}

	handler := e.handlers[len(e.handlers)-1]
	start := time.Now()
	execErr := handler.Execute(ctx, job)
	e.observeStage(jobs.StepPublish, time.Since(start), execErr == nil)
	if execErr != nil {
		if recordErr := e.store.FailStep(ctx, jobID, jobs.StepPublish, execErr.Error()); recordErr != nil && !errors.Is(recordErr, jobs.ErrNotFound) {
			logger.Error("failed to record publish failure", logging.Error(recordErr))
		}
		logger.Error("manual publish failed", logging.Error(execErr))
		return execErr
	}
	if err := e.store.CompleteStep(ctx, jobID, jobs.StepPublish); err != nil {
		return err
	}
	logger.Info("manual publish completed", logging.String(logging.FieldEventType, "publish_complete"))
	return nil
}

func (e *Executor) count(outcome string) {
	if e.registry != nil {
		e.registry.Inc("newsforge_jobs_total", metrics.Labels{"outcome": outcome})
	}
}

func (e *Executor) observeStage(name jobs.StepName, elapsed time.Duration, ok bool) {
	if e.registry == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	e.registry.Inc("newsforge_stage_runs_total", metrics.Labels{"stage": string(name), "result": result})
	e.registry.Add("newsforge_stage_seconds_total", metrics.Labels{"stage": string(name)}, elapsed.Seconds())
}
