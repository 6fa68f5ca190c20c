package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"newsforge/internal/config"
	"newsforge/internal/gateway"
	"newsforge/internal/jobs"
	"newsforge/internal/logging"
	"newsforge/internal/metrics"
	"newsforge/internal/pipeline"
)

// Scheduler runs the background loops: topic discovery, queue drain,
// retention sweep, and reconciliation of orphaned running jobs. A failure in
// one tick is logged and never stops subsequent ticks.
type Scheduler struct {
	store    *jobs.Store
	gw       *gateway.Gateway
	executor *pipeline.Executor
	cfg      *config.Config
	logger   *slog.Logger
	registry *metrics.Registry

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a scheduler over the shared store, gateway, and executor.
func New(store *jobs.Store, gw *gateway.Gateway, executor *pipeline.Executor, cfg *config.Config, logger *slog.Logger, registry *metrics.Registry) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		store:    store,
		gw:       gw,
		executor: executor,
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "scheduler")),
		registry: registry,
	}
}

// Start reconciles orphaned jobs once, then launches the periodic loops.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	if err := s.Reconcile(runCtx); err != nil {
		s.logger.Warn("startup reconciliation failed", logging.Error(err))
	}

	loops := []struct {
		name     string
		interval time.Duration
		tick     func(context.Context) error
		enabled  bool
	}{
		{"drain", time.Duration(s.cfg.Workflow.DrainIntervalSeconds) * time.Second, s.Drain, true},
		{"discovery", time.Duration(s.cfg.Workflow.DiscoveryIntervalMins) * time.Minute, s.Discover, s.cfg.Workflow.DiscoveryEnabled},
		{"retention", time.Duration(s.cfg.Workflow.RetentionSweepMins) * time.Minute, s.Sweep, true},
		{"reconcile", time.Duration(s.cfg.Workflow.ReconcileIntervalMins) * time.Minute, s.Reconcile, true},
	}
	for _, loop := range loops {
		if !loop.enabled || loop.interval <= 0 {
			continue
		}
		s.wg.Add(1)
		go s.runLoop(runCtx, loop.name, loop.interval, loop.tick)
	}
	return nil
}

// Stop terminates the loops and waits for in-progress ticks to finish.
// Jobs already handed to the executor run until their context is cancelled
// by the daemon.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, name string, interval time.Duration, tick func(context.Context) error) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("tick failed",
				logging.String("loop", name),
				logging.Error(err),
			)
		}
	}
}

// Drain starts queued jobs, oldest first, up to the concurrency cap. The cap
// is read from settings on every tick so runtime changes apply without a
// restart.
func (s *Scheduler) Drain(ctx context.Context) error {
	limit, err := s.store.GetSettingInt(ctx, jobs.SettingMaxConcurrentJobs, s.cfg.Workflow.MaxConcurrentJobs)
	if err != nil {
		return err
	}
	slots := limit - s.executor.InFlight()
	if slots <= 0 {
		return nil
	}

	queued, err := s.store.JobsByStatus(ctx, jobs.StatusQueued, slots)
	if err != nil {
		return err
	}
	for _, job := range queued {
		jobID := job.ID
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.executor.Run(ctx, jobID); err != nil {
				if errors.Is(err, pipeline.ErrAlreadyProcessing) || errors.Is(err, context.Canceled) {
					return
				}
				s.logger.Error("job run failed",
					logging.String(logging.FieldJobID, jobID),
					logging.Error(err),
				)
			}
		}()
	}
	if s.registry != nil {
		s.registry.Set("newsforge_jobs_in_flight", nil, float64(s.executor.InFlight()))
	}
	return nil
}

// Discover queries headlines for the configured category and queues a job per
// fresh topic. Topics with a recent non-failed job are skipped.
func (s *Scheduler) Discover(ctx context.Context) error {
	headlines, err := s.gw.News.TopHeadlines(ctx, s.cfg.News.Category, s.cfg.News.Country, s.cfg.News.MaxArticles)
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-time.Duration(s.cfg.Workflow.DiscoveryIntervalMins*2) * time.Minute)
	created := 0
	for _, headline := range headlines {
		topic := headline.Title
		recent, err := s.store.HasRecentJobForTopic(ctx, topic, cutoff)
		if err != nil {
			return err
		}
		if recent {
			continue
		}
		job, err := s.store.CreateJob(ctx, jobs.CreateParams{
			Topic:           topic,
			Language:        s.cfg.Workflow.DefaultLanguage,
			RequestedLength: s.cfg.Workflow.DefaultVideoLength,
			Category:        s.cfg.News.Category,
			Country:         s.cfg.News.Country,
			CreatedBy:       "discovery",
		})
		if err != nil {
			return err
		}
		created++
		s.logger.Info("discovered topic",
			logging.String(logging.FieldJobID, job.ID),
			logging.String("topic", topic),
		)
	}
	if s.registry != nil && created > 0 {
		s.registry.Add("newsforge_discovered_jobs_total", nil, float64(created))
	}
	return nil
}

// Sweep deletes terminal jobs older than the retention window.
func (s *Scheduler) Sweep(ctx context.Context) error {
	days, err := s.store.GetSettingInt(ctx, jobs.SettingCleanupRetentionDays, s.cfg.Workflow.RetentionDays)
	if err != nil {
		return err
	}
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	removed, err := s.store.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Info("retention sweep removed jobs", logging.Int64("removed", removed))
		if s.registry != nil {
			s.registry.Add("newsforge_jobs_swept_total", nil, float64(removed))
		}
	}
	return nil
}

// Reconcile fails any job marked running that the executor does not hold.
// Such rows are leftovers from a previous process that died mid-job.
func (s *Scheduler) Reconcile(ctx context.Context) error {
	ids, err := s.store.ListRunningIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if s.executor.Holding(id) {
			continue
		}
		failed, err := s.store.FailIfRunning(ctx, id, "orchestrator restarted")
		if err != nil {
			return err
		}
		if failed {
			s.logger.Warn("reconciled orphaned job", logging.String(logging.FieldJobID, id))
			if s.registry != nil {
				s.registry.Inc("newsforge_jobs_reconciled_total", nil)
			}
		}
	}
	return nil
}
