package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"newsforge/internal/gateway"
	"newsforge/internal/jobs"
	"newsforge/internal/metrics"
	"newsforge/internal/pipeline"
	"newsforge/internal/scheduler"
	"newsforge/internal/services/newsapi"
	"newsforge/internal/services/summarizer"
	"newsforge/internal/testsupport"
)

type fixture struct {
	store     *jobs.Store
	gw        *gateway.Gateway
	executor  *pipeline.Executor
	scheduler *scheduler.Scheduler
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	gw := testsupport.NewStubGateway()
	registry := metrics.NewRegistry()
	executor := pipeline.New(store, gw, cfg, nil, registry)
	return &fixture{
		store:     store,
		gw:        gw,
		executor:  executor,
		scheduler: scheduler.New(store, gw, executor, cfg, nil, registry),
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestDrainRunsQueuedJobs(t *testing.T) {
	f := newFixture(t)
	job := testsupport.NewJob(t, f.store, "drain me")

	if err := f.scheduler.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}

	waitFor(t, 5*time.Second, func() bool {
		current, err := f.store.GetJob(context.Background(), job.ID)
		return err == nil && current != nil && current.Status == jobs.StatusCompleted
	})
}

func TestDrainHonorsConcurrencyCap(t *testing.T) {
	f := newFixture(t, testsupport.WithMaxConcurrent(1))

	block := make(chan struct{})
	var active atomic.Int32
	f.gw.Summarizer = &testsupport.StubSummarizer{
		SummarizeFunc: func(ctx context.Context, req summarizer.Request) (summarizer.Result, error) {
			active.Add(1)
			<-block
			return summarizer.Result{Summary: "done"}, nil
		},
	}
	testsupport.NewJob(t, f.store, "first")
	testsupport.NewJob(t, f.store, "second")

	ctx := context.Background()
	if err := f.scheduler.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return active.Load() == 1 })

	// A second tick while the slot is occupied must not start another job.
	if err := f.scheduler.Drain(ctx); err != nil {
		t.Fatalf("second drain: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if got := active.Load(); got != 1 {
		t.Fatalf("expected 1 active job under cap, got %d", got)
	}

	close(block)
	waitFor(t, 5*time.Second, func() bool { return f.executor.InFlight() == 0 })
}

func TestDrainCapFromSettings(t *testing.T) {
	f := newFixture(t, testsupport.WithMaxConcurrent(5))
	ctx := context.Background()
	if err := f.store.SetSetting(ctx, jobs.SettingMaxConcurrentJobs, "0"); err != nil {
		t.Fatalf("set setting: %v", err)
	}
	job := testsupport.NewJob(t, f.store, "held back")

	if err := f.scheduler.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	current, err := f.store.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if current.Status != jobs.StatusQueued {
		t.Fatalf("zero cap must hold jobs queued, got %s", current.Status)
	}
}

func TestDiscoverCreatesJobsAndSkipsRecent(t *testing.T) {
	f := newFixture(t)
	f.gw.News = &testsupport.StubNews{
		TopHeadlinesFunc: func(ctx context.Context, category, country string, max int) ([]newsapi.Article, error) {
			return []newsapi.Article{
				{Title: "Fusion milestone reached"},
				{Title: "Markets rally on rate cut"},
			}, nil
		},
	}

	ctx := context.Background()
	if err := f.scheduler.Discover(ctx); err != nil {
		t.Fatalf("discover: %v", err)
	}
	_, total, err := f.store.ListJobs(ctx, jobs.Filter{})
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 discovered jobs, got %d", total)
	}

	// Second tick sees the same headlines; nothing new is queued.
	if err := f.scheduler.Discover(ctx); err != nil {
		t.Fatalf("second discover: %v", err)
	}
	_, total, err = f.store.ListJobs(ctx, jobs.Filter{})
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected dedupe to hold at 2 jobs, got %d", total)
	}

	listed, _, err := f.store.ListJobs(ctx, jobs.Filter{Topic: "Fusion"})
	if err != nil {
		t.Fatalf("list by topic: %v", err)
	}
	if len(listed) != 1 || listed[0].CreatedBy != "discovery" {
		t.Fatalf("expected discovery-created job, got %+v", listed)
	}
}

func TestSweepRespectsRetentionWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	done := testsupport.NewJob(t, f.store, "old story")
	if err := f.store.MarkRunning(ctx, done.ID); err != nil {
		t.Fatalf("mark running: %v", err)
	}
	if err := f.store.MarkCompleted(ctx, done.ID); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	// Default retention window: a fresh terminal job survives the sweep.
	if err := f.scheduler.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if current, _ := f.store.GetJob(ctx, done.ID); current == nil {
		t.Fatal("fresh terminal job must survive the sweep")
	}

	// A zero-day window disables the sweep entirely.
	if err := f.store.SetSetting(ctx, jobs.SettingCleanupRetentionDays, "0"); err != nil {
		t.Fatalf("set setting: %v", err)
	}
	if err := f.scheduler.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if current, _ := f.store.GetJob(ctx, done.ID); current == nil {
		t.Fatal("zero retention must not delete jobs")
	}
}

func TestReconcileFailsOrphanedRunningJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	orphan := testsupport.NewJob(t, f.store, "orphan")
	if err := f.store.MarkRunning(ctx, orphan.ID); err != nil {
		t.Fatalf("mark running: %v", err)
	}

	if err := f.scheduler.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	current, err := f.store.GetJob(ctx, orphan.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if current.Status != jobs.StatusFailed {
		t.Fatalf("expected orphan failed, got %s", current.Status)
	}
	if current.ErrorMessage != "orchestrator restarted" {
		t.Fatalf("unexpected cause %q", current.ErrorMessage)
	}
}

func TestReconcileSparesHeldJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	block := make(chan struct{})
	entered := make(chan struct{})
	f.gw.Summarizer = &testsupport.StubSummarizer{
		SummarizeFunc: func(ctx context.Context, req summarizer.Request) (summarizer.Result, error) {
			close(entered)
			<-block
			return summarizer.Result{Summary: "done"}, nil
		},
	}
	held := testsupport.NewJob(t, f.store, "held")
	go func() { _ = f.executor.Run(ctx, held.ID) }()
	<-entered

	if err := f.scheduler.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	current, err := f.store.GetJob(ctx, held.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if current.Status != jobs.StatusRunning {
		t.Fatalf("held job must stay running, got %s", current.Status)
	}

	close(block)
	waitFor(t, 5*time.Second, func() bool { return f.executor.InFlight() == 0 })
}

func TestStartStopLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.scheduler.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.scheduler.Start(ctx); err == nil {
		t.Fatal("second start must fail")
	}
	f.scheduler.Stop()
	// Stop is idempotent.
	f.scheduler.Stop()
}
