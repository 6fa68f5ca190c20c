package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"newsforge/internal/api"
	"newsforge/internal/config"
	"newsforge/internal/metrics"
	"newsforge/internal/pipeline"
	"newsforge/internal/testsupport"
)

// newTestContext starts an in-process API server and returns a command
// context whose config points at it.
func newTestContext(t *testing.T) (*commandContext, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	gw := testsupport.NewStubGateway()
	registry := metrics.NewRegistry()
	executor := pipeline.New(store, gw, cfg, nil, registry)
	apiServer := api.New(store, gw, executor, cfg, nil, registry)

	server := httptest.NewServer(apiServer.Handler())
	t.Cleanup(server.Close)
	cfg.Paths.APIBind = strings.TrimPrefix(server.URL, "http://")

	ctx := &commandContext{}
	ctx.configOnce.Do(func() { ctx.config = cfg })
	return ctx, cfg
}

func TestJobsAddListShowRemove(t *testing.T) {
	ctx, _ := newTestContext(t)

	var out bytes.Buffer
	add := newJobsAddCommand(ctx)
	add.SetOut(&out)
	add.SetArgs([]string{"solar storms", "--length", "90"})
	if err := add.Execute(); err != nil {
		t.Fatalf("jobs add: %v", err)
	}
	if !strings.Contains(out.String(), "Queued job") {
		t.Fatalf("unexpected add output: %s", out.String())
	}

	out.Reset()
	list := newJobsListCommand(ctx)
	list.SetOut(&out)
	list.SetArgs(nil)
	if err := list.Execute(); err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	if !strings.Contains(out.String(), "solar storms") || !strings.Contains(out.String(), "queued") {
		t.Fatalf("unexpected list output: %s", out.String())
	}

	client, err := ctx.apiClient()
	if err != nil {
		t.Fatalf("api client: %v", err)
	}
	jobsList, err := client.ListJobs(nil)
	if err != nil {
		t.Fatalf("list via client: %v", err)
	}
	if len(jobsList.Jobs) != 1 {
		t.Fatalf("expected one job, got %d", len(jobsList.Jobs))
	}
	id := jobsList.Jobs[0].ID

	out.Reset()
	show := newJobsShowCommand(ctx)
	show.SetOut(&out)
	show.SetArgs([]string{id})
	if err := show.Execute(); err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	if !strings.Contains(out.String(), "fetch_news") {
		t.Fatalf("expected step listing in show output: %s", out.String())
	}

	out.Reset()
	remove := newJobsRemoveCommand(ctx)
	remove.SetOut(&out)
	remove.SetArgs([]string{id})
	if err := remove.Execute(); err != nil {
		t.Fatalf("jobs remove: %v", err)
	}

	remove = newJobsRemoveCommand(ctx)
	remove.SetArgs([]string{id})
	if err := remove.Execute(); err == nil {
		t.Fatal("expected error removing missing job")
	}
}

func TestJobsPublishCommand(t *testing.T) {
	ctx, _ := newTestContext(t)

	client, err := ctx.apiClient()
	if err != nil {
		t.Fatalf("api client: %v", err)
	}
	job, err := client.CreateJob(api.CreateJobRequest{Topic: "publish me"})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	// Publish before completion fails with the server's message.
	publish := newJobsPublishCommand(ctx)
	publish.SetArgs([]string{job.ID})
	if err := publish.Execute(); err == nil {
		t.Fatal("expected publish on queued job to fail")
	}
}

func TestStatusCommand(t *testing.T) {
	ctx, _ := newTestContext(t)

	var out bytes.Buffer
	status := newStatusCommand(ctx)
	status.SetOut(&out)
	status.SetArgs(nil)
	if err := status.Execute(); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), "Service: ok") {
		t.Fatalf("unexpected status output: %s", out.String())
	}
	if !strings.Contains(out.String(), "summarizer") {
		t.Fatalf("expected dependency listing: %s", out.String())
	}
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	var out bytes.Buffer
	cmd := newConfigInitCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file: %v", err)
	}

	// Second run without --overwrite refuses.
	cmd = newConfigInitCommand()
	cmd.SetArgs([]string{"--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when file already exists")
	}
}
