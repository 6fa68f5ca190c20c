package gateway_test

import (
	"context"
	"errors"
	"testing"

	"newsforge/internal/gateway"
	"newsforge/internal/testsupport"
)

func TestHealthAllUp(t *testing.T) {
	gw := testsupport.NewStubGateway()
	statuses := gw.Health(context.Background())
	if len(statuses) != 5 {
		t.Fatalf("expected 5 dependency statuses, got %d", len(statuses))
	}
	wantOrder := []string{"news", "summarizer", "tts", "renderer", "publisher"}
	for i, status := range statuses {
		if status.Name != wantOrder[i] {
			t.Fatalf("status %d: expected %s, got %s", i, wantOrder[i], status.Name)
		}
		if !status.Healthy {
			t.Fatalf("expected %s healthy, got detail %q", status.Name, status.Detail)
		}
	}
	if !gateway.Healthy(statuses) {
		t.Fatal("expected overall healthy")
	}
}

func TestHealthReportsFailures(t *testing.T) {
	gw := testsupport.NewStubGateway()
	gw.Renderer = &testsupport.StubRenderer{
		HealthFunc: func(ctx context.Context) error {
			return errors.New("connection refused")
		},
	}

	statuses := gw.Health(context.Background())
	if gateway.Healthy(statuses) {
		t.Fatal("expected overall unhealthy")
	}
	for _, status := range statuses {
		if status.Name == "renderer" {
			if status.Healthy || status.Detail != "connection refused" {
				t.Fatalf("unexpected renderer status: %+v", status)
			}
		} else if !status.Healthy {
			t.Fatalf("expected %s healthy", status.Name)
		}
	}
}
