package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCountersAndGauges(t *testing.T) {
	registry := NewRegistry()
	registry.Inc("jobs_total", Labels{"status": "completed"})
	registry.Inc("jobs_total", Labels{"status": "completed"})
	registry.Inc("jobs_total", Labels{"status": "failed"})
	registry.Set("queue_depth", nil, 4)

	if got := registry.Value("jobs_total", Labels{"status": "completed"}); got != 2 {
		t.Fatalf("expected 2, got %g", got)
	}
	if got := registry.Value("queue_depth", nil); got != 4 {
		t.Fatalf("expected 4, got %g", got)
	}
	if got := registry.Value("unknown", nil); got != 0 {
		t.Fatalf("expected 0 for unknown series, got %g", got)
	}
}

func TestWriteTextFormat(t *testing.T) {
	registry := NewRegistry()
	registry.Describe("jobs_total", "Jobs by terminal status.")
	registry.Inc("jobs_total", Labels{"status": "completed"})
	registry.Set("queue_depth", nil, 3)

	var b strings.Builder
	if err := registry.WriteText(&b); err != nil {
		t.Fatalf("write text: %v", err)
	}
	out := b.String()

	for _, want := range []string{
		"# HELP jobs_total Jobs by terminal status.",
		"# TYPE jobs_total counter",
		`jobs_total{status="completed"} 1`,
		"# TYPE queue_depth gauge",
		"queue_depth 3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRecordCall(t *testing.T) {
	registry := NewRegistry()
	registry.RecordCall("tts", "synthesize", 200, 150*time.Millisecond)
	registry.RecordCall("tts", "synthesize", 200, 50*time.Millisecond)

	count := registry.Value("newsforge_external_calls_total", Labels{
		"service": "tts", "operation": "synthesize", "code": "200",
	})
	if count != 2 {
		t.Fatalf("expected 2 calls, got %g", count)
	}
	seconds := registry.Value("newsforge_external_call_seconds_total", Labels{"service": "tts"})
	if seconds < 0.19 || seconds > 0.21 {
		t.Fatalf("expected ~0.2s accumulated, got %g", seconds)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	registry := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				registry.Inc("hits", nil)
			}
		}()
	}
	wg.Wait()
	if got := registry.Value("hits", nil); got != 1000 {
		t.Fatalf("expected 1000, got %g", got)
	}
}
