package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"newsforge/internal/services"
)

func newTestLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(level)
	return slog.New(newConsoleHandler(buf, lvl, false))
}

func TestConsoleHandlerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewComponentLogger(newTestLogger(&buf, slog.LevelInfo), "scheduler")

	logger.Info("drain tick", Int("picked", 2))

	line := buf.String()
	if !strings.Contains(line, "[scheduler]") {
		t.Fatalf("missing component prefix: %q", line)
	}
	if !strings.Contains(line, "drain tick") {
		t.Fatalf("missing message: %q", line)
	}
	if !strings.Contains(line, "picked=2") {
		t.Fatalf("missing field: %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelWarn)

	logger.Info("ignored")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "ignored") {
		t.Fatalf("info record leaked past warn level: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestConsoleHandlerQuotesSpacedValues(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf, slog.LevelInfo)

	logger.Info("failure", String("cause", "no articles found"))

	if !strings.Contains(buf.String(), `cause="no articles found"`) {
		t.Fatalf("spaced value not quoted: %q", buf.String())
	}
}

func TestWithContextStampsJobFields(t *testing.T) {
	var buf bytes.Buffer
	base := newTestLogger(&buf, slog.LevelInfo)

	ctx := services.WithJobID(context.Background(), "job-42")
	ctx = services.WithStage(ctx, "create_video")

	WithContext(ctx, base).Info("stage started")

	line := buf.String()
	if !strings.Contains(line, "job_id=job-42") {
		t.Fatalf("missing job_id: %q", line)
	}
	if !strings.Contains(line, "stage=create_video") {
		t.Fatalf("missing stage: %q", line)
	}
}

func TestWithContextNilLoggerIsNop(t *testing.T) {
	logger := WithContext(context.Background(), nil)
	// Must not panic and must be disabled.
	logger.Info("dropped")
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should be disabled")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
