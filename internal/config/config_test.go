package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Default()
	cfg.News.APIKey = "test-key"
	return cfg
}

func TestDefaultValidatesWithAPIKey(t *testing.T) {
	cfg := validConfig()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRequiresNewsAPIKey(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for missing news.api_key")
	}
	if !strings.Contains(err.Error(), "news.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBadVideoLength(t *testing.T) {
	cfg := validConfig()
	cfg.Workflow.DefaultVideoLength = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default_video_length below 30")
	}
}

func TestValidateRejectsBadLanguageTag(t *testing.T) {
	cfg := validConfig()
	cfg.Workflow.DefaultLanguage = "not a language"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for bad language tag")
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "newsforge.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[news]
api_key = "abc123"
base_url = "https://example.test/v2/"

[workflow]
max_concurrent_jobs = 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.News.BaseURL != "https://example.test/v2" {
		t.Fatalf("base url not trimmed: %q", cfg.News.BaseURL)
	}
	if cfg.Workflow.MaxConcurrentJobs != 3 {
		t.Fatalf("max concurrent jobs = %d, want 3", cfg.Workflow.MaxConcurrentJobs)
	}
	// Untouched sections keep defaults.
	if cfg.Workflow.DefaultVideoLength != defaultVideoLengthSeconds {
		t.Fatalf("default video length = %d", cfg.Workflow.DefaultVideoLength)
	}
}

func TestLoadMissingExplicitPathFallsBackToDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	_, _, exists, err := Load(missing)
	if exists {
		t.Fatal("missing file reported as existing")
	}
	// Defaults fail validation because the API key is unset.
	if err == nil {
		t.Fatal("expected validation failure for defaults without api key")
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[news]") {
		t.Fatal("sample config missing [news] section")
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got, err := ExpandPath("~/x")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "x") {
		t.Fatalf("ExpandPath = %q", got)
	}
}
