package testsupport

import (
	"path/filepath"
	"testing"

	"newsforge/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.News.APIKey = "test-key"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Auth.Username = "admin"
	cfg.Auth.Password = "test-password"
	cfg.Auth.TokenSecret = "test-token-secret"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithNewsKey sets the news source API key on the test config.
func WithNewsKey(key string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.News.APIKey = key
	}
}

// WithMaxConcurrent overrides the drain concurrency cap.
func WithMaxConcurrent(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.MaxConcurrentJobs = n
	}
}
