package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Auth contains credentials for the job API.
type Auth struct {
	Username        string `toml:"username"`
	Password        string `toml:"password"`
	TokenSecret     string `toml:"token_secret"`
	TokenTTLMinutes int    `toml:"token_ttl_minutes"`
}

// News contains configuration for the news source API.
type News struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Country        string `toml:"country"`
	Category       string `toml:"category"`
	MaxArticles    int    `toml:"max_articles"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Service contains connection settings for one peer microservice.
type Service struct {
	BaseURL        string `toml:"base_url"`
	Secret         string `toml:"secret"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workflow contains pipeline and scheduler timing configuration.
type Workflow struct {
	MaxConcurrentJobs     int    `toml:"max_concurrent_jobs"`
	DrainIntervalSeconds  int    `toml:"drain_interval_seconds"`
	DiscoveryEnabled      bool   `toml:"discovery_enabled"`
	DiscoveryIntervalMins int    `toml:"discovery_interval_minutes"`
	RetentionDays         int    `toml:"retention_days"`
	RetentionSweepMins    int    `toml:"retention_sweep_minutes"`
	ReconcileIntervalMins int    `toml:"reconcile_interval_minutes"`
	DefaultVideoLength    int    `toml:"default_video_length"`
	DefaultVoiceID        string `toml:"default_voice_id"`
	DefaultVideoTheme     string `toml:"default_video_theme"`
	DefaultLanguage       string `toml:"default_language"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for newsforge.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and the job API bind address
//   - Auth: job API credentials and token signing settings
//   - News: news source API connection
//   - Summarizer/TTS/Renderer/Publisher: peer microservice endpoints
//   - Workflow: concurrency caps, scheduler intervals, job defaults
//   - Logging: log format and level
type Config struct {
	Paths      Paths    `toml:"paths"`
	Auth       Auth     `toml:"auth"`
	News       News     `toml:"news"`
	Summarizer Service  `toml:"summarizer"`
	TTS        Service  `toml:"tts"`
	Renderer   Service  `toml:"renderer"`
	Publisher  Service  `toml:"publisher"`
	Workflow   Workflow `toml:"workflow"`
	Logging    Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/newsforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("newsforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.News.BaseURL = strings.TrimRight(strings.TrimSpace(c.News.BaseURL), "/")
	for _, svc := range []*Service{&c.Summarizer, &c.TTS, &c.Renderer, &c.Publisher} {
		svc.BaseURL = strings.TrimRight(strings.TrimSpace(svc.BaseURL), "/")
	}

	if c.Workflow.MaxConcurrentJobs <= 0 {
		c.Workflow.MaxConcurrentJobs = defaultMaxConcurrentJobs
	}
	if c.Workflow.DrainIntervalSeconds <= 0 {
		c.Workflow.DrainIntervalSeconds = defaultDrainIntervalSeconds
	}
	if c.Workflow.DiscoveryIntervalMins <= 0 {
		c.Workflow.DiscoveryIntervalMins = defaultDiscoveryIntervalMins
	}
	if c.Workflow.RetentionDays <= 0 {
		c.Workflow.RetentionDays = defaultRetentionDays
	}
	if c.Workflow.RetentionSweepMins <= 0 {
		c.Workflow.RetentionSweepMins = defaultRetentionSweepMins
	}
	if c.Workflow.ReconcileIntervalMins <= 0 {
		c.Workflow.ReconcileIntervalMins = defaultReconcileIntervalMins
	}
	if c.Workflow.DefaultVideoLength <= 0 {
		c.Workflow.DefaultVideoLength = defaultVideoLengthSeconds
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		c.Auth.TokenTTLMinutes = defaultTokenTTLMinutes
	}
	return nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
