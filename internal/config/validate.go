package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateNews(); err != nil {
		return err
	}
	if err := c.validateServices(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateNews() error {
	if c.News.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/newsforge/config.toml"
		}
		return fmt.Errorf("news.api_key is required; edit %s (create with 'newsforge config init')", defaultPath)
	}
	if err := validateBaseURL("news.base_url", c.News.BaseURL); err != nil {
		return err
	}
	if c.News.MaxArticles <= 0 {
		return errors.New("news.max_articles must be positive")
	}
	if c.News.TimeoutSeconds <= 0 {
		return errors.New("news.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateServices() error {
	services := map[string]*Service{
		"summarizer": &c.Summarizer,
		"tts":        &c.TTS,
		"renderer":   &c.Renderer,
		"publisher":  &c.Publisher,
	}
	for name, svc := range services {
		if err := validateBaseURL(name+".base_url", svc.BaseURL); err != nil {
			return err
		}
		if svc.TimeoutSeconds <= 0 {
			return fmt.Errorf("%s.timeout_seconds must be positive", name)
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.max_concurrent_jobs":        c.Workflow.MaxConcurrentJobs,
		"workflow.drain_interval_seconds":     c.Workflow.DrainIntervalSeconds,
		"workflow.discovery_interval_minutes": c.Workflow.DiscoveryIntervalMins,
		"workflow.retention_days":             c.Workflow.RetentionDays,
		"workflow.retention_sweep_minutes":    c.Workflow.RetentionSweepMins,
		"workflow.reconcile_interval_minutes": c.Workflow.ReconcileIntervalMins,
	}); err != nil {
		return err
	}
	if c.Workflow.DefaultVideoLength < 30 || c.Workflow.DefaultVideoLength > 300 {
		return errors.New("workflow.default_video_length must be between 30 and 300 seconds")
	}
	if lang := strings.TrimSpace(c.Workflow.DefaultLanguage); lang != "" {
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("workflow.default_language: unrecognized language tag %q", lang)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func validateBaseURL(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must be set", field)
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s: %q is not a valid URL", field, value)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for field, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", field)
		}
	}
	return nil
}
