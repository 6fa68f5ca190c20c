package config

const (
	defaultDataDir               = "~/.local/share/newsforge/data"
	defaultLogDir                = "~/.local/share/newsforge/logs"
	defaultAPIBind               = "127.0.0.1:7600"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultNewsBaseURL           = "https://newsapi.org/v2"
	defaultNewsCountry           = "us"
	defaultNewsCategory          = "general"
	defaultNewsMaxArticles       = 10
	defaultNewsTimeoutSeconds    = 10
	defaultServiceTimeoutSeconds = 30
	defaultRenderTimeoutSeconds  = 300
	defaultMaxConcurrentJobs     = 5
	defaultDrainIntervalSeconds  = 15
	defaultDiscoveryIntervalMins = 120
	defaultRetentionDays         = 30
	defaultRetentionSweepMins    = 60
	defaultReconcileIntervalMins = 5
	defaultVideoLengthSeconds    = 120
	defaultVoiceID               = "en-US-standard"
	defaultVideoTheme            = "modern"
	defaultLanguage              = "en"
	defaultTokenTTLMinutes       = 720
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Auth: Auth{
			TokenTTLMinutes: defaultTokenTTLMinutes,
		},
		News: News{
			BaseURL:        defaultNewsBaseURL,
			Country:        defaultNewsCountry,
			Category:       defaultNewsCategory,
			MaxArticles:    defaultNewsMaxArticles,
			TimeoutSeconds: defaultNewsTimeoutSeconds,
		},
		Summarizer: Service{
			BaseURL:        "http://127.0.0.1:8001",
			TimeoutSeconds: defaultServiceTimeoutSeconds,
		},
		TTS: Service{
			BaseURL:        "http://127.0.0.1:8002",
			TimeoutSeconds: defaultServiceTimeoutSeconds,
		},
		Renderer: Service{
			BaseURL:        "http://127.0.0.1:8003",
			TimeoutSeconds: defaultRenderTimeoutSeconds,
		},
		Publisher: Service{
			BaseURL:        "http://127.0.0.1:8004",
			TimeoutSeconds: defaultServiceTimeoutSeconds,
		},
		Workflow: Workflow{
			MaxConcurrentJobs:     defaultMaxConcurrentJobs,
			DrainIntervalSeconds:  defaultDrainIntervalSeconds,
			DiscoveryEnabled:      false,
			DiscoveryIntervalMins: defaultDiscoveryIntervalMins,
			RetentionDays:         defaultRetentionDays,
			RetentionSweepMins:    defaultRetentionSweepMins,
			ReconcileIntervalMins: defaultReconcileIntervalMins,
			DefaultVideoLength:    defaultVideoLengthSeconds,
			DefaultVoiceID:        defaultVoiceID,
			DefaultVideoTheme:     defaultVideoTheme,
			DefaultLanguage:       defaultLanguage,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
