package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Apify    ApifyConfig    `yaml:"apify" mapstructure:"apify"`
	Google   GoogleConfig   `yaml:"google" mapstructure:"google"`
	Jina     JinaConfig     `yaml:"jina" mapstructure:"jina"`
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ApifyConfig holds Apify API settings and actor ids.
type ApifyConfig struct {
	Token      string `yaml:"token" mapstructure:"token"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	MapsActor  string `yaml:"maps_actor" mapstructure:"maps_actor"`
	JobsActor  string `yaml:"jobs_actor" mapstructure:"jobs_actor"`
	PageActor  string `yaml:"page_actor" mapstructure:"page_actor"`
	RunTimeout int    `yaml:"run_timeout_secs" mapstructure:"run_timeout_secs"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// Provider backends.
const (
	ProviderApify  = "apify"
	ProviderGoogle = "google"
	ProviderJina   = "jina"
	ProviderNone   = "none"
)

// ProviderConfig selects backends and sets call guards.
type ProviderConfig struct {
	Listing          string `yaml:"listing" mapstructure:"listing"`
	Page             string `yaml:"page" mapstructure:"page"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	BreakerFailures  int    `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs int    `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// Timeout returns the per-call timeout.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// BreakerReset returns how long an open circuit waits before a probe.
func (p ProviderConfig) BreakerReset() time.Duration {
	return time.Duration(p.BreakerResetSecs) * time.Second
}

// PipelineConfig configures the record enricher.
type PipelineConfig struct {
	Mode                       string `yaml:"mode" mapstructure:"mode"`
	MaxResults                 int    `yaml:"max_results" mapstructure:"max_results"`
	QuerySuffix                string `yaml:"query_suffix" mapstructure:"query_suffix"`
	JobsEnabled                bool   `yaml:"jobs_enabled" mapstructure:"jobs_enabled"`
	PageEnabled                bool   `yaml:"page_enabled" mapstructure:"page_enabled"`
	RetierEnabled              bool   `yaml:"retier_enabled" mapstructure:"retier_enabled"`
	JobsMaxResults             int    `yaml:"jobs_max_results" mapstructure:"jobs_max_results"`
	MultiLocationMinCandidates int    `yaml:"multi_location_min_candidates" mapstructure:"multi_location_min_candidates"`
}

// BatchConfig configures batch pacing.
type BatchConfig struct {
	DelayMS          int     `yaml:"delay_ms" mapstructure:"delay_ms"`
	RecordsPerMinute float64 `yaml:"records_per_minute" mapstructure:"records_per_minute"`
}

// Delay returns the fixed inter-record delay.
func (b BatchConfig) Delay() time.Duration {
	return time.Duration(b.DelayMS) * time.Millisecond
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRIALS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("apify.token", "")
	v.SetDefault("apify.base_url", "https://api.apify.com/v2")
	v.SetDefault("apify.maps_actor", "compass/crawler-google-places")
	v.SetDefault("apify.jobs_actor", "misceres/indeed-scraper")
	v.SetDefault("apify.page_actor", "apify/web-scraper")
	v.SetDefault("apify.run_timeout_secs", 60)
	v.SetDefault("google.key", "")
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("jina.key", "")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("provider.listing", ProviderApify)
	v.SetDefault("provider.page", ProviderApify)
	v.SetDefault("provider.timeout_secs", 45)
	v.SetDefault("provider.breaker_failures", 5)
	v.SetDefault("provider.breaker_reset_secs", 60)
	v.SetDefault("pipeline.mode", "auto")
	v.SetDefault("pipeline.max_results", 5)
	v.SetDefault("pipeline.query_suffix", "restaurant")
	v.SetDefault("pipeline.jobs_enabled", true)
	v.SetDefault("pipeline.page_enabled", true)
	v.SetDefault("pipeline.retier_enabled", true)
	v.SetDefault("pipeline.jobs_max_results", 10)
	v.SetDefault("pipeline.multi_location_min_candidates", 3)
	v.SetDefault("batch.delay_ms", 2000)
	v.SetDefault("batch.records_per_minute", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks settings that do not depend on credentials.
func (c *Config) Validate() error {
	switch c.Provider.Listing {
	case ProviderApify, ProviderGoogle:
	default:
		return eris.Errorf("config: provider.listing must be apify or google, got %q", c.Provider.Listing)
	}
	switch c.Provider.Page {
	case ProviderApify, ProviderJina, ProviderNone:
	default:
		return eris.Errorf("config: provider.page must be apify, jina or none, got %q", c.Provider.Page)
	}
	if c.Provider.TimeoutSecs < 0 || c.Provider.BreakerFailures < 0 || c.Provider.BreakerResetSecs < 0 {
		return eris.New("config: provider timeouts and breaker settings must not be negative")
	}
	if c.Batch.DelayMS < 0 || c.Batch.RecordsPerMinute < 0 {
		return eris.New("config: batch pacing must not be negative")
	}
	return nil
}

// ValidateCredentials checks that every selected live provider has a key.
func (c *Config) ValidateCredentials() error {
	needsApify := c.Provider.Listing == ProviderApify || c.Provider.Page == ProviderApify || c.Pipeline.JobsEnabled
	if needsApify && c.Apify.Token == "" {
		return eris.New("config: apify.token is required (set TRIALS_APIFY_TOKEN)")
	}
	if c.Provider.Listing == ProviderGoogle && c.Google.Key == "" {
		return eris.New("config: google.key is required when provider.listing is google (set TRIALS_GOOGLE_KEY)")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
