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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Google    GoogleConfig    `yaml:"google" mapstructure:"google"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GoogleConfig holds Places API settings.
type GoogleConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	ClassifyModel string `yaml:"classify_model" mapstructure:"classify_model"`
	ScoreModel    string `yaml:"score_model" mapstructure:"score_model"`
}

// IngestConfig configures the ingestion run.
type IngestConfig struct {
	Query           string        `yaml:"query" mapstructure:"query"`
	TargetCount     int           `yaml:"target_count" mapstructure:"target_count"`
	MaxImages       int           `yaml:"max_images" mapstructure:"max_images"`
	MaxReviews      int           `yaml:"max_reviews" mapstructure:"max_reviews"`
	RequestInterval time.Duration `yaml:"request_interval" mapstructure:"request_interval"`
	PageDelay       time.Duration `yaml:"page_delay" mapstructure:"page_delay"`
	MaxPages        int           `yaml:"max_pages" mapstructure:"max_pages"`
	ImageDelay      time.Duration `yaml:"image_delay" mapstructure:"image_delay"`
	MaxAttempts     int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryBackoff    time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	DedupDegrees    float64       `yaml:"dedup_degrees" mapstructure:"dedup_degrees"`
	ProgressEvery   int           `yaml:"progress_every" mapstructure:"progress_every"`
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
	v.SetEnvPrefix("TASTEVINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential keys default to empty so AutomaticEnv picks
	// them up when they are set only through the environment.
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("google.key", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("anthropic.classify_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.score_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("ingest.query", "restaurant")
	v.SetDefault("ingest.target_count", 50)
	v.SetDefault("ingest.max_images", 8)
	v.SetDefault("ingest.max_reviews", 5)
	v.SetDefault("ingest.request_interval", 250*time.Millisecond)
	v.SetDefault("ingest.page_delay", 2*time.Second)
	v.SetDefault("ingest.max_pages", 5)
	v.SetDefault("ingest.image_delay", 500*time.Millisecond)
	v.SetDefault("ingest.max_attempts", 3)
	v.SetDefault("ingest.retry_backoff", 500*time.Millisecond)
	v.SetDefault("ingest.dedup_degrees", 0.0005)
	v.SetDefault("ingest.progress_every", 10)

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

// Validate checks for credentials the pipeline cannot run without. Called
// before any work begins so a misconfigured run aborts up front.
func (c *Config) Validate() error {
	if c.Google.Key == "" {
		return eris.New("config: google.key is required")
	}
	if c.Anthropic.Key == "" {
		return eris.New("config: anthropic.key is required")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		return eris.New("config: store.database_url is required for postgres")
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
