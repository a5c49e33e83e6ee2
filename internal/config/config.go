package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Tavily    TavilyConfig    `yaml:"tavily" mapstructure:"tavily"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Scheduler SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the local fact store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// TavilyConfig holds Tavily search API settings.
type TavilyConfig struct {
	Key                   string `yaml:"key" mapstructure:"key"`
	BaseURL               string `yaml:"base_url" mapstructure:"base_url"`
	SearchDepth           string `yaml:"search_depth" mapstructure:"search_depth"`
	TimeoutSecs           int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts           int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffSecs           int    `yaml:"backoff_secs" mapstructure:"backoff_secs"`
	RateLimitCooldownSecs int    `yaml:"rate_limit_cooldown_secs" mapstructure:"rate_limit_cooldown_secs"`
}

// AnthropicConfig holds Anthropic API settings for the reasoning engine.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxTokens   int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SchedulerConfig configures the per-lead evidence scheduler.
type SchedulerConfig struct {
	MaxQueries      int      `yaml:"max_queries" mapstructure:"max_queries"`
	CriticalResults int      `yaml:"critical_results" mapstructure:"critical_results"`
	StandardResults int      `yaml:"standard_results" mapstructure:"standard_results"`
	Workers         int      `yaml:"workers" mapstructure:"workers"`
	TriggerTerms    []string `yaml:"trigger_terms" mapstructure:"trigger_terms"`
	SettlementYears []string `yaml:"settlement_years" mapstructure:"settlement_years"`
}

// BatchConfig configures batch orchestration.
type BatchConfig struct {
	SleepSecs int `yaml:"sleep_secs" mapstructure:"sleep_secs"`
	MinScore  int `yaml:"min_score" mapstructure:"min_score"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. A .env file in the
// working directory is loaded first so its values are visible to viper.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "data/fraud_data.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tavily.base_url", "https://api.tavily.com")
	v.SetDefault("tavily.search_depth", "advanced")
	v.SetDefault("tavily.timeout_secs", 30)
	v.SetDefault("tavily.max_attempts", 3)
	v.SetDefault("tavily.backoff_secs", 2)
	v.SetDefault("tavily.rate_limit_cooldown_secs", 15)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 3000)
	v.SetDefault("anthropic.timeout_secs", 120)
	v.SetDefault("scheduler.max_queries", 12)
	v.SetDefault("scheduler.critical_results", 3)
	v.SetDefault("scheduler.standard_results", 5)
	v.SetDefault("scheduler.workers", 4)
	v.SetDefault("scheduler.trigger_terms", []string{"copyright", "permission", "license", "licensing fee"})
	v.SetDefault("scheduler.settlement_years", []string{"2024", "2025"})
	v.SetDefault("batch.sleep_secs", 0)
	v.SetDefault("batch.min_score", 0)

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
