// Package config loads riskwatch configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full service configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Weather WeatherConfig `yaml:"weather" mapstructure:"weather"`
	SMS     SMSConfig     `yaml:"sms" mapstructure:"sms"`
	Risk    RiskConfig    `yaml:"risk" mapstructure:"risk"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port          int    `yaml:"port" mapstructure:"port"`
	WebhookSecret string `yaml:"webhook_secret" mapstructure:"webhook_secret"`
}

// WeatherConfig holds current-weather provider settings.
type WeatherConfig struct {
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// Timeout returns the provider call timeout as a duration.
func (w WeatherConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSecs) * time.Second
}

// SMSConfig holds SMS provider credentials and routing.
type SMSConfig struct {
	AccountSID     string  `yaml:"account_sid" mapstructure:"account_sid"`
	AuthToken      string  `yaml:"auth_token" mapstructure:"auth_token"`
	FromNumber     string  `yaml:"from_number" mapstructure:"from_number"`
	AlertRecipient string  `yaml:"alert_recipient" mapstructure:"alert_recipient"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec     float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// Timeout returns the provider call timeout as a duration.
func (s SMSConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// RiskConfig configures the scoring pipeline.
type RiskConfig struct {
	PolicyPath   string `yaml:"policy_path" mapstructure:"policy_path"`
	WindowDays   int    `yaml:"window_days" mapstructure:"window_days"`
	AlertMinTier string `yaml:"alert_min_tier" mapstructure:"alert_min_tier"`
}

// Window returns the trailing history window as a duration.
func (r RiskConfig) Window() time.Duration {
	return time.Duration(r.WindowDays) * 24 * time.Hour
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
	v.SetEnvPrefix("RISKWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("server.port", 8080)
	v.SetDefault("weather.base_url", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("weather.timeout_secs", 10)
	v.SetDefault("weather.rate_per_sec", 1)
	v.SetDefault("sms.base_url", "https://api.twilio.com")
	v.SetDefault("sms.timeout_secs", 10)
	v.SetDefault("sms.rate_per_sec", 1)
	v.SetDefault("risk.window_days", 7)
	v.SetDefault("risk.alert_min_tier", "High")
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

// Validate checks that the configuration is complete enough to serve traffic.
// Weather and SMS credentials are intentionally not required: the pipeline
// degrades to sentinel values when a provider is unavailable.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Store.DatabaseURL == "" {
		return eris.New("config: store.database_url is required")
	}
	if c.Risk.WindowDays <= 0 {
		return eris.Errorf("config: risk.window_days must be positive (got %d)", c.Risk.WindowDays)
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
