package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gmucodingclub/clubbot/validation"
	"github.com/spf13/viper"
)

// Config holds all the configuration for the application
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Quiz      QuizConfig      `mapstructure:"quiz"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// BotConfig holds the Telegram credentials
type BotConfig struct {
	Token string `mapstructure:"token" validate:"required"`
	Debug bool   `mapstructure:"debug"`
}

// CatalogConfig points at the SQLite catalog. The default keeps it in memory.
type CatalogConfig struct {
	DSN string `mapstructure:"dsn" validate:"required"`
}

// QuizConfig holds quiz timings
type QuizConfig struct {
	// AdvanceDelay is how long an answered question stays up; 0 advances at once
	AdvanceDelay time.Duration `mapstructure:"advance_delay" validate:"gte=0"`
}

// AssistantConfig tunes the chat assistant
type AssistantConfig struct {
	ReplyDelay    time.Duration `mapstructure:"reply_delay" validate:"gte=0"`
	RatePerMinute int           `mapstructure:"rate_per_minute" validate:"gte=0"`
	Burst         int           `mapstructure:"burst" validate:"gte=0"`
}

// LogConfig configures console and rotating file output
type LogConfig struct {
	Mode       string `mapstructure:"mode" validate:"omitempty,oneof=debug release"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// MetricsConfig sets the listen address of the metrics endpoint. Empty disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.debug", false)
	v.SetDefault("catalog.dsn", ":memory:")
	v.SetDefault("quiz.advance_delay", "1500ms")
	v.SetDefault("assistant.reply_delay", "1s")
	v.SetDefault("assistant.rate_per_minute", 20)
	v.SetDefault("assistant.burst", 5)
	v.SetDefault("log.mode", "release")
	v.SetDefault("log.file", "logs/clubbot.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("metrics.addr", ":9090")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("CLUBBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("bot.token", "CLUBBOT_BOT_TOKEN", "BOT_TOKEN")
	v.BindEnv("bot.debug", "CLUBBOT_BOT_DEBUG", "DEBUG")
	v.BindEnv("catalog.dsn", "CLUBBOT_CATALOG_DSN", "DB_PATH")

	setDefaults(v)
	return v
}

// Load reads config.yaml from path if it exists, then environment variables
func Load(path string) (*Config, error) {
	return load(newViper(path))
}

func load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config against its validate tags
func (c *Config) Validate() error {
	err := validation.Struct(c)
	if err == nil {
		return nil
	}

	fieldErrs, ok := validation.FieldErrors(err)
	if !ok {
		return fmt.Errorf("config validator: %w", err)
	}
	// the token has its own message since it is the one value without a default
	for _, fe := range fieldErrs {
		if fe.Namespace() == "Config.Bot.Token" {
			return errors.New("BOT_TOKEN environment variable is required")
		}
	}
	return fmt.Errorf("invalid configuration: %s", validation.Describe(err))
}

// Watch loads the config from path and calls onChange with every valid reload of config.yaml.
// Reloads that fail validation are passed to onError and otherwise ignored.
func Watch(path string, onChange func(*Config), onError func(error)) (*Config, error) {
	v := newViper(path)
	cfg, err := load(v)
	if err != nil {
		return nil, err
	}
	if v.ConfigFileUsed() == "" {
		return cfg, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := load(v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}
		onChange(next)
	})
	v.WatchConfig()
	return cfg, nil
}
