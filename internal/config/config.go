package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

var ErrInvalidToken = errors.New("TELEGRAM_BOT_TOKEN looks invalid (expected token like 123:ABC)")

type Config struct {
	Token       string
	APIURL      string
	PollTimeout time.Duration

	AdminID    int64
	LogLevel   string
	LogPretty  bool
	Cooldown   time.Duration
	UploadPath string

	StoreBackend     string
	StoreDir         string
	AutosaveInterval time.Duration
	RedisURL         string

	MaxConcurrency int
	HandlerTimeout time.Duration

	MaxAttempts    int
	InitialBackoff time.Duration
	RateLimit      float64

	MetricsAddr string
}

// legacy environment variables, bound next to the config keys
var envBindings = map[string]string{
	"telegram.bot_token":           "TELEGRAM_BOT_TOKEN",
	"bot.admin_id":                 "ADMIN_ID",
	"bot.cooldown_seconds":         "COOLDOWN_SECONDS",
	"store.autosave_interval_secs": "AUTOSAVE_INTERVAL_SECS",
	"store.redis_url":              "REDIS_URL",
	"metrics.addr":                 "METRICS_ADDR",
}

func setDefaults() {
	viper.SetDefault("telegram.api_url", "https://api.telegram.org")
	viper.SetDefault("telegram.poll_timeout", "30s")
	viper.SetDefault("bot.log_level", "info")
	viper.SetDefault("bot.log_pretty", false)
	viper.SetDefault("bot.cooldown_seconds", 2)
	viper.SetDefault("bot.upload_path", "README.md")
	viper.SetDefault("store.backend", BackendFile)
	viper.SetDefault("store.dir", "data")
	viper.SetDefault("store.autosave_interval_secs", 30)
	viper.SetDefault("dispatcher.max_concurrency", 0)
	viper.SetDefault("handler.timeout", "2m")
	viper.SetDefault("client.max_attempts", 5)
	viper.SetDefault("client.initial_backoff", "500ms")
	viper.SetDefault("client.rate_limit", 0)
	viper.SetDefault("metrics.addr", "")
}

// Load reads .env, the optional config.toml in the working directory and the environment, in
// increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	setDefaults()

	viper.SetEnvPrefix("relaybot")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for key, env := range envBindings {
		if err := viper.BindEnv(key, "RELAYBOT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", env, err)
		}
	}

	log.Info().Msg("reading config file...")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
		log.Info().Msg("no config file found, using environment")
	}

	cfg := &Config{
		Token:       strings.TrimSpace(viper.GetString("telegram.bot_token")),
		APIURL:      viper.GetString("telegram.api_url"),
		PollTimeout: viper.GetDuration("telegram.poll_timeout"),

		AdminID:    viper.GetInt64("bot.admin_id"),
		LogLevel:   viper.GetString("bot.log_level"),
		LogPretty:  viper.GetBool("bot.log_pretty"),
		Cooldown:   time.Duration(viper.GetInt("bot.cooldown_seconds")) * time.Second,
		UploadPath: viper.GetString("bot.upload_path"),

		StoreBackend:     strings.ToLower(viper.GetString("store.backend")),
		StoreDir:         viper.GetString("store.dir"),
		AutosaveInterval: time.Duration(viper.GetInt("store.autosave_interval_secs")) * time.Second,
		RedisURL:         viper.GetString("store.redis_url"),

		MaxConcurrency: viper.GetInt("dispatcher.max_concurrency"),
		HandlerTimeout: viper.GetDuration("handler.timeout"),

		MaxAttempts:    viper.GetInt("client.max_attempts"),
		InitialBackoff: viper.GetDuration("client.initial_backoff"),
		RateLimit:      viper.GetFloat64("client.rate_limit"),

		MetricsAddr: viper.GetString("metrics.addr"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return errors.New("missing TELEGRAM_BOT_TOKEN")
	}

	if !ValidToken(c.Token) {
		return ErrInvalidToken
	}

	switch c.StoreBackend {
	case BackendFile:
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("store.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}

	if c.AutosaveInterval <= 0 {
		return errors.New("store.autosave_interval_secs must be positive")
	}

	return nil
}

// ValidToken reports whether token has the shape of a bot token.
func ValidToken(token string) bool {
	return strings.Contains(token, ":") && len(token) > 10
}
