package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from config files and environment variables.
// Lookup order: explicit path (if given), ./configs, current directory.
// Environment variables override file values using the LEADBOT_ prefix,
// e.g. LEADBOT_TELEGRAM_TOKEN overrides telegram.token.
func Load(configPath string) (*Config, error) {
	// .env is optional; absence is not an error
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEADBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvKeys(v)
	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// no config file is fine, env + defaults carry the load
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// bindEnvKeys makes AutomaticEnv aware of nested keys so that env-only
// deployments work without a config file present.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"app.name",
		"app.environment",
		"telegram.token",
		"telegram.update_timeout",
		"gigachat.auth_url",
		"gigachat.api_url",
		"gigachat.auth_key",
		"gigachat.scope",
		"gigachat.model",
		"gigachat.timeout",
		"gigachat.verify_ssl",
		"gigachat.max_retries",
		"store.backend",
		"store.redis.address",
		"store.redis.password",
		"store.redis.db",
		"store.redis.ttl",
		"leads.file_path",
		"leads.postgres.enabled",
		"leads.postgres.dsn",
		"logging.level",
		"logging.format",
		"metrics.enabled",
		"metrics.address",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "autolead-bot")
	v.SetDefault("app.environment", "development")

	v.SetDefault("telegram.update_timeout", 30)

	v.SetDefault("gigachat.auth_url", "https://ngw.devices.sberbank.ru:9443/api/v2/oauth")
	v.SetDefault("gigachat.api_url", "https://gigachat.devices.sberbank.ru/api/v1")
	v.SetDefault("gigachat.scope", "GIGACHAT_API_PERS")
	v.SetDefault("gigachat.model", "GigaChat")
	v.SetDefault("gigachat.timeout", 30*time.Second)
	v.SetDefault("gigachat.verify_ssl", false)
	v.SetDefault("gigachat.max_retries", 2)

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.redis.address", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.ttl", 24*time.Hour)

	v.SetDefault("leads.file_path", "leads.jsonl")
	v.SetDefault("leads.postgres.enabled", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.address", ":9090")
}

func validateConfig(cfg *Config) error {
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if cfg.GigaChat.AuthKey == "" {
		return fmt.Errorf("gigachat.auth_key is required")
	}
	if cfg.GigaChat.AuthURL == "" || cfg.GigaChat.APIURL == "" {
		return fmt.Errorf("gigachat.auth_url and gigachat.api_url are required")
	}

	switch cfg.Store.Backend {
	case "memory":
	case "redis":
		if cfg.Store.Redis.Address == "" {
			return fmt.Errorf("store.redis.address is required when store.backend is redis")
		}
	default:
		return fmt.Errorf("unknown store.backend %q (expected memory or redis)", cfg.Store.Backend)
	}

	if cfg.Leads.Postgres.Enabled && cfg.Leads.Postgres.DSN == "" {
		return fmt.Errorf("leads.postgres.dsn is required when leads.postgres.enabled is true")
	}
	if cfg.Leads.FilePath == "" && !cfg.Leads.Postgres.Enabled {
		return fmt.Errorf("at least one lead sink must be configured")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level %q", cfg.Logging.Level)
	}

	return nil
}
