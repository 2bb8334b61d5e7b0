package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	GigaChat GigaChatConfig `mapstructure:"gigachat"`
	Store    StoreConfig    `mapstructure:"store"`
	Leads    LeadsConfig    `mapstructure:"leads"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type TelegramConfig struct {
	Token         string `mapstructure:"token"`
	UpdateTimeout int    `mapstructure:"update_timeout"` // seconds, long-poll
}

// GigaChatConfig holds access settings for the classification service:
// the OAuth endpoint that issues short-lived access tokens and the chat
// completions endpoint the classifier calls.
type GigaChatConfig struct {
	AuthURL    string        `mapstructure:"auth_url"`
	APIURL     string        `mapstructure:"api_url"`
	AuthKey    string        `mapstructure:"auth_key"` // base64(client_id:client_secret)
	Scope      string        `mapstructure:"scope"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	VerifySSL  bool          `mapstructure:"verify_ssl"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type StoreConfig struct {
	Backend string      `mapstructure:"backend"` // "memory" or "redis"
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LeadsConfig struct {
	FilePath string         `mapstructure:"file_path"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}
