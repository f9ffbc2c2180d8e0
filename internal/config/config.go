package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const (
	envPrefix     = "CHECKOUT_"
	configFileEnv = "CHECKOUT_CONFIG_FILE"
)

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

type Config struct {
	Primary     Primary           `koanf:"primary"`
	CheckoutAPI CheckoutAPIConfig `koanf:"checkout_api"`
	Retry       RetryConfig       `koanf:"retry"`
	Store       StoreConfig       `koanf:"store"`
	Database    DatabaseConfig    `koanf:"database" validate:"-"`
	Handler     HandlerConfig     `koanf:"handler"`
	Logger      LoggerConfig      `koanf:"logger"`
	Worker      WorkerConfig      `koanf:"worker"`
	Events      EventsConfig      `koanf:"events"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type CheckoutAPIConfig struct {
	ConnTimeout time.Duration `koanf:"conn_timeout" validate:"required"`
	UserAgent   string        `koanf:"user_agent"`
}

type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxRetries int32         `koanf:"max_retries"`
}

type StoreConfig struct {
	Driver     string `koanf:"driver" validate:"required,oneof=sqlite postgres redis memory"`
	SQLitePath string `koanf:"sqlite_path"`
	RedisURL   string `koanf:"redis_url"`
}

// DatabaseConfig is only validated when the postgres store is selected.
type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type HandlerConfig struct {
	PoolSize int `koanf:"pool_size" validate:"required,min=1"`
}

type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json text"`
}

type WorkerConfig struct {
	Interval   time.Duration `koanf:"interval" validate:"required"`
	SessionTTL time.Duration `koanf:"session_ttl" validate:"required"`
}

type EventsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Brokers string `koanf:"brokers"`
	Topic   string `koanf:"topic"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"primary.env":               "development",
		"checkout_api.conn_timeout": "30s",
		"checkout_api.user_agent":   "ficmart-checkout",
		"retry.base_delay":          "1s",
		"retry.max_retries":         3,
		"store.driver":              StoreSQLite,
		"store.sqlite_path":         "~/.ficmart/checkout.db",
		"handler.pool_size":         3,
		"logger.level":              "info",
		"logger.format":             "json",
		"worker.interval":           "1h",
		"worker.session_ttl":        "24h",
		"events.topic":              "checkout.payment-results",
	}
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		logger.Error("failed to load default configuration", "error", err)
		return nil, err
	}

	if path := os.Getenv(configFileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			logger.Error("failed to load configuration file", "path", path, "error", err)
			return nil, err
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	if err := mainConfig.Validate(); err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// Validate checks the struct tags plus the settings required by the selected
// store and event sink.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return err
	}

	switch c.Store.Driver {
	case StorePostgres:
		if err := validate.Struct(c.Database); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	case StoreRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required for the redis store")
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite store")
		}
	}

	if c.Events.Enabled && (c.Events.Brokers == "" || c.Events.Topic == "") {
		return fmt.Errorf("events.brokers and events.topic are required when events are enabled")
	}

	return nil
}
