// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"ProductCatalog/internal/slot"
)

type Config struct {
	Port     string
	LogLevel string

	Storage    slot.Options
	StorageKey string

	NotificationTTL  time.Duration
	WriteLimitPerMin int
	ShutdownTimeout  time.Duration

	MetricsEnabled bool
	MetricsToken   string
}

var drivers = map[string]bool{"file": true, "memory": true, "redis": true, "postgres": true, "sqlite": true}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8082")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("STORAGE_DRIVER", "file")
	v.SetDefault("STORAGE_KEY", "products")
	v.SetDefault("STORAGE_DIR", "data")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "catalog:")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SQLITE_PATH", "catalog.db")

	v.SetDefault("NOTIFICATION_TTL", "3s")
	v.SetDefault("WRITE_LIMIT_PER_MIN", 120)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_TOKEN", "")
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:     strings.TrimPrefix(v.GetString("PORT"), ":"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Storage: slot.Options{
			Driver:        strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Dir:           v.GetString("STORAGE_DIR"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			RedisPrefix:   v.GetString("REDIS_PREFIX"),
			DatabaseURL:   v.GetString("DATABASE_URL"),
			SQLitePath:    v.GetString("SQLITE_PATH"),
		},
		StorageKey:       v.GetString("STORAGE_KEY"),
		NotificationTTL:  v.GetDuration("NOTIFICATION_TTL"),
		WriteLimitPerMin: v.GetInt("WRITE_LIMIT_PER_MIN"),
		ShutdownTimeout:  v.GetDuration("SHUTDOWN_TIMEOUT"),
		MetricsEnabled:   v.GetBool("METRICS_ENABLED"),
		MetricsToken:     v.GetString("METRICS_TOKEN"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if !drivers[c.Storage.Driver] {
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q is not one of file, memory, redis, postgres, sqlite", c.Storage.Driver))
	}
	if strings.TrimSpace(c.StorageKey) == "" {
		errs = append(errs, errors.New("STORAGE_KEY is required"))
	}
	if c.Storage.Driver == "postgres" && c.Storage.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
	}
	if c.NotificationTTL <= 0 {
		errs = append(errs, errors.New("NOTIFICATION_TTL must be positive"))
	}
	if c.WriteLimitPerMin <= 0 {
		errs = append(errs, errors.New("WRITE_LIMIT_PER_MIN must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return ":" + c.Port
}
