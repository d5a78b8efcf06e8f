// Package config loads runtime configuration from an optional YAML file and
// STOCKCORE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"stockcore/internal/infrastructure/lock"
	"stockcore/internal/infrastructure/storage/postgres"
	"stockcore/pkg/logger"
)

// EnvPrefix is prepended to every environment key, e.g. STOCKCORE_POSTGRES_DSN.
const EnvPrefix = "STOCKCORE"

// Config is the full runtime configuration.
type Config struct {
	App struct {
		Env  string `mapstructure:"env"`
		Port string `mapstructure:"port"`
	} `mapstructure:"app"`

	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`

	Postgres struct {
		// Empty DSN runs the server on the in-memory store.
		DSN             string        `mapstructure:"dsn"`
		MaxConns        int32         `mapstructure:"max_conns"`
		MinConns        int32         `mapstructure:"min_conns"`
		MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
		// Zero leaves the server default.
		StatementTimeout time.Duration `mapstructure:"statement_timeout"`
		MigrateOnStart   bool          `mapstructure:"migrate_on_start"`
	} `mapstructure:"postgres"`

	Redis struct {
		// Empty Addr disables cross-process product locks.
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		LockTTL  time.Duration `mapstructure:"lock_ttl"`
		LockWait time.Duration `mapstructure:"lock_wait"`
	} `mapstructure:"redis"`

	Auth struct {
		JWTSecret        string        `mapstructure:"jwt_secret"`
		Issuer           string        `mapstructure:"issuer"`
		TokenTTL         time.Duration `mapstructure:"token_ttl"`
		PrivilegedPolicy string        `mapstructure:"privileged_policy"`
	} `mapstructure:"auth"`

	Idempotency struct {
		Enabled bool          `mapstructure:"enabled"`
		TTL     time.Duration `mapstructure:"ttl"`
	} `mapstructure:"idempotency"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 25)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", time.Hour)
	v.SetDefault("postgres.statement_timeout", 15*time.Second)
	v.SetDefault("postgres.migrate_on_start", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", 10*time.Second)
	v.SetDefault("redis.lock_wait", 3*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "stockcore")
	v.SetDefault("auth.token_ttl", 12*time.Hour)
	v.SetDefault("auth.privileged_policy", "")

	v.SetDefault("idempotency.enabled", true)
	v.SetDefault("idempotency.ttl", 24*time.Hour)

	v.SetDefault("metrics.enabled", true)
}

// Load reads path when it is non-empty, then applies environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		return errors.New("auth.jwt_secret is required outside development")
	}
	if c.Postgres.MinConns > c.Postgres.MaxConns {
		return fmt.Errorf("postgres.min_conns (%d) exceeds max_conns (%d)", c.Postgres.MinConns, c.Postgres.MaxConns)
	}
	return nil
}

// IsDevelopment reports whether app.env is "development".
func (c Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// UsesPostgres reports whether a database DSN is configured.
func (c Config) UsesPostgres() bool {
	return c.Postgres.DSN != ""
}

// Logger returns the logger configuration.
func (c Config) Logger() logger.Config {
	return logger.Config{
		Level:       c.Log.Level,
		Development: c.Log.Development || c.IsDevelopment(),
		Service:     "stockcore",
	}
}

// Pool returns the postgres pool configuration.
func (c Config) Pool() postgres.PoolConfig {
	pc := postgres.DefaultPoolConfig(c.Postgres.DSN)
	pc.MaxConns = c.Postgres.MaxConns
	pc.MinConns = c.Postgres.MinConns
	if c.Postgres.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.Postgres.MaxConnLifetime
	}
	pc.StatementTimeout = c.Postgres.StatementTimeout
	return pc
}

// Lock returns the redis locker configuration.
func (c Config) Lock() lock.Config {
	return lock.Config{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TTL:      c.Redis.LockTTL,
		Wait:     c.Redis.LockWait,
	}
}
