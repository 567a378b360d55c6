package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "dev-secret"

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"wallboard-admin-service"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
}

// PostgresConfig holds DB connection values. An empty DSN selects the
// in-memory account store.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr               string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	Password           string `env:"REDIS_PASSWORD"`
	DB                 int    `env:"REDIS_DB" envDefault:"0"`
	PresenceTTLMinutes int    `env:"REDIS_PRESENCE_TTL_MINUTES" envDefault:"720"`
	PoolSize           int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	DialTimeoutSeconds int    `env:"REDIS_DIAL_TIMEOUT_SECONDS" envDefault:"5"`
}

// MongoConfig holds document store values. An empty URI selects the
// in-memory log store.
type MongoConfig struct {
	URI                   string `env:"MONGODB_URI"`
	Database              string `env:"MONGODB_DATABASE" envDefault:"wallboard"`
	ConnectTimeoutSeconds int    `env:"MONGODB_CONNECT_TIMEOUT_SECONDS" envDefault:"10"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string `env:"AUTH_JWT_SECRET" envDefault:"dev-secret"`
	AccessTokenTTLMinutes int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"480"`
	// BootstrapAdmin is created at startup when no live account holds it.
	BootstrapAdmin string `env:"AUTH_BOOTSTRAP_ADMIN" envDefault:"AD001"`
}

// Load reads configuration from the environment, after merging an optional
// .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that must not reach a non-development deployment.
func (c *Config) Validate() error {
	var errs []error
	if c.App.Port == "" {
		errs = append(errs, errors.New("APP_PORT must not be empty"))
	}
	if c.Auth.AccessTokenTTLMinutes <= 0 {
		errs = append(errs, fmt.Errorf("AUTH_ACCESS_TOKEN_TTL_MINUTES must be positive, got %d", c.Auth.AccessTokenTTLMinutes))
	}
	if c.App.Env != "development" && c.App.Env != "test" {
		if c.Auth.JWTSecret == defaultJWTSecret {
			errs = append(errs, errors.New("AUTH_JWT_SECRET is set to the insecure default"))
		} else if len(c.Auth.JWTSecret) < 32 {
			errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.Auth.JWTSecret)))
		}
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// PresenceTTL returns how long a cached presence entry lives.
func (r RedisConfig) PresenceTTL() time.Duration {
	if r.PresenceTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(r.PresenceTTLMinutes) * time.Minute
}

// ConnectTimeout bounds the initial document store connection.
func (m MongoConfig) ConnectTimeout() time.Duration {
	if m.ConnectTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(m.ConnectTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the lifetime of issued tokens.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}
