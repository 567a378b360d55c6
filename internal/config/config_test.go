package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("MONGODB_URI", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
	assert.True(t, cfg.Postgres.RunMigrations)
	assert.Equal(t, 12*time.Hour, cfg.Redis.PresenceTTL())
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 5, cfg.Redis.DialTimeoutSeconds)
	assert.Equal(t, "wallboard", cfg.Mongo.Database)
	assert.Equal(t, 8*time.Hour, cfg.Auth.AccessTokenTTL())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Zero(t, cfg.App.RequestTimeout())
}

func TestLoad_InvalidNumber(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:  AppConfig{Env: "production", Port: "8080"},
			Auth: AuthConfig{JWTSecret: "0123456789abcdef0123456789abcdef", AccessTokenTTLMinutes: 60},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid production", mutate: func(*Config) {}},
		{name: "default secret", mutate: func(c *Config) { c.Auth.JWTSecret = defaultJWTSecret }, wantErr: "insecure default"},
		{name: "short secret", mutate: func(c *Config) { c.Auth.JWTSecret = "short" }, wantErr: "too short"},
		{name: "development allows default secret", mutate: func(c *Config) {
			c.App.Env = "development"
			c.Auth.JWTSecret = defaultJWTSecret
		}},
		{name: "non-positive ttl", mutate: func(c *Config) { c.Auth.AccessTokenTTLMinutes = 0 }, wantErr: "must be positive"},
		{name: "empty port", mutate: func(c *Config) { c.App.Port = "" }, wantErr: "APP_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
