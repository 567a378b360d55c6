package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/wallboard-service/internal/config"
)

// Postgres holds the account store pool. A Postgres without a pool means the
// service runs on the in-memory account store.
type Postgres struct {
	Pool *pgxpool.Pool
}

// NewPostgres connects, retrying with backoff, and applies the embedded
// migrations when enabled. An empty DSN selects in-memory mode.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("POSTGRES_DSN not provided; using in-memory account store")
		return &Postgres{}, nil
	}

	var pool *pgxpool.Pool
	err := startupRetry.do(ctx, logger, "postgres", func(ctx context.Context) error {
		poolCfg, err := poolConfig(cfg)
		if err != nil {
			return err
		}
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("connected to postgres", zap.Int32("max_conns", pool.Config().MaxConns))

	if cfg.RunMigrations {
		if err := RunMigrations(cfg.DSN, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &Postgres{Pool: pool}, nil
}

// poolConfig overlays the configured pool limits on the DSN's settings.
func poolConfig(cfg config.PostgresConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = min(cfg.MinConns, poolCfg.MaxConns)
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}
	return poolCfg, nil
}

// InMemory reports whether no database is configured.
func (p *Postgres) InMemory() bool {
	return p == nil || p.Pool == nil
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if !p.InMemory() {
		p.Pool.Close()
	}
}

// Ping verifies database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if p.InMemory() {
		return errors.New("postgres pool not configured")
	}
	return p.Pool.Ping(ctx)
}
