package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolSettings are the tunables for the pgx pool, all of them env driven
// through config. Zero values fall back to defaults suited to a small API.
type PoolSettings struct {
	MaxConns     int32
	MinConns     int32
	ConnLifetime time.Duration
	ConnIdleTime time.Duration
	PingInterval time.Duration
}

type DB struct {
	Pool *pgxpool.Pool
}

func Connect(ctx context.Context, databaseURL string, settings PoolSettings) (*DB, error) {
	cfg, err := poolConfig(databaseURL, settings)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	slog.Info("connected to postgres",
		"max_conns", cfg.MaxConns,
		"min_conns", cfg.MinConns,
		"conn_lifetime", cfg.MaxConnLifetime,
	)
	return &DB{Pool: pool}, nil
}

func poolConfig(databaseURL string, settings PoolSettings) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}

	if settings.MaxConns > 0 {
		cfg.MaxConns = settings.MaxConns
	}
	if settings.MinConns > 0 {
		cfg.MinConns = settings.MinConns
	}

	cfg.MaxConnLifetime = orDuration(settings.ConnLifetime, 30*time.Minute)
	cfg.MaxConnIdleTime = orDuration(settings.ConnIdleTime, 5*time.Minute)
	cfg.HealthCheckPeriod = orDuration(settings.PingInterval, 30*time.Second)

	return cfg, nil
}

func orDuration(v time.Duration, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}

func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

func (db *DB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
