package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/ports/repository"
)

// NewPgxPool opens a connection pool and verifies it with a ping.
func NewPgxPool(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the two tables if missing. The bot has no
// migrations or schema versioning; the shapes below are the whole model.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS members (
  telegram_id BIGINT PRIMARY KEY,
  expires_at  TIMESTAMPTZ NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL,
  updated_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS channels (
  id         UUID PRIMARY KEY,
  name       TEXT NOT NULL,
  url        TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  UNIQUE (name, url)
);
`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// pickRow routes a single-row query through a transaction handle when one is
// supplied, else through the pool.
func pickRow(ctx context.Context, pool *pgxpool.Pool, qx repository.Tx, sql string, args ...interface{}) pgx.Row {
	switch v := qx.(type) {
	case pgx.Tx:
		return v.QueryRow(ctx, sql, args...)
	case *pgxpool.Conn:
		return v.QueryRow(ctx, sql, args...)
	default:
		return pool.QueryRow(ctx, sql, args...)
	}
}

func pickExec(ctx context.Context, pool *pgxpool.Pool, qx repository.Tx, sql string, args ...interface{}) error {
	var err error
	switch v := qx.(type) {
	case pgx.Tx:
		_, err = v.Exec(ctx, sql, args...)
	case *pgxpool.Conn:
		_, err = v.Exec(ctx, sql, args...)
	default:
		_, err = pool.Exec(ctx, sql, args...)
	}
	return err
}

func pickQuery(ctx context.Context, pool *pgxpool.Pool, qx repository.Tx, sql string, args ...interface{}) (pgx.Rows, error) {
	switch v := qx.(type) {
	case pgx.Tx:
		return v.Query(ctx, sql, args...)
	case *pgxpool.Conn:
		return v.Query(ctx, sql, args...)
	default:
		return pool.Query(ctx, sql, args...)
	}
}

// translateErr maps low-level Postgres errors onto domain sentinels.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return domain.ErrAlreadyExists
	}
	return err
}
