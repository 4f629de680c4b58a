package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.MinConns = 0
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the three tables on first boot. The settings row
// itself is seeded by SettingsRepo.EnsureRow.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	ddl := []string{
		`
CREATE TABLE IF NOT EXISTS users (
	user_id  BIGINT PRIMARY KEY,
	is_admin BOOLEAN NOT NULL DEFAULT FALSE
)`,
		`
CREATE TABLE IF NOT EXISTS posts (
	post_id         BIGSERIAL PRIMARY KEY,
	owner_id        BIGINT NOT NULL,
	attachment_path TEXT NOT NULL,
	caption         TEXT,
	prompts         JSONB NOT NULL DEFAULT '[]'::jsonb
)`,
		`
CREATE TABLE IF NOT EXISTS settings (
	id             SMALLINT PRIMARY KEY,
	initialized    BOOLEAN NOT NULL DEFAULT FALSE,
	target_channel TEXT NOT NULL DEFAULT '',
	initializer_id BIGINT NOT NULL DEFAULT 0
)`,
	}

	for _, stmt := range ddl {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
