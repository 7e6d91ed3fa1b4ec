package db

import (
	"context"
	"fmt"
	"time"

	"codearena/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect пул соединений с проверкой ping
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected", "max_conns", cfg.MaxConns)
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS players (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	rank         TEXT NOT NULL DEFAULT '',
	avatar_url   TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS challenges (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	difficulty   TEXT NOT NULL CHECK (difficulty IN ('easy', 'medium', 'hard')),
	test_cases   JSONB NOT NULL DEFAULT '[]',
	starter_code TEXT NOT NULL DEFAULT '',
	is_active    BOOLEAN NOT NULL DEFAULT true,
	sort_order   INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS match_history (
	match_id      TEXT PRIMARY KEY,
	player_a_id   TEXT NOT NULL,
	player_b_id   TEXT NOT NULL,
	player_a      JSONB NOT NULL DEFAULT '{}',
	player_b      JSONB NOT NULL DEFAULT '{}',
	winner_id     TEXT,
	reason        TEXT NOT NULL,
	challenge_id  TEXT NOT NULL DEFAULT '',
	difficulty    TEXT NOT NULL DEFAULT '',
	progress_a    INT NOT NULL DEFAULT 0,
	progress_b    INT NOT NULL DEFAULT 0,
	started_at    TIMESTAMPTZ,
	ended_at      TIMESTAMPTZ NOT NULL,
	completion_ms BIGINT NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS match_history_player_a_idx ON match_history (player_a_id, ended_at DESC);
CREATE INDEX IF NOT EXISTS match_history_player_b_idx ON match_history (player_b_id, ended_at DESC);
`

// EnsureSchema создаёт таблицы, если их нет
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
