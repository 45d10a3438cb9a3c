package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements creates the four collections: ad catalog, performer
// catalog, daily event logs, and daily stat records. The composite primary
// key on daily_ad_stats enforces at most one record per
// (performer, ad, day); ad_events ids give arrival order within a day.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS performers (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ads (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		performer_id   TEXT NOT NULL,
		performer_name TEXT NOT NULL,
		video_url      TEXT NOT NULL,
		target_url     TEXT NOT NULL,
		budget         TEXT NOT NULL,
		skip_time      DOUBLE PRECISION NOT NULL,
		exit_time      DOUBLE PRECISION NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ads_performer_idx ON ads (performer_id)`,
	`CREATE TABLE IF NOT EXISTS event_days (
		day        DATE PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ad_events (
		id             BIGSERIAL PRIMARY KEY,
		event_id       TEXT NOT NULL,
		day            DATE NOT NULL REFERENCES event_days (day),
		ad_id          TEXT NOT NULL,
		performer_id   TEXT NOT NULL,
		package_name   TEXT NOT NULL,
		client_ts      TEXT NOT NULL,
		event_type     TEXT NOT NULL,
		watch_duration DOUBLE PRECISION NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ad_events_package_idx ON ad_events (package_name)`,
	`CREATE INDEX IF NOT EXISTS ad_events_ad_idx ON ad_events (ad_id)`,
	`CREATE TABLE IF NOT EXISTS daily_ad_stats (
		performer_id       TEXT NOT NULL,
		ad_id              TEXT NOT NULL,
		day                DATE NOT NULL,
		views              BIGINT NOT NULL DEFAULT 0,
		clicks             BIGINT NOT NULL DEFAULT 0,
		skips              BIGINT NOT NULL DEFAULT 0,
		exits              BIGINT NOT NULL DEFAULT 0,
		watch_duration_sum DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at         TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (performer_id, ad_id, day)
	)`,
	`CREATE INDEX IF NOT EXISTS daily_ad_stats_ad_idx ON daily_ad_stats (ad_id, day)`,
}

// EnsureSchema creates missing tables and indexes at startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
