package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adpulse-io/adpulse/internal/models"
)

// PostgresEventStore implements EventStore using PostgreSQL. Appends run in
// a short transaction: create the day's log row if this is the day's first
// event (ON CONFLICT DO NOTHING keeps its creation timestamp untouched on
// every later append), then append the event itself. Arrival order within a
// day is the bigserial order, not the client timestamp order.
type PostgresEventStore struct {
	pool *pgxpool.Pool
}

func NewPostgresEventStore(pool *pgxpool.Pool) *PostgresEventStore {
	return &PostgresEventStore{pool: pool}
}

func (s *PostgresEventStore) Append(ctx context.Context, ev *models.Event) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return unavailable("begin append", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO event_days (day, created_at)
		VALUES ($1, $2)
		ON CONFLICT (day) DO NOTHING
	`, ev.Day, ev.CreatedAt)
	if err != nil {
		return unavailable("create day log", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO ad_events (event_id, day, ad_id, performer_id, package_name, client_ts, event_type, watch_duration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		ev.ID, ev.Day, ev.AdID, ev.PerformerID, ev.PackageName,
		ev.Timestamp, string(ev.Kind), ev.WatchDuration, ev.CreatedAt,
	)
	if err != nil {
		return unavailable("append event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return unavailable("commit append", err)
	}
	return nil
}

func (s *PostgresEventStore) SeenAdIDs(ctx context.Context, packageName string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ad_id FROM ad_events WHERE package_name = $1
	`, packageName)
	if err != nil {
		return nil, unavailable("query seen ads", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, unavailable("scan seen ad", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate seen ads", err)
	}
	return ids, nil
}

func (s *PostgresEventStore) DeleteByAd(ctx context.Context, adID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM ad_events WHERE ad_id = $1`, adID); err != nil {
		return unavailable("delete events", err)
	}
	return nil
}
