package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adpulse-io/adpulse/internal/models"
)

// PostgresStatsRepo implements StatsRepo using PostgreSQL. Increment maps
// the increment-or-initialize contract onto a single conditional write:
// the ON CONFLICT arithmetic commutes, so concurrent increments on the same
// key never lose updates and final totals are order-independent.
type PostgresStatsRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresStatsRepo(pool *pgxpool.Pool) *PostgresStatsRepo {
	return &PostgresStatsRepo{pool: pool}
}

func (r *PostgresStatsRepo) Increment(ctx context.Context, performerID, adID, day string, delta models.StatDelta, createdAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO daily_ad_stats (performer_id, ad_id, day, views, clicks, skips, exits, watch_duration_sum, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (performer_id, ad_id, day) DO UPDATE SET
			views = daily_ad_stats.views + EXCLUDED.views,
			clicks = daily_ad_stats.clicks + EXCLUDED.clicks,
			skips = daily_ad_stats.skips + EXCLUDED.skips,
			exits = daily_ad_stats.exits + EXCLUDED.exits,
			watch_duration_sum = daily_ad_stats.watch_duration_sum + EXCLUDED.watch_duration_sum
	`,
		performerID, adID, day,
		delta.Views, delta.Clicks, delta.Skips, delta.Exits, delta.WatchDurationSum,
		createdAt,
	)
	if err != nil {
		return unavailable("increment daily stats", err)
	}
	return nil
}

// dateFilter appends inclusive day bounds to a WHERE clause.
func dateFilter(where string, args []any, r models.DateRange) (string, []any) {
	if r.From != "" {
		args = append(args, r.From)
		where += fmt.Sprintf(" AND day >= $%d", len(args))
	}
	if r.To != "" {
		args = append(args, r.To)
		where += fmt.Sprintf(" AND day <= $%d", len(args))
	}
	return where, args
}

func (r *PostgresStatsRepo) ForAd(ctx context.Context, adID string, dr models.DateRange) (models.StatTotals, error) {
	where, args := dateFilter(`WHERE ad_id = $1`, []any{adID}, dr)

	var t models.StatTotals
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(views), 0), COALESCE(SUM(clicks), 0),
		       COALESCE(SUM(skips), 0), COALESCE(SUM(exits), 0),
		       COALESCE(SUM(watch_duration_sum), 0)
		FROM daily_ad_stats `+where,
		args...,
	).Scan(&t.Views, &t.Clicks, &t.Skips, &t.Exits, &t.WatchDurationSum)
	if err != nil {
		return models.StatTotals{}, unavailable("sum ad stats", err)
	}
	return t, nil
}

func (r *PostgresStatsRepo) ForPerformer(ctx context.Context, performerID string, dr models.DateRange) ([]models.AdTotals, error) {
	where, args := dateFilter(`WHERE performer_id = $1`, []any{performerID}, dr)

	rows, err := r.pool.Query(ctx, `
		SELECT ad_id, SUM(views), SUM(clicks), SUM(skips), SUM(exits), SUM(watch_duration_sum)
		FROM daily_ad_stats `+where+`
		GROUP BY ad_id ORDER BY ad_id`,
		args...,
	)
	if err != nil {
		return nil, unavailable("sum performer stats", err)
	}
	defer rows.Close()

	var out []models.AdTotals
	for rows.Next() {
		var at models.AdTotals
		if err := rows.Scan(&at.AdID, &at.Totals.Views, &at.Totals.Clicks, &at.Totals.Skips, &at.Totals.Exits, &at.Totals.WatchDurationSum); err != nil {
			return nil, unavailable("scan performer stats", err)
		}
		out = append(out, at)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate performer stats", err)
	}
	return out, nil
}

func (r *PostgresStatsRepo) DeleteByAd(ctx context.Context, adID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM daily_ad_stats WHERE ad_id = $1`, adID); err != nil {
		return unavailable("delete ad stats", err)
	}
	return nil
}
