package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adpulse-io/adpulse/internal/models"
)

// PostgresAdRepo implements AdRepo using PostgreSQL.
type PostgresAdRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresAdRepo(pool *pgxpool.Pool) *PostgresAdRepo {
	return &PostgresAdRepo{pool: pool}
}

const adColumns = `id, name, performer_id, performer_name, video_url, target_url, budget, skip_time, exit_time, created_at, updated_at`

func scanAd(row pgx.Row) (*models.Ad, error) {
	var a models.Ad
	err := row.Scan(
		&a.ID, &a.Name, &a.PerformerID, &a.PerformerName,
		&a.Details.VideoURL, &a.Details.TargetURL, &a.Details.Budget,
		&a.Details.SkipTime, &a.Details.ExitTime,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresAdRepo) ListAll(ctx context.Context) ([]*models.Ad, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+adColumns+` FROM ads ORDER BY created_at`)
	if err != nil {
		return nil, unavailable("list ads", err)
	}
	defer rows.Close()

	var ads []*models.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, unavailable("scan ad", err)
		}
		ads = append(ads, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate ads", err)
	}
	return ads, nil
}

func (r *PostgresAdRepo) GetByID(ctx context.Context, id string) (*models.Ad, error) {
	a, err := scanAd(r.pool.QueryRow(ctx, `SELECT `+adColumns+` FROM ads WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get ad", err)
	}
	return a, nil
}

func (r *PostgresAdRepo) Insert(ctx context.Context, ad *models.Ad) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ads (`+adColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		ad.ID, ad.Name, ad.PerformerID, ad.PerformerName,
		ad.Details.VideoURL, ad.Details.TargetURL, ad.Details.Budget,
		ad.Details.SkipTime, ad.Details.ExitTime,
		ad.CreatedAt, ad.UpdatedAt,
	)
	if err != nil {
		return unavailable("insert ad", err)
	}
	return nil
}

func (r *PostgresAdRepo) Update(ctx context.Context, ad *models.Ad) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE ads SET
			name = $2,
			video_url = $3,
			target_url = $4,
			budget = $5,
			skip_time = $6,
			exit_time = $7,
			updated_at = $8
		WHERE id = $1
	`,
		ad.ID, ad.Name,
		ad.Details.VideoURL, ad.Details.TargetURL, ad.Details.Budget,
		ad.Details.SkipTime, ad.Details.ExitTime,
		ad.UpdatedAt,
	)
	if err != nil {
		return false, unavailable("update ad", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresAdRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ads WHERE id = $1`, id)
	if err != nil {
		return false, unavailable("delete ad", err)
	}
	return tag.RowsAffected() > 0, nil
}
