package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adpulse-io/adpulse/internal/models"
)

// PostgresPerformerRepo implements PerformerRepo using PostgreSQL. The Ads
// field is derived from the ads table on every read, so there is no
// performer-side array to keep in sync.
type PostgresPerformerRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPerformerRepo(pool *pgxpool.Pool) *PostgresPerformerRepo {
	return &PostgresPerformerRepo{pool: pool}
}

const performerQuery = `
	SELECT p.id, p.name, p.email, p.created_at,
	       COALESCE(array_agg(a.id ORDER BY a.created_at) FILTER (WHERE a.id IS NOT NULL), '{}')
	FROM performers p
	LEFT JOIN ads a ON a.performer_id = p.id
`

func scanPerformer(row pgx.Row) (*models.Performer, error) {
	var p models.Performer
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.Ads); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPerformerRepo) ListAll(ctx context.Context) ([]*models.Performer, error) {
	rows, err := r.pool.Query(ctx, performerQuery+` GROUP BY p.id ORDER BY p.created_at`)
	if err != nil {
		return nil, unavailable("list performers", err)
	}
	defer rows.Close()

	var performers []*models.Performer
	for rows.Next() {
		p, err := scanPerformer(rows)
		if err != nil {
			return nil, unavailable("scan performer", err)
		}
		performers = append(performers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate performers", err)
	}
	return performers, nil
}

func (r *PostgresPerformerRepo) GetByID(ctx context.Context, id string) (*models.Performer, error) {
	row := r.pool.QueryRow(ctx, performerQuery+` WHERE p.id = $1 GROUP BY p.id`, id)
	p, err := scanPerformer(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get performer", err)
	}
	return p, nil
}

func (r *PostgresPerformerRepo) GetByEmail(ctx context.Context, email string) (*models.Performer, error) {
	row := r.pool.QueryRow(ctx, performerQuery+` WHERE p.email = $1 GROUP BY p.id`, email)
	p, err := scanPerformer(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("get performer by email", err)
	}
	return p, nil
}

func (r *PostgresPerformerRepo) Insert(ctx context.Context, p *models.Performer) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO performers (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
	`, p.ID, p.Name, p.Email, p.CreatedAt)
	if err != nil {
		return unavailable("insert performer", err)
	}
	return nil
}
