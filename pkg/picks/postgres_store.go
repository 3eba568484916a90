package picks

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by PostgreSQL.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Create(ctx context.Context, params CreateParams) (*Pick, error) {
	row := s.pool.QueryRow(ctx, `
INSERT INTO picks (id, capper_id, event, line, sport, confidence, analysis, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
RETURNING id, capper_id, event, line, sport, confidence, analysis, created_at`,
		uuid.New(), params.CapperID, params.Event, params.Line, params.Sport, params.Confidence, params.Analysis)

	var pick Pick
	if err := row.Scan(&pick.ID, &pick.CapperID, &pick.Event, &pick.Line, &pick.Sport,
		&pick.Confidence, &pick.Analysis, &pick.CreatedAt); err != nil {
		return nil, err
	}
	return &pick, nil
}

func (s *postgresStore) ListByCapper(ctx context.Context, capperID uuid.UUID) ([]Pick, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, capper_id, event, line, sport, confidence, analysis, created_at
FROM picks
WHERE capper_id = $1
ORDER BY created_at DESC`, capperID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Pick, error) {
		var pick Pick
		err := row.Scan(&pick.ID, &pick.CapperID, &pick.Event, &pick.Line, &pick.Sport,
			&pick.Confidence, &pick.Analysis, &pick.CreatedAt)
		return pick, err
	})
}
