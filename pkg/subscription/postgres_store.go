package subscription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresStore implements Store on a pgx pool. The unique constraint on
// external_id plus a single INSERT ... ON CONFLICT statement makes the
// upsert atomic under concurrent webhook delivery.
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by PostgreSQL.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

const upsertQuery = `
INSERT INTO subscriptions (id, external_id, subscriber_id, capper_id, plan_id, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
ON CONFLICT (external_id) DO UPDATE SET
	active     = EXCLUDED.active,
	plan_id    = COALESCE(EXCLUDED.plan_id, subscriptions.plan_id),
	updated_at = now()
RETURNING id, external_id, subscriber_id, capper_id, plan_id, active, created_at, updated_at`

func (s *postgresStore) UpsertByExternalID(ctx context.Context, params UpsertParams) (*Subscription, error) {
	if params.ExternalID == "" {
		return nil, ErrMissingExternalID
	}

	row := s.pool.QueryRow(ctx, upsertQuery,
		uuid.New(), params.ExternalID, params.SubscriberID, params.CapperID, params.PlanID, params.Active)
	return scanSubscription(row)
}

func (s *postgresStore) GetByExternalID(ctx context.Context, externalID string) (*Subscription, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, external_id, subscriber_id, capper_id, plan_id, active, created_at, updated_at
FROM subscriptions
WHERE external_id = $1`, externalID)
	return scanSubscription(row)
}

func (s *postgresStore) FindActive(ctx context.Context, subscriberID, capperID uuid.UUID) (*Subscription, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, external_id, subscriber_id, capper_id, plan_id, active, created_at, updated_at
FROM subscriptions
WHERE subscriber_id = $1 AND capper_id = $2 AND active
ORDER BY created_at DESC
LIMIT 1`, subscriberID, capperID)
	return scanSubscription(row)
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	err := row.Scan(&sub.ID, &sub.ExternalID, &sub.SubscriberID, &sub.CapperID,
		&sub.PlanID, &sub.Active, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}
