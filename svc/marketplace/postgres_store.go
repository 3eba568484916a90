package marketplace

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/capperstack/capperstack/pkg/billing"
	"github.com/capperstack/capperstack/pkg/identity"
)

// Stored enum strings are trusted; fall back to the raw value rather than
// failing a read on an unexpected one.
func billingInterval(s string) billing.Interval {
	if interval, ok := billing.ParseInterval(s); ok {
		return interval
	}
	return billing.Interval(s)
}

func identityRole(s string) identity.Role {
	if role, err := identity.ParseRole(s); err == nil {
		return role
	}
	return identity.Role(s)
}

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by PostgreSQL.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const userColumns = "id, email, password_hash, name, role, billing_customer_id, payout_account_id, created_at"

func (s *postgresStore) CreateUser(ctx context.Context, user *User) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO users (id, email, password_hash, name, role, created_at)
VALUES ($1, lower($2), $3, $4, $5, now())`,
		user.ID, user.Email, user.PasswordHash, user.Name, string(user.Role))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (s *postgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *postgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = lower($1)`, email)
	return scanUser(row)
}

func (s *postgresStore) SetBillingCustomerID(ctx context.Context, userID uuid.UUID, customerID string) (*User, error) {
	// COALESCE keeps the first written reference so racing checkouts
	// cannot swap the customer under each other.
	row := s.pool.QueryRow(ctx, `
UPDATE users
SET billing_customer_id = COALESCE(billing_customer_id, $2)
WHERE id = $1
RETURNING `+userColumns, userID, customerID)
	return scanUser(row)
}

func (s *postgresStore) SetPayoutAccountID(ctx context.Context, userID uuid.UUID, accountID string) (*User, error) {
	row := s.pool.QueryRow(ctx, `
UPDATE users
SET payout_account_id = $2
WHERE id = $1
RETURNING `+userColumns, userID, accountID)
	return scanUser(row)
}

func (s *postgresStore) CreateCapper(ctx context.Context, capper *Capper) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO cappers (user_id, display_name, bio, verified, created_at)
VALUES ($1, $2, $3, $4, now())`,
		capper.UserID, capper.DisplayName, capper.Bio, capper.Verified)
	return err
}

func (s *postgresStore) GetCapper(ctx context.Context, userID uuid.UUID) (*Capper, error) {
	row := s.pool.QueryRow(ctx, `
SELECT user_id, display_name, bio, verified, created_at
FROM cappers WHERE user_id = $1`, userID)

	var capper Capper
	err := row.Scan(&capper.UserID, &capper.DisplayName, &capper.Bio, &capper.Verified, &capper.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCapperNotFound
		}
		return nil, err
	}
	return &capper, nil
}

func (s *postgresStore) ListCappers(ctx context.Context) ([]Capper, error) {
	rows, err := s.pool.Query(ctx, `
SELECT user_id, display_name, bio, verified, created_at
FROM cappers ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Capper, error) {
		var capper Capper
		err := row.Scan(&capper.UserID, &capper.DisplayName, &capper.Bio, &capper.Verified, &capper.CreatedAt)
		return capper, err
	})
}

func (s *postgresStore) SetCapperVerified(ctx context.Context, userID uuid.UUID, verified bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE cappers SET verified = $2 WHERE user_id = $1`, userID, verified)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCapperNotFound
	}
	return nil
}

func (s *postgresStore) CreatePlan(ctx context.Context, plan *Plan) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO plans (id, capper_id, name, price_cents, interval, created_at)
VALUES ($1, $2, $3, $4, $5, now())`,
		plan.ID, plan.CapperID, plan.Name, plan.PriceCents, string(plan.Interval))
	return err
}

func (s *postgresStore) GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, capper_id, name, price_cents, interval, created_at
FROM plans WHERE id = $1`, id)
	return scanPlan(row)
}

func (s *postgresStore) ListPlansByCapper(ctx context.Context, capperID uuid.UUID) ([]Plan, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, capper_id, name, price_cents, interval, created_at
FROM plans WHERE capper_id = $1 ORDER BY created_at`, capperID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Plan, error) {
		var plan Plan
		var interval string
		err := row.Scan(&plan.ID, &plan.CapperID, &plan.Name, &plan.PriceCents, &interval, &plan.CreatedAt)
		plan.Interval = billingInterval(interval)
		return plan, err
	})
}

func (s *postgresStore) UpsertVerificationRequest(ctx context.Context, capperID uuid.UUID, note string) (*VerificationRequest, error) {
	row := s.pool.QueryRow(ctx, `
INSERT INTO verification_requests (id, capper_id, status, note, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now())
ON CONFLICT (capper_id) DO UPDATE SET
	status     = EXCLUDED.status,
	note       = EXCLUDED.note,
	updated_at = now()
RETURNING id, capper_id, status, note, created_at, updated_at`,
		uuid.New(), capperID, string(VerificationPending), note)
	return scanVerification(row)
}

func (s *postgresStore) GetVerificationRequest(ctx context.Context, capperID uuid.UUID) (*VerificationRequest, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, capper_id, status, note, created_at, updated_at
FROM verification_requests WHERE capper_id = $1`, capperID)
	return scanVerification(row)
}

func (s *postgresStore) ListPendingVerificationRequests(ctx context.Context) ([]VerificationRequest, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, capper_id, status, note, created_at, updated_at
FROM verification_requests
WHERE status = $1 ORDER BY created_at`, string(VerificationPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (VerificationRequest, error) {
		var req VerificationRequest
		var status string
		err := row.Scan(&req.ID, &req.CapperID, &status, &req.Note, &req.CreatedAt, &req.UpdatedAt)
		req.Status = VerificationStatus(status)
		return req, err
	})
}

func (s *postgresStore) SetVerificationStatus(ctx context.Context, capperID uuid.UUID, status VerificationStatus) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE verification_requests SET status = $2, updated_at = now()
WHERE capper_id = $1`, capperID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVerificationNotFound
	}
	return nil
}

func (s *postgresStore) GetSettings(ctx context.Context) (*PlatformSettings, error) {
	// Singleton row, id is fixed at 1.
	row := s.pool.QueryRow(ctx, `
SELECT verified_fee_bps, unverified_fee_bps, updated_at
FROM platform_settings WHERE id = 1`)

	var settings PlatformSettings
	err := row.Scan(&settings.VerifiedFeeBps, &settings.UnverifiedFeeBps, &settings.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (s *postgresStore) UpsertSettings(ctx context.Context, settings *PlatformSettings) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO platform_settings (id, verified_fee_bps, unverified_fee_bps, updated_at)
VALUES (1, $1, $2, now())
ON CONFLICT (id) DO UPDATE SET
	verified_fee_bps   = EXCLUDED.verified_fee_bps,
	unverified_fee_bps = EXCLUDED.unverified_fee_bps,
	updated_at         = now()`,
		settings.VerifiedFeeBps, settings.UnverifiedFeeBps)
	return err
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	var role string
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &role,
		&user.BillingCustomerID, &user.PayoutAccountID, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.Role = identityRole(role)
	return &user, nil
}

func scanPlan(row pgx.Row) (*Plan, error) {
	var plan Plan
	var interval string
	err := row.Scan(&plan.ID, &plan.CapperID, &plan.Name, &plan.PriceCents, &interval, &plan.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	plan.Interval = billingInterval(interval)
	return &plan, nil
}

func scanVerification(row pgx.Row) (*VerificationRequest, error) {
	var req VerificationRequest
	var status string
	err := row.Scan(&req.ID, &req.CapperID, &status, &req.Note, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVerificationNotFound
		}
		return nil, err
	}
	req.Status = VerificationStatus(status)
	return &req, nil
}
