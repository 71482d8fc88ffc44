package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClaimRepository stores activation claims: short-lived reservations written
// by the invitation-acceptance flow so the generic sign-in listener defers to
// it instead of racing it with a bare profile.
type ClaimRepository interface {
	Put(ctx context.Context, claim *ActivationClaim) error
	FindLiveByEmail(ctx context.Context, email string) (*ActivationClaim, error)
	DeleteByEmail(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context) (int, error)
}

type pgClaimRepository struct {
	pool *pgxpool.Pool
}

func NewClaimRepository(pool *pgxpool.Pool) ClaimRepository {
	return &pgClaimRepository{pool: pool}
}

func (r *pgClaimRepository) Put(ctx context.Context, claim *ActivationClaim) error {
	query := `
		INSERT INTO activation_claims (email, durable_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			durable_id = EXCLUDED.durable_id,
			created_at = NOW(),
			expires_at = EXCLUDED.expires_at
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		claim.Email, claim.DurableID, claim.ExpiresAt,
	).Scan(&claim.ID, &claim.CreatedAt)
}

func (r *pgClaimRepository) FindLiveByEmail(ctx context.Context, email string) (*ActivationClaim, error) {
	query := `
		SELECT id, email, durable_id, created_at, expires_at
		FROM activation_claims
		WHERE email = $1 AND expires_at > $2
	`
	claim := &ActivationClaim{}
	err := r.pool.QueryRow(ctx, query, email, time.Now()).Scan(
		&claim.ID, &claim.Email, &claim.DurableID, &claim.CreatedAt, &claim.ExpiresAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (r *pgClaimRepository) DeleteByEmail(ctx context.Context, email string) error {
	query := `DELETE FROM activation_claims WHERE email = $1`
	_, err := r.pool.Exec(ctx, query, email)
	return err
}

func (r *pgClaimRepository) DeleteExpired(ctx context.Context) (int, error) {
	query := `DELETE FROM activation_claims WHERE expires_at < NOW()`
	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
