package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuthRepository backs the identity-provider shim: credentials and refresh
// tokens. Profiles live elsewhere on purpose.
type AuthRepository interface {
	CreateCredential(ctx context.Context, cred *Credential) error
	FindCredentialByEmail(ctx context.Context, email string) (*Credential, error)
	FindCredentialByID(ctx context.Context, id string) (*Credential, error)
	DeleteCredential(ctx context.Context, id string) error

	CreateRefreshToken(ctx context.Context, token *RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteTokensForUser(ctx context.Context, userID string) error
}

type pgAuthRepository struct {
	pool *pgxpool.Pool
}

func NewAuthRepository(pool *pgxpool.Pool) AuthRepository {
	return &pgAuthRepository{pool: pool}
}

func (r *pgAuthRepository) CreateCredential(ctx context.Context, cred *Credential) error {
	query := `
		INSERT INTO auth_credentials (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query, cred.Email, cred.PasswordHash).Scan(&cred.ID, &cred.CreatedAt)
}

func (r *pgAuthRepository) FindCredentialByEmail(ctx context.Context, email string) (*Credential, error) {
	query := `SELECT id, email, password_hash, created_at FROM auth_credentials WHERE email = $1`
	return r.scanCredential(r.pool.QueryRow(ctx, query, email))
}

func (r *pgAuthRepository) FindCredentialByID(ctx context.Context, id string) (*Credential, error) {
	query := `SELECT id, email, password_hash, created_at FROM auth_credentials WHERE id = $1`
	return r.scanCredential(r.pool.QueryRow(ctx, query, id))
}

func (r *pgAuthRepository) scanCredential(row pgx.Row) (*Credential, error) {
	cred := &Credential{}
	err := row.Scan(&cred.ID, &cred.Email, &cred.PasswordHash, &cred.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cred, nil
}

func (r *pgAuthRepository) DeleteCredential(ctx context.Context, id string) error {
	query := `DELETE FROM auth_credentials WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *pgAuthRepository) CreateRefreshToken(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query, token.Token, token.UserID, token.ExpiresAt).Scan(&token.ID, &token.CreatedAt)
}

func (r *pgAuthRepository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	query := `SELECT id, token, user_id, expires_at, created_at FROM refresh_tokens WHERE token = $1`
	rt := &RefreshToken{}
	err := r.pool.QueryRow(ctx, query, token).Scan(&rt.ID, &rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *pgAuthRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	query := `DELETE FROM refresh_tokens WHERE token = $1`
	_, err := r.pool.Exec(ctx, query, token)
	return err
}

func (r *pgAuthRepository) DeleteTokensForUser(ctx context.Context, userID string) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}
