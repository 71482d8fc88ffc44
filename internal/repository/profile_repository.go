package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileRepository interface {
	// Upsert creates or refreshes a profile keyed by its durable ID. Repeated
	// calls for the same ID never produce a second row.
	Upsert(ctx context.Context, p *Profile) error
	FindByID(ctx context.Context, id string) (*Profile, error)
	FindActiveByEmail(ctx context.Context, email string) (*Profile, error)
	UpdateStatus(ctx context.Context, id, status string) error
	UpdateRole(ctx context.Context, id, role string) error
	UpdateDisplayName(ctx context.Context, id, displayName string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*Profile, error)

	// UpgradeFromPlaceholder creates the durable profile and marks the
	// placeholder completed in one transaction. Returns whether this call was
	// the one that completed the placeholder (false when another session
	// already did).
	UpgradeFromPlaceholder(ctx context.Context, p *Profile, placeholderID string) (bool, error)
}

type pgProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &pgProfileRepository{pool: pool}
}

const profileColumns = `id, email, display_name, role, status, owner_key,
	original_placeholder_id, invited_by, activated_at, created_at, updated_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	p := &Profile{}
	err := row.Scan(
		&p.ID, &p.Email, &p.DisplayName, &p.Role, &p.Status, &p.OwnerKey,
		&p.OriginalPlaceholderID, &p.InvitedBy, &p.ActivatedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

const upsertProfileQuery = `
	INSERT INTO identity_profiles
		(id, email, display_name, role, status, owner_key,
		 original_placeholder_id, invited_by, activated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), identity_profiles.display_name),
		updated_at = NOW()
	RETURNING created_at, updated_at
`

func (r *pgProfileRepository) Upsert(ctx context.Context, p *Profile) error {
	return r.pool.QueryRow(ctx, upsertProfileQuery,
		p.ID, p.Email, p.DisplayName, p.Role, p.Status, p.OwnerKey,
		p.OriginalPlaceholderID, p.InvitedBy, p.ActivatedAt,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *pgProfileRepository) FindByID(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM identity_profiles WHERE id = $1`
	return scanProfile(r.pool.QueryRow(ctx, query, id))
}

func (r *pgProfileRepository) FindActiveByEmail(ctx context.Context, email string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM identity_profiles WHERE email = $1 AND status = 'active'`
	return scanProfile(r.pool.QueryRow(ctx, query, email))
}

func (r *pgProfileRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE identity_profiles SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, status)
	return err
}

func (r *pgProfileRepository) UpdateRole(ctx context.Context, id, role string) error {
	query := `UPDATE identity_profiles SET role = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, role)
	return err
}

func (r *pgProfileRepository) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	query := `UPDATE identity_profiles SET display_name = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, displayName)
	return err
}

func (r *pgProfileRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM identity_profiles WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *pgProfileRepository) List(ctx context.Context, limit, offset int) ([]*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM identity_profiles ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p := &Profile{}
		if err := rows.Scan(
			&p.ID, &p.Email, &p.DisplayName, &p.Role, &p.Status, &p.OwnerKey,
			&p.OriginalPlaceholderID, &p.InvitedBy, &p.ActivatedAt,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *pgProfileRepository) UpgradeFromPlaceholder(ctx context.Context, p *Profile, placeholderID string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	if p.ActivatedAt == nil {
		p.ActivatedAt = &now
	}
	if err := tx.QueryRow(ctx, upsertProfileQuery,
		p.ID, p.Email, p.DisplayName, p.Role, p.Status, p.OwnerKey,
		p.OriginalPlaceholderID, p.InvitedBy, p.ActivatedAt,
	).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return false, err
	}

	// The status guard makes the completion transition exactly-once.
	tag, err := tx.Exec(ctx, `
		UPDATE placeholder_identities
		SET status = 'completed', completed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, placeholderID)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
