package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PlaceholderRepository interface {
	Create(ctx context.Context, ph *Placeholder) error
	FindByID(ctx context.Context, id string) (*Placeholder, error)
	FindPendingByEmail(ctx context.Context, email string) (*Placeholder, error)
	// MarkCompleted flips a pending placeholder to completed. Returns false if
	// the placeholder was not pending (already upgraded elsewhere).
	MarkCompleted(ctx context.Context, id string) (bool, error)
	MarkReminderSent(ctx context.Context, id string) error
	ListPending(ctx context.Context) ([]*Placeholder, error)
	ListPendingInvitedBefore(ctx context.Context, cutoff time.Time) ([]*Placeholder, error)
	Delete(ctx context.Context, id string) error
}

type pgPlaceholderRepository struct {
	pool *pgxpool.Pool
}

func NewPlaceholderRepository(pool *pgxpool.Pool) PlaceholderRepository {
	return &pgPlaceholderRepository{pool: pool}
}

const placeholderColumns = `id, email, display_name, status, invited_by, invited_at, completed_at, reminder_sent_at`

func scanPlaceholder(row pgx.Row) (*Placeholder, error) {
	ph := &Placeholder{}
	err := row.Scan(
		&ph.ID, &ph.Email, &ph.DisplayName, &ph.Status, &ph.InvitedBy,
		&ph.InvitedAt, &ph.CompletedAt, &ph.ReminderSentAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ph, nil
}

func (r *pgPlaceholderRepository) Create(ctx context.Context, ph *Placeholder) error {
	if ph.Status == "" {
		ph.Status = "pending"
	}
	query := `
		INSERT INTO placeholder_identities (email, display_name, status, invited_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, invited_at
	`
	return r.pool.QueryRow(ctx, query,
		ph.Email, ph.DisplayName, ph.Status, ph.InvitedBy,
	).Scan(&ph.ID, &ph.InvitedAt)
}

func (r *pgPlaceholderRepository) FindByID(ctx context.Context, id string) (*Placeholder, error) {
	query := `SELECT ` + placeholderColumns + ` FROM placeholder_identities WHERE id = $1`
	return scanPlaceholder(r.pool.QueryRow(ctx, query, id))
}

func (r *pgPlaceholderRepository) FindPendingByEmail(ctx context.Context, email string) (*Placeholder, error) {
	query := `
		SELECT ` + placeholderColumns + `
		FROM placeholder_identities
		WHERE email = $1 AND status = 'pending'
		ORDER BY invited_at DESC
		LIMIT 1
	`
	return scanPlaceholder(r.pool.QueryRow(ctx, query, email))
}

func (r *pgPlaceholderRepository) MarkCompleted(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE placeholder_identities
		SET status = 'completed', completed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgPlaceholderRepository) MarkReminderSent(ctx context.Context, id string) error {
	query := `UPDATE placeholder_identities SET reminder_sent_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *pgPlaceholderRepository) ListPending(ctx context.Context) ([]*Placeholder, error) {
	query := `SELECT ` + placeholderColumns + ` FROM placeholder_identities WHERE status = 'pending' ORDER BY invited_at DESC`
	return r.list(ctx, query)
}

func (r *pgPlaceholderRepository) ListPendingInvitedBefore(ctx context.Context, cutoff time.Time) ([]*Placeholder, error) {
	query := `
		SELECT ` + placeholderColumns + `
		FROM placeholder_identities
		WHERE status = 'pending' AND invited_at < $1
		  AND (reminder_sent_at IS NULL OR reminder_sent_at < $1)
		ORDER BY invited_at ASC
	`
	return r.list(ctx, query, cutoff)
}

func (r *pgPlaceholderRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM placeholder_identities WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *pgPlaceholderRepository) list(ctx context.Context, query string, args ...interface{}) ([]*Placeholder, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var placeholders []*Placeholder
	for rows.Next() {
		ph := &Placeholder{}
		if err := rows.Scan(
			&ph.ID, &ph.Email, &ph.DisplayName, &ph.Status, &ph.InvitedBy,
			&ph.InvitedAt, &ph.CompletedAt, &ph.ReminderSentAt,
		); err != nil {
			return nil, err
		}
		placeholders = append(placeholders, ph)
	}
	return placeholders, rows.Err()
}
