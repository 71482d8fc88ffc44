package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProofRepository interface {
	Create(ctx context.Context, proof *Proof) error
	FindByID(ctx context.Context, id string) (*Proof, error)
	FindByOwnerKey(ctx context.Context, ownerKey string) ([]*Proof, error)
	FindPendingByOwnerEmail(ctx context.Context, email string) ([]*Proof, error)
	CountByRevisionChain(ctx context.Context, chainID string) (int, error)

	// TransferOwnership re-keys every proof owned by oldOwnerKey to
	// newDurableID in one transaction, stamping transferred_at and recording
	// the old key as provenance. All-or-nothing; returns the number moved.
	TransferOwnership(ctx context.Context, oldOwnerKey, newDurableID string) (int, error)

	// UpdateStatus returns the status the proof had before the write so
	// callers can apply the no-op guard on status-change events.
	UpdateStatus(ctx context.Context, id, status string, feedback *string) (oldStatus string, err error)
	SetNotificationState(ctx context.Context, id, state string) error
	// MarkBundledPendingByEmail flags every still-unnotified pending proof for
	// the email as covered by an invitation message.
	MarkBundledPendingByEmail(ctx context.Context, email string) (int, error)
	// ReassignReferences moves ownership and assignment-list references off a
	// deleted identity. Returns the number of proofs touched.
	ReassignReferences(ctx context.Context, fromID, toID string) (int, error)
}

type pgProofRepository struct {
	pool *pgxpool.Pool
}

func NewProofRepository(pool *pgxpool.Pool) ProofRepository {
	return &pgProofRepository{pool: pool}
}

const proofColumns = `id, title, file_ref, owner_key, owner_email, status,
	notification_state, revision_chain_id, revision_number, quantity,
	unit_price, assigned_to, feedback, original_invitation_id, transferred_at,
	created_at, updated_at`

func scanProof(row pgx.Row) (*Proof, error) {
	p := &Proof{}
	err := row.Scan(
		&p.ID, &p.Title, &p.FileRef, &p.OwnerKey, &p.OwnerEmail, &p.Status,
		&p.NotificationState, &p.RevisionChainID, &p.RevisionNumber,
		&p.Quantity, &p.UnitPrice, &p.AssignedTo, &p.Feedback,
		&p.OriginalInvitationID, &p.TransferredAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProofRepository) Create(ctx context.Context, proof *Proof) error {
	if proof.Status == "" {
		proof.Status = "pending"
	}
	if proof.NotificationState == "" {
		proof.NotificationState = "not_sent"
	}
	if proof.RevisionNumber == 0 {
		proof.RevisionNumber = 1
	}
	if proof.Quantity == 0 {
		proof.Quantity = 1
	}
	if proof.AssignedTo == nil {
		proof.AssignedTo = []string{}
	}
	query := `
		INSERT INTO proofs
			(title, file_ref, owner_key, owner_email, status, notification_state,
			 revision_chain_id, revision_number, quantity, unit_price, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		proof.Title, proof.FileRef, proof.OwnerKey, proof.OwnerEmail,
		proof.Status, proof.NotificationState, proof.RevisionChainID,
		proof.RevisionNumber, proof.Quantity, proof.UnitPrice, proof.AssignedTo,
	).Scan(&proof.ID, &proof.CreatedAt, &proof.UpdatedAt)
}

func (r *pgProofRepository) FindByID(ctx context.Context, id string) (*Proof, error) {
	query := `SELECT ` + proofColumns + ` FROM proofs WHERE id = $1`
	return scanProof(r.pool.QueryRow(ctx, query, id))
}

func (r *pgProofRepository) FindByOwnerKey(ctx context.Context, ownerKey string) ([]*Proof, error) {
	query := `SELECT ` + proofColumns + ` FROM proofs WHERE owner_key = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, ownerKey)
}

func (r *pgProofRepository) FindPendingByOwnerEmail(ctx context.Context, email string) ([]*Proof, error) {
	query := `
		SELECT ` + proofColumns + `
		FROM proofs
		WHERE owner_email = $1 AND status = 'pending'
		ORDER BY created_at ASC
	`
	return r.list(ctx, query, email)
}

func (r *pgProofRepository) CountByRevisionChain(ctx context.Context, chainID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM proofs WHERE revision_chain_id = $1`, chainID,
	).Scan(&count)
	return count, err
}

func (r *pgProofRepository) TransferOwnership(ctx context.Context, oldOwnerKey, newDurableID string) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	// Single statement so the re-key is all-or-nothing; no reader ever sees a
	// partially transferred set.
	tag, err := tx.Exec(ctx, `
		UPDATE proofs
		SET owner_key = $2,
		    original_invitation_id = $1::uuid,
		    transferred_at = NOW(),
		    updated_at = NOW()
		WHERE owner_key = $1
	`, oldOwnerKey, newDurableID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *pgProofRepository) UpdateStatus(ctx context.Context, id, status string, feedback *string) (string, error) {
	var oldStatus string
	query := `
		UPDATE proofs p
		SET status = $2,
		    feedback = COALESCE($3, p.feedback),
		    updated_at = NOW()
		FROM (SELECT status FROM proofs WHERE id = $1 FOR UPDATE) old
		WHERE p.id = $1
		RETURNING old.status
	`
	err := r.pool.QueryRow(ctx, query, id, status, feedback).Scan(&oldStatus)
	if err == pgx.ErrNoRows {
		return "", pgx.ErrNoRows
	}
	return oldStatus, err
}

func (r *pgProofRepository) SetNotificationState(ctx context.Context, id, state string) error {
	query := `UPDATE proofs SET notification_state = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, state)
	return err
}

func (r *pgProofRepository) MarkBundledPendingByEmail(ctx context.Context, email string) (int, error) {
	query := `
		UPDATE proofs
		SET notification_state = 'bundled_in_invitation', updated_at = NOW()
		WHERE owner_email = $1 AND status = 'pending' AND notification_state = 'not_sent'
	`
	tag, err := r.pool.Exec(ctx, query, email)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *pgProofRepository) ReassignReferences(ctx context.Context, fromID, toID string) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	touched := map[string]bool{}

	rows, err := tx.Query(ctx, `
		UPDATE proofs
		SET owner_key = $2, transferred_at = NOW(), updated_at = NOW()
		WHERE owner_key = $1
		RETURNING id
	`, fromID, toID)
	if err != nil {
		return 0, err
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		touched[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	rows, err = tx.Query(ctx, `
		UPDATE proofs
		SET assigned_to = array_replace(assigned_to, $1, $2), updated_at = NOW()
		WHERE $1 = ANY(assigned_to)
		RETURNING id
	`, fromID, toID)
	if err != nil {
		return 0, err
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		touched[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(touched), nil
}

func (r *pgProofRepository) list(ctx context.Context, query string, args ...interface{}) ([]*Proof, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proofs []*Proof
	for rows.Next() {
		p := &Proof{}
		if err := rows.Scan(
			&p.ID, &p.Title, &p.FileRef, &p.OwnerKey, &p.OwnerEmail, &p.Status,
			&p.NotificationState, &p.RevisionChainID, &p.RevisionNumber,
			&p.Quantity, &p.UnitPrice, &p.AssignedTo, &p.Feedback,
			&p.OriginalInvitationID, &p.TransferredAt, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		proofs = append(proofs, p)
	}
	return proofs, rows.Err()
}
