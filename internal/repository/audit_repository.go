package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository interface {
	Create(ctx context.Context, rec *AuditRecord) error
	ListRecent(ctx context.Context, limit int) ([]*AuditRecord, error)
}

type pgAuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &pgAuditRepository{pool: pool}
}

func (r *pgAuditRepository) Create(ctx context.Context, rec *AuditRecord) error {
	if rec.Details == nil {
		rec.Details = map[string]interface{}{}
	}
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO audit_records (action, actor_id, target_id, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		rec.Action, rec.ActorID, rec.TargetID, details,
	).Scan(&rec.ID, &rec.CreatedAt)
}

func (r *pgAuditRepository) ListRecent(ctx context.Context, limit int) ([]*AuditRecord, error) {
	query := `
		SELECT id, action, actor_id, target_id, details, created_at
		FROM audit_records
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*AuditRecord
	for rows.Next() {
		rec := &AuditRecord{}
		var details []byte
		if err := rows.Scan(&rec.ID, &rec.Action, &rec.ActorID, &rec.TargetID, &details, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(details, &rec.Details); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
