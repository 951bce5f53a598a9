package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/obratech/procurement-api/internal/models"
)

// AuditRepository persists the append-only request history. Entries are
// inserted inside the same transaction as the transition they describe and
// are never updated or deleted.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append inserts one entry using the given executor so the write joins the
// caller's transaction.
func (r *AuditRepository) Append(ctx context.Context, exec sqlx.ExtContext, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_entries (id, request_id, actor_id, action, detail, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := exec.ExecContext(ctx, query, entry.ID, entry.RequestID, entry.ActorID, entry.Action, entry.Detail, entry.CreatedAt); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListByRequest returns a request's history ordered by timestamp ascending.
func (r *AuditRepository) ListByRequest(ctx context.Context, requestID string) ([]models.AuditEntry, error) {
	const query = `SELECT id, request_id, actor_id, action, detail, created_at
	FROM audit_entries WHERE request_id = $1 ORDER BY created_at ASC, id ASC`
	var entries []models.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, requestID); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
