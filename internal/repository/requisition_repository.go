package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/obratech/procurement-api/internal/models"
)

const requisitionColumns = `id, identifier, request_id, quotation_id, total_value, signature_status,
       clerk_signer_id, clerk_signed_at, director_signer_id, director_signed_at, dispatched_at,
       header_profile, created_at`

// RequisitionRepository persists material requisitions. Signature updates
// are guarded in SQL so a slot can never be overwritten, even under
// concurrent signing.
type RequisitionRepository struct {
	db *sqlx.DB
}

// NewRequisitionRepository constructs the repository.
func NewRequisitionRepository(db *sqlx.DB) *RequisitionRepository {
	return &RequisitionRepository{db: db}
}

// Create inserts the requisition using the given executor.
func (r *RequisitionRepository) Create(ctx context.Context, exec sqlx.ExtContext, requisition *models.MaterialRequisition) error {
	if requisition.ID == "" {
		requisition.ID = uuid.NewString()
	}
	if requisition.CreatedAt.IsZero() {
		requisition.CreatedAt = time.Now().UTC()
	}
	if requisition.SignatureStatus == "" {
		requisition.SignatureStatus = models.SignatureStatusUnsigned
	}
	const query = `INSERT INTO material_requisitions
	(id, identifier, request_id, quotation_id, total_value, signature_status, header_profile, created_at)
	VALUES (:id, :identifier, :request_id, :quotation_id, :total_value, :signature_status, :header_profile, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, requisition); err != nil {
		return fmt.Errorf("create material requisition: %w", err)
	}
	return nil
}

// GetByID fetches one requisition.
func (r *RequisitionRepository) GetByID(ctx context.Context, id string) (*models.MaterialRequisition, error) {
	query := fmt.Sprintf(`SELECT %s FROM material_requisitions WHERE id = $1`, requisitionColumns)
	var requisition models.MaterialRequisition
	if err := r.db.GetContext(ctx, &requisition, query, id); err != nil {
		return nil, err
	}
	return &requisition, nil
}

// GetByRequestID fetches the requisition bound to a purchase request.
func (r *RequisitionRepository) GetByRequestID(ctx context.Context, exec sqlx.ExtContext, requestID string) (*models.MaterialRequisition, error) {
	query := fmt.Sprintf(`SELECT %s FROM material_requisitions WHERE request_id = $1`, requisitionColumns)
	var requisition models.MaterialRequisition
	if err := sqlx.GetContext(ctx, exec, &requisition, query, requestID); err != nil {
		return nil, err
	}
	return &requisition, nil
}

// GetForUpdate locks the requisition row within the transaction.
func (r *RequisitionRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.MaterialRequisition, error) {
	query := fmt.Sprintf(`SELECT %s FROM material_requisitions WHERE id = $1 FOR UPDATE`, requisitionColumns)
	var requisition models.MaterialRequisition
	if err := tx.GetContext(ctx, &requisition, query, id); err != nil {
		return nil, err
	}
	return &requisition, nil
}

// SetClerkSignature fills the first signature slot. The WHERE guard keeps
// the slot write-once; zero rows affected means it was already filled.
func (r *RequisitionRepository) SetClerkSignature(ctx context.Context, exec sqlx.ExtContext, id, signerID string, at time.Time) (bool, error) {
	const query = `UPDATE material_requisitions
	SET clerk_signer_id = $1, clerk_signed_at = $2, signature_status = $3
	WHERE id = $4 AND clerk_signer_id IS NULL`
	result, err := exec.ExecContext(ctx, query, signerID, at, models.SignatureStatusAwaitingDirector, id)
	if err != nil {
		return false, fmt.Errorf("set clerk signature: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set clerk signature: %w", err)
	}
	return affected == 1, nil
}

// SetDirectorSignature fills the second signature slot. It requires the
// clerk slot to be filled already and its own slot to be empty.
func (r *RequisitionRepository) SetDirectorSignature(ctx context.Context, exec sqlx.ExtContext, id, signerID string, at time.Time) (bool, error) {
	const query = `UPDATE material_requisitions
	SET director_signer_id = $1, director_signed_at = $2, signature_status = $3
	WHERE id = $4 AND clerk_signer_id IS NOT NULL AND director_signer_id IS NULL`
	result, err := exec.ExecContext(ctx, query, signerID, at, models.SignatureStatusSigned, id)
	if err != nil {
		return false, fmt.Errorf("set director signature: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set director signature: %w", err)
	}
	return affected == 1, nil
}

// MarkDispatched records dispatch of a fully signed requisition.
func (r *RequisitionRepository) MarkDispatched(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) (bool, error) {
	const query = `UPDATE material_requisitions
	SET signature_status = $1, dispatched_at = $2
	WHERE id = $3 AND signature_status = $4`
	result, err := exec.ExecContext(ctx, query, models.SignatureStatusDispatched, at, id, models.SignatureStatusSigned)
	if err != nil {
		return false, fmt.Errorf("mark requisition dispatched: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark requisition dispatched: %w", err)
	}
	return affected == 1, nil
}

// List returns requisitions newest first, optionally filtered by signature
// status, plus the total count for pagination.
func (r *RequisitionRepository) List(ctx context.Context, status models.SignatureStatus, limit, offset int) ([]models.MaterialRequisition, int, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		where = " WHERE signature_status = $1"
		args = append(args, status)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM material_requisitions"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count material requisitions: %w", err)
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf("SELECT %s FROM material_requisitions%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		requisitionColumns, where, limit, offset)

	var requisitions []models.MaterialRequisition
	if err := r.db.SelectContext(ctx, &requisitions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list material requisitions: %w", err)
	}
	return requisitions, total, nil
}
