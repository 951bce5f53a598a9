package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/obratech/procurement-api/internal/models"
)

const quotationColumns = `id, request_id, supplier_id, quoted_at, delivery_term, payment_condition, note, freight, winning`

const dispatchColumns = `id, request_id, supplier_id, sent_at, response_deadline, payment_method, payment_term_days, note, status`

// QuotationRepository persists quotation dispatches, supplier quotations
// and their priced lines.
type QuotationRepository struct {
	db *sqlx.DB
}

// NewQuotationRepository constructs the repository.
func NewQuotationRepository(db *sqlx.DB) *QuotationRepository {
	return &QuotationRepository{db: db}
}

// CreateDispatch inserts one dispatch and its line references.
func (r *QuotationRepository) CreateDispatch(ctx context.Context, exec sqlx.ExtContext, dispatch *models.QuotationDispatch) error {
	if dispatch.ID == "" {
		dispatch.ID = uuid.NewString()
	}
	if dispatch.SentAt.IsZero() {
		dispatch.SentAt = time.Now().UTC()
	}
	if dispatch.Status == "" {
		dispatch.Status = models.DispatchStatusAwaiting
	}
	const query = `INSERT INTO quotation_dispatches
	(id, request_id, supplier_id, sent_at, response_deadline, payment_method, payment_term_days, note, status)
	VALUES (:id, :request_id, :supplier_id, :sent_at, :response_deadline, :payment_method, :payment_term_days, :note, :status)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, dispatch); err != nil {
		return fmt.Errorf("create quotation dispatch: %w", err)
	}
	const lineQuery = `INSERT INTO dispatch_lines (dispatch_id, request_line_id) VALUES ($1, $2)`
	for _, lineID := range dispatch.LineIDs {
		if _, err := exec.ExecContext(ctx, lineQuery, dispatch.ID, lineID); err != nil {
			return fmt.Errorf("create dispatch line: %w", err)
		}
	}
	return nil
}

// GetDispatch fetches one dispatch including its line references.
func (r *QuotationRepository) GetDispatch(ctx context.Context, id string) (*models.QuotationDispatch, error) {
	query := fmt.Sprintf(`SELECT %s FROM quotation_dispatches WHERE id = $1`, dispatchColumns)
	var dispatch models.QuotationDispatch
	if err := r.db.GetContext(ctx, &dispatch, query, id); err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &dispatch.LineIDs,
		`SELECT request_line_id FROM dispatch_lines WHERE dispatch_id = $1`, id); err != nil {
		return nil, fmt.Errorf("get dispatch lines: %w", err)
	}
	return &dispatch, nil
}

// ListDispatches returns all dispatches for a request.
func (r *QuotationRepository) ListDispatches(ctx context.Context, requestID string) ([]models.QuotationDispatch, error) {
	query := fmt.Sprintf(`SELECT %s FROM quotation_dispatches WHERE request_id = $1 ORDER BY sent_at ASC`, dispatchColumns)
	var dispatches []models.QuotationDispatch
	if err := r.db.SelectContext(ctx, &dispatches, query, requestID); err != nil {
		return nil, fmt.Errorf("list dispatches: %w", err)
	}
	return dispatches, nil
}

// HasDispatch reports whether a dispatch already exists for the pair.
func (r *QuotationRepository) HasDispatch(ctx context.Context, exec sqlx.ExtContext, requestID, supplierID string) (bool, error) {
	var count int
	const query = `SELECT COUNT(*) FROM quotation_dispatches WHERE request_id = $1 AND supplier_id = $2`
	if err := sqlx.GetContext(ctx, exec, &count, query, requestID, supplierID); err != nil {
		return false, fmt.Errorf("check dispatch existence: %w", err)
	}
	return count > 0, nil
}

// MarkDispatchResponded flips the dispatch for the pair to RESPONDED.
func (r *QuotationRepository) MarkDispatchResponded(ctx context.Context, exec sqlx.ExtContext, requestID, supplierID string) error {
	const query = `UPDATE quotation_dispatches SET status = $1 WHERE request_id = $2 AND supplier_id = $3`
	if _, err := exec.ExecContext(ctx, query, models.DispatchStatusResponded, requestID, supplierID); err != nil {
		return fmt.Errorf("mark dispatch responded: %w", err)
	}
	return nil
}

// UpsertQuotation inserts or fully replaces the quotation header for the
// (request, supplier) pair and returns its id.
func (r *QuotationRepository) UpsertQuotation(ctx context.Context, exec sqlx.ExtContext, quotation *models.Quotation) error {
	if quotation.ID == "" {
		quotation.ID = uuid.NewString()
	}
	if quotation.QuotedAt.IsZero() {
		quotation.QuotedAt = time.Now().UTC()
	}
	const query = `INSERT INTO quotations
	(id, request_id, supplier_id, quoted_at, delivery_term, payment_condition, note, freight, winning)
	VALUES (:id, :request_id, :supplier_id, :quoted_at, :delivery_term, :payment_condition, :note, :freight, FALSE)
	ON CONFLICT (request_id, supplier_id) DO UPDATE SET
	  quoted_at = EXCLUDED.quoted_at,
	  delivery_term = EXCLUDED.delivery_term,
	  payment_condition = EXCLUDED.payment_condition,
	  note = EXCLUDED.note,
	  freight = EXCLUDED.freight`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, quotation); err != nil {
		return fmt.Errorf("upsert quotation: %w", err)
	}
	// On conflict the stored row keeps its original id; read it back.
	if err := sqlx.GetContext(ctx, exec, &quotation.ID,
		`SELECT id FROM quotations WHERE request_id = $1 AND supplier_id = $2`,
		quotation.RequestID, quotation.SupplierID); err != nil {
		return fmt.Errorf("resolve quotation id: %w", err)
	}
	return nil
}

// ReplaceQuotedLines deletes all existing priced lines for the quotation
// and inserts the new set. Replacement is total, never a merge.
func (r *QuotationRepository) ReplaceQuotedLines(ctx context.Context, exec sqlx.ExtContext, quotationID string, lines []models.QuotedLine) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM quoted_lines WHERE quotation_id = $1`, quotationID); err != nil {
		return fmt.Errorf("clear quoted lines: %w", err)
	}
	const query = `INSERT INTO quoted_lines (id, quotation_id, request_line_id, price) VALUES ($1, $2, $3, $4)`
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = uuid.NewString()
		}
		lines[i].QuotationID = quotationID
		if _, err := exec.ExecContext(ctx, query, lines[i].ID, quotationID, lines[i].RequestLineID, lines[i].Price); err != nil {
			return fmt.Errorf("insert quoted line: %w", err)
		}
	}
	return nil
}

// GetQuotation fetches one quotation with its priced lines.
func (r *QuotationRepository) GetQuotation(ctx context.Context, id string) (*models.Quotation, error) {
	query := fmt.Sprintf(`SELECT %s FROM quotations WHERE id = $1`, quotationColumns)
	var quotation models.Quotation
	if err := r.db.GetContext(ctx, &quotation, query, id); err != nil {
		return nil, err
	}
	if err := r.db.SelectContext(ctx, &quotation.Lines,
		`SELECT id, quotation_id, request_line_id, price FROM quoted_lines WHERE quotation_id = $1`, id); err != nil {
		return nil, fmt.Errorf("get quoted lines: %w", err)
	}
	return &quotation, nil
}

// GetQuotationForUpdate locks the quotation row within the transaction.
func (r *QuotationRepository) GetQuotationForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Quotation, error) {
	query := fmt.Sprintf(`SELECT %s FROM quotations WHERE id = $1 FOR UPDATE`, quotationColumns)
	var quotation models.Quotation
	if err := tx.GetContext(ctx, &quotation, query, id); err != nil {
		return nil, err
	}
	if err := tx.SelectContext(ctx, &quotation.Lines,
		`SELECT id, quotation_id, request_line_id, price FROM quoted_lines WHERE quotation_id = $1`, id); err != nil {
		return nil, fmt.Errorf("get quoted lines: %w", err)
	}
	return &quotation, nil
}

// ListQuotations returns all quotations for a request with their lines.
func (r *QuotationRepository) ListQuotations(ctx context.Context, requestID string) ([]models.Quotation, error) {
	query := fmt.Sprintf(`SELECT %s FROM quotations WHERE request_id = $1 ORDER BY quoted_at ASC`, quotationColumns)
	var quotations []models.Quotation
	if err := r.db.SelectContext(ctx, &quotations, query, requestID); err != nil {
		return nil, fmt.Errorf("list quotations: %w", err)
	}
	for i := range quotations {
		if err := r.db.SelectContext(ctx, &quotations[i].Lines,
			`SELECT id, quotation_id, request_line_id, price FROM quoted_lines WHERE quotation_id = $1`, quotations[i].ID); err != nil {
			return nil, fmt.Errorf("get quoted lines: %w", err)
		}
	}
	return quotations, nil
}

// CountDispatches counts dispatches currently recorded for a request.
func (r *QuotationRepository) CountDispatches(ctx context.Context, exec sqlx.ExtContext, requestID string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, exec, &count, `SELECT COUNT(*) FROM quotation_dispatches WHERE request_id = $1`, requestID); err != nil {
		return 0, fmt.Errorf("count dispatches: %w", err)
	}
	return count, nil
}

// CountQuotations counts quotations currently recorded for a request.
func (r *QuotationRepository) CountQuotations(ctx context.Context, exec sqlx.ExtContext, requestID string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, exec, &count, `SELECT COUNT(*) FROM quotations WHERE request_id = $1`, requestID); err != nil {
		return 0, fmt.Errorf("count quotations: %w", err)
	}
	return count, nil
}

// SetWinning marks the quotation as the winner.
func (r *QuotationRepository) SetWinning(ctx context.Context, exec sqlx.ExtContext, id string) error {
	if _, err := exec.ExecContext(ctx, `UPDATE quotations SET winning = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("set winning quotation: %w", err)
	}
	return nil
}

// DeleteQuotation removes a quotation and its priced lines.
func (r *QuotationRepository) DeleteQuotation(ctx context.Context, exec sqlx.ExtContext, id string) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM quoted_lines WHERE quotation_id = $1`, id); err != nil {
		return fmt.Errorf("delete quoted lines: %w", err)
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM quotations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete quotation: %w", err)
	}
	return nil
}

// DeleteLosingQuotations removes every quotation for the request except the
// winner.
func (r *QuotationRepository) DeleteLosingQuotations(ctx context.Context, exec sqlx.ExtContext, requestID, keepID string) error {
	const lineQuery = `DELETE FROM quoted_lines WHERE quotation_id IN
	(SELECT id FROM quotations WHERE request_id = $1 AND id <> $2)`
	if _, err := exec.ExecContext(ctx, lineQuery, requestID, keepID); err != nil {
		return fmt.Errorf("delete losing quoted lines: %w", err)
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM quotations WHERE request_id = $1 AND id <> $2`, requestID, keepID); err != nil {
		return fmt.Errorf("delete losing quotations: %w", err)
	}
	return nil
}

// DeleteDispatches removes all dispatches for the request.
func (r *QuotationRepository) DeleteDispatches(ctx context.Context, exec sqlx.ExtContext, requestID string) error {
	const lineQuery = `DELETE FROM dispatch_lines WHERE dispatch_id IN
	(SELECT id FROM quotation_dispatches WHERE request_id = $1)`
	if _, err := exec.ExecContext(ctx, lineQuery, requestID); err != nil {
		return fmt.Errorf("delete dispatch lines: %w", err)
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM quotation_dispatches WHERE request_id = $1`, requestID); err != nil {
		return fmt.Errorf("delete dispatches: %w", err)
	}
	return nil
}
