package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/obratech/procurement-api/internal/models"
)

const requestColumns = `id, identifier, requester_id, site_id, need_by, justification, urgent,
       category_tag, status, approver_id, approved_at, approval_note, parent_id, created_at`

// RequestRepository persists purchase requests and their lines.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// BeginTxx starts a transaction for multi-step workflow operations.
func (r *RequestRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// Create inserts the request and its lines using the given executor.
func (r *RequestRepository) Create(ctx context.Context, exec sqlx.ExtContext, request *models.PurchaseRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO purchase_requests
	(id, identifier, requester_id, site_id, need_by, justification, urgent, category_tag, status, approver_id, approved_at, approval_note, parent_id, created_at)
	VALUES (:id, :identifier, :requester_id, :site_id, :need_by, :justification, :urgent, :category_tag, :status, :approver_id, :approved_at, :approval_note, :parent_id, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, request); err != nil {
		return fmt.Errorf("create purchase request: %w", err)
	}
	for i := range request.Lines {
		request.Lines[i].RequestID = request.ID
		if request.Lines[i].Position == 0 {
			request.Lines[i].Position = i + 1
		}
	}
	return r.InsertLines(ctx, exec, request.Lines)
}

// InsertLines appends lines to a request.
func (r *RequestRepository) InsertLines(ctx context.Context, exec sqlx.ExtContext, lines []models.RequestLine) error {
	const query = `INSERT INTO request_lines (id, request_id, catalog_item_id, description, unit, quantity, note, position)
	VALUES (:id, :request_id, :catalog_item_id, :description, :unit, :quantity, :note, :position)`
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = uuid.NewString()
		}
		if _, err := sqlx.NamedExecContext(ctx, exec, query, lines[i]); err != nil {
			return fmt.Errorf("insert request line: %w", err)
		}
	}
	return nil
}

// GetByID fetches a request without its lines.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.PurchaseRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM purchase_requests WHERE id = $1`, requestColumns)
	var request models.PurchaseRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// GetForUpdate locks the request row for the duration of the transaction.
func (r *RequestRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.PurchaseRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM purchase_requests WHERE id = $1 FOR UPDATE`, requestColumns)
	var request models.PurchaseRequest
	if err := tx.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// GetLines returns the ordered lines of a request.
func (r *RequestRepository) GetLines(ctx context.Context, exec sqlx.ExtContext, requestID string) ([]models.RequestLine, error) {
	const query = `SELECT id, request_id, catalog_item_id, description, unit, quantity, note, position
	FROM request_lines WHERE request_id = $1 ORDER BY position ASC`
	var lines []models.RequestLine
	if err := sqlx.SelectContext(ctx, exec, &lines, query, requestID); err != nil {
		return nil, fmt.Errorf("get request lines: %w", err)
	}
	return lines, nil
}

// LineQuantities maps request line ids to their requested quantities.
func (r *RequestRepository) LineQuantities(ctx context.Context, exec sqlx.ExtContext, requestID string) (map[string]decimal.Decimal, error) {
	lines, err := r.GetLines(ctx, exec, requestID)
	if err != nil {
		return nil, err
	}
	quantities := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		quantities[line.ID] = line.Quantity
	}
	return quantities, nil
}

// DeleteLines removes the given lines from a request (used by split only).
func (r *RequestRepository) DeleteLines(ctx context.Context, exec sqlx.ExtContext, requestID string, lineIDs []string) (int64, error) {
	if len(lineIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM request_lines WHERE request_id = ? AND id IN (?)`, requestID, lineIDs)
	if err != nil {
		return 0, fmt.Errorf("build delete lines query: %w", err)
	}
	result, err := exec.ExecContext(ctx, exec.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("delete request lines: %w", err)
	}
	return result.RowsAffected()
}

// CountLines returns the number of lines remaining on a request.
func (r *RequestRepository) CountLines(ctx context.Context, exec sqlx.ExtContext, requestID string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, exec, &count, `SELECT COUNT(*) FROM request_lines WHERE request_id = $1`, requestID); err != nil {
		return 0, fmt.Errorf("count request lines: %w", err)
	}
	return count, nil
}

// UpdateStatus sets the status unconditionally within the caller's
// transaction; transition guards live in the service layer, which holds the
// row lock.
func (r *RequestRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.RequestStatus) error {
	if _, err := exec.ExecContext(ctx, `UPDATE purchase_requests SET status = $1 WHERE id = $2`, status, id); err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	return nil
}

// UpdateApproval records an approval or rejection outcome.
func (r *RequestRepository) UpdateApproval(ctx context.Context, exec sqlx.ExtContext, id string, status models.RequestStatus, approverID string, note string, at time.Time) error {
	const query = `UPDATE purchase_requests SET status = $1, approver_id = $2, approval_note = $3, approved_at = $4 WHERE id = $5`
	if _, err := exec.ExecContext(ctx, query, status, approverID, note, at, id); err != nil {
		return fmt.Errorf("update request approval: %w", err)
	}
	return nil
}

// List returns requests matching the filter, newest first, plus the total
// count for pagination.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.PurchaseRequest, int, error) {
	conditions := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SiteID != "" {
		args = append(args, filter.SiteID)
		conditions = append(conditions, fmt.Sprintf("site_id = $%d", len(args)))
	}
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)))
	}
	if filter.Urgent != nil {
		args = append(args, *filter.Urgent)
		conditions = append(conditions, fmt.Sprintf("urgent = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(identifier ILIKE $%d OR justification ILIKE $%d)", len(args), len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM purchase_requests"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count purchase requests: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf("SELECT %s FROM purchase_requests%s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		requestColumns, where, limit, offset)

	var requests []models.PurchaseRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list purchase requests: %w", err)
	}
	return requests, total, nil
}

// CountByStatus aggregates request counts for the dashboard.
func (r *RequestRepository) CountByStatus(ctx context.Context) (map[models.RequestStatus]int, error) {
	rows := []struct {
		Status models.RequestStatus `db:"status"`
		Count  int                  `db:"count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM purchase_requests GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count requests by status: %w", err)
	}
	counts := make(map[models.RequestStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountUrgentOpen counts urgent requests that are not in a terminal status.
func (r *RequestRepository) CountUrgentOpen(ctx context.Context) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM purchase_requests WHERE urgent = TRUE AND status NOT IN ($1, $2)`
	if err := r.db.GetContext(ctx, &count, query, models.RequestStatusRejected, models.RequestStatusReceived); err != nil {
		return 0, fmt.Errorf("count urgent requests: %w", err)
	}
	return count, nil
}
