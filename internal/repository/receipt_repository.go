package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/obratech/procurement-api/internal/models"
)

// ReceiptRepository persists receipt events. Events are append-only;
// reconciliation always reads the accumulated sum across all of them.
type ReceiptRepository struct {
	db *sqlx.DB
}

// NewReceiptRepository constructs the repository.
func NewReceiptRepository(db *sqlx.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// CreateEvent inserts one receipt event and its lines.
func (r *ReceiptRepository) CreateEvent(ctx context.Context, exec sqlx.ExtContext, event *models.ReceiptEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}
	const query = `INSERT INTO receipt_events (id, request_id, recorder_id, received_at, note)
	VALUES (:id, :request_id, :recorder_id, :received_at, :note)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, event); err != nil {
		return fmt.Errorf("create receipt event: %w", err)
	}
	const lineQuery = `INSERT INTO received_lines (id, receipt_id, request_line_id, quantity, note)
	VALUES ($1, $2, $3, $4, $5)`
	for i := range event.Lines {
		if event.Lines[i].ID == "" {
			event.Lines[i].ID = uuid.NewString()
		}
		event.Lines[i].ReceiptID = event.ID
		line := event.Lines[i]
		if _, err := exec.ExecContext(ctx, lineQuery, line.ID, line.ReceiptID, line.RequestLineID, line.Quantity, line.Note); err != nil {
			return fmt.Errorf("insert received line: %w", err)
		}
	}
	return nil
}

// AccumulatedByLine sums received quantities per request line across every
// receipt event of the request.
func (r *ReceiptRepository) AccumulatedByLine(ctx context.Context, exec sqlx.ExtContext, requestID string) (map[string]decimal.Decimal, error) {
	rows := []struct {
		RequestLineID string          `db:"request_line_id"`
		Total         decimal.Decimal `db:"total"`
	}{}
	const query = `SELECT rl.request_line_id, SUM(rl.quantity) AS total
	FROM received_lines rl
	JOIN receipt_events re ON re.id = rl.receipt_id
	WHERE re.request_id = $1
	GROUP BY rl.request_line_id`
	if err := sqlx.SelectContext(ctx, exec, &rows, query, requestID); err != nil {
		return nil, fmt.Errorf("sum received quantities: %w", err)
	}
	totals := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.RequestLineID] = row.Total
	}
	return totals, nil
}

// ListEvents returns a request's receipt events with lines, oldest first.
func (r *ReceiptRepository) ListEvents(ctx context.Context, requestID string) ([]models.ReceiptEvent, error) {
	const query = `SELECT id, request_id, recorder_id, received_at, note
	FROM receipt_events WHERE request_id = $1 ORDER BY received_at ASC, id ASC`
	var events []models.ReceiptEvent
	if err := r.db.SelectContext(ctx, &events, query, requestID); err != nil {
		return nil, fmt.Errorf("list receipt events: %w", err)
	}
	for i := range events {
		if err := r.db.SelectContext(ctx, &events[i].Lines,
			`SELECT id, receipt_id, request_line_id, quantity, note FROM received_lines WHERE receipt_id = $1`,
			events[i].ID); err != nil {
			return nil, fmt.Errorf("list received lines: %w", err)
		}
	}
	return events, nil
}
