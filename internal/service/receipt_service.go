package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/obratech/procurement-api/internal/dto"
	"github.com/obratech/procurement-api/internal/models"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
)

type receiptStore interface {
	CreateEvent(ctx context.Context, exec sqlx.ExtContext, event *models.ReceiptEvent) error
	AccumulatedByLine(ctx context.Context, exec sqlx.ExtContext, requestID string) (map[string]decimal.Decimal, error)
	ListEvents(ctx context.Context, requestID string) ([]models.ReceiptEvent, error)
}

// ReceiptService records deliveries and derives the request's receipt
// status from the full event history.
type ReceiptService struct {
	requests requestStore
	receipts receiptStore
	audits   auditStore
	logger   *zap.Logger
}

// NewReceiptService constructs the service.
func NewReceiptService(requests requestStore, receipts receiptStore, audits auditStore, logger *zap.Logger) *ReceiptService {
	return &ReceiptService{requests: requests, receipts: receipts, audits: audits, logger: logger}
}

// Record confirms one delivery. The request's status is re-derived from the
// accumulated quantities across every receipt event, not just this one, so
// the result is replayable from the event log. Over-receipt is flagged in
// the returned progress but never blocks completion.
func (s *ReceiptService) Record(ctx context.Context, actor *models.JWTClaims, requestID string, input dto.RecordReceiptInput) ([]models.LineProgress, error) {
	received := make([]models.ReceivedLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.Quantity.IsNegative() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "received quantity cannot be negative")
		}
		if line.Quantity.IsZero() {
			continue
		}
		received = append(received, models.ReceivedLine{
			RequestLineID: line.RequestLineID,
			Quantity:      line.Quantity,
			Note:          line.Note,
		})
	}
	if len(received) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one line must have a positive quantity")
	}

	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin record receipt: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	request, err := s.requests.GetForUpdate(ctx, tx, requestID)
	if err != nil {
		return nil, translateNotFound(err, "purchase request not found")
	}
	if request.Status != models.RequestStatusInTransit && request.Status != models.RequestStatusPartiallyReceived {
		return nil, appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("cannot record receipt in status %s", request.Status))
	}

	lines, err := s.requests.GetLines(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(lines))
	for _, line := range lines {
		known[line.ID] = true
	}
	for _, line := range received {
		if !known[line.RequestLineID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "received lines must belong to the request")
		}
	}

	event := &models.ReceiptEvent{
		RequestID:  requestID,
		RecorderID: actor.UserID,
		Note:       input.Note,
		Lines:      received,
	}
	if err := s.receipts.CreateEvent(ctx, tx, event); err != nil {
		return nil, err
	}

	accumulated, err := s.receipts.AccumulatedByLine(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	progress, complete := reconcile(lines, accumulated)

	status := models.RequestStatusPartiallyReceived
	action := models.AuditActionPartialReceipt
	if complete {
		status = models.RequestStatusReceived
		action = models.AuditActionTotalReceipt
	}
	if err := s.requests.UpdateStatus(ctx, tx, requestID, status); err != nil {
		return nil, err
	}
	if err := s.audits.Append(ctx, tx, &models.AuditEntry{
		RequestID: requestID,
		ActorID:   &actor.UserID,
		Action:    action,
		Detail:    fmt.Sprintf("%d lines received in this delivery", len(received)),
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit record receipt: %w", err)
	}
	s.logger.Info("receipt recorded",
		zap.String("request", request.Identifier),
		zap.String("status", string(status)))
	return progress, nil
}

// Progress returns the reconciliation view for every line of the request.
func (s *ReceiptService) Progress(ctx context.Context, requestID string) ([]models.LineProgress, error) {
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		return nil, translateNotFound(err, "purchase request not found")
	}
	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin receipt progress: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	lines, err := s.requests.GetLines(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	accumulated, err := s.receipts.AccumulatedByLine(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	progress, _ := reconcile(lines, accumulated)
	return progress, nil
}

// PendingLines returns only the lines still awaiting material.
func (s *ReceiptService) PendingLines(ctx context.Context, requestID string) ([]models.LineProgress, error) {
	progress, err := s.Progress(ctx, requestID)
	if err != nil {
		return nil, err
	}
	pending := make([]models.LineProgress, 0, len(progress))
	for _, line := range progress {
		if !line.Complete {
			pending = append(pending, line)
		}
	}
	return pending, nil
}

// Events returns the request's receipt history.
func (s *ReceiptService) Events(ctx context.Context, requestID string) ([]models.ReceiptEvent, error) {
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		return nil, translateNotFound(err, "purchase request not found")
	}
	return s.receipts.ListEvents(ctx, requestID)
}

func reconcile(lines []models.RequestLine, accumulated map[string]decimal.Decimal) ([]models.LineProgress, bool) {
	progress := make([]models.LineProgress, 0, len(lines))
	complete := true
	for _, line := range lines {
		got := accumulated[line.ID]
		pending := line.Quantity.Sub(got)
		if pending.IsNegative() {
			pending = decimal.Zero
		}
		lineComplete := got.GreaterThanOrEqual(line.Quantity)
		if !lineComplete {
			complete = false
		}
		progress = append(progress, models.LineProgress{
			RequestLineID: line.ID,
			Description:   line.Description,
			Unit:          line.Unit,
			Requested:     line.Quantity,
			Received:      got,
			Pending:       pending,
			Complete:      lineComplete,
			OverReceived:  got.GreaterThan(line.Quantity),
		})
	}
	return progress, complete
}
