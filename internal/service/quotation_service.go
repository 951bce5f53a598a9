package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/obratech/procurement-api/internal/dto"
	"github.com/obratech/procurement-api/internal/models"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
)

type quotationStore interface {
	CreateDispatch(ctx context.Context, exec sqlx.ExtContext, dispatch *models.QuotationDispatch) error
	GetDispatch(ctx context.Context, id string) (*models.QuotationDispatch, error)
	ListDispatches(ctx context.Context, requestID string) ([]models.QuotationDispatch, error)
	HasDispatch(ctx context.Context, exec sqlx.ExtContext, requestID, supplierID string) (bool, error)
	MarkDispatchResponded(ctx context.Context, exec sqlx.ExtContext, requestID, supplierID string) error
	UpsertQuotation(ctx context.Context, exec sqlx.ExtContext, quotation *models.Quotation) error
	ReplaceQuotedLines(ctx context.Context, exec sqlx.ExtContext, quotationID string, lines []models.QuotedLine) error
	GetQuotation(ctx context.Context, id string) (*models.Quotation, error)
	GetQuotationForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Quotation, error)
	ListQuotations(ctx context.Context, requestID string) ([]models.Quotation, error)
	CountDispatches(ctx context.Context, exec sqlx.ExtContext, requestID string) (int, error)
	CountQuotations(ctx context.Context, exec sqlx.ExtContext, requestID string) (int, error)
	SetWinning(ctx context.Context, exec sqlx.ExtContext, id string) error
	DeleteQuotation(ctx context.Context, exec sqlx.ExtContext, id string) error
	DeleteLosingQuotations(ctx context.Context, exec sqlx.ExtContext, requestID, keepID string) error
	DeleteDispatches(ctx context.Context, exec sqlx.ExtContext, requestID string) error
}

type requisitionStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, requisition *models.MaterialRequisition) error
	GetByID(ctx context.Context, id string) (*models.MaterialRequisition, error)
	GetByRequestID(ctx context.Context, exec sqlx.ExtContext, requestID string) (*models.MaterialRequisition, error)
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.MaterialRequisition, error)
	SetClerkSignature(ctx context.Context, exec sqlx.ExtContext, id, signerID string, at time.Time) (bool, error)
	SetDirectorSignature(ctx context.Context, exec sqlx.ExtContext, id, signerID string, at time.Time) (bool, error)
	MarkDispatched(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) (bool, error)
	List(ctx context.Context, status models.SignatureStatus, limit, offset int) ([]models.MaterialRequisition, int, error)
}

type supplierStore interface {
	GetByID(ctx context.Context, id string) (*models.Supplier, error)
	List(ctx context.Context, kind models.SupplierKind, search string, activeOnly bool) ([]models.Supplier, error)
}

// QuotationService tracks dispatch/response parity, records supplier
// quotations and converts the winning one into a material requisition.
type QuotationService struct {
	requests      requestStore
	quotations    quotationStore
	requisitions  requisitionStore
	suppliers     supplierStore
	sequences     sequenceAllocator
	audits        auditStore
	headerProfile models.HeaderProfile
	logger        *zap.Logger
}

// NewQuotationService constructs the service.
func NewQuotationService(
	requests requestStore,
	quotations quotationStore,
	requisitions requisitionStore,
	suppliers supplierStore,
	sequences sequenceAllocator,
	audits auditStore,
	headerProfile models.HeaderProfile,
	logger *zap.Logger,
) *QuotationService {
	if headerProfile == "" {
		headerProfile = models.HeaderProfileA
	}
	return &QuotationService{
		requests:      requests,
		quotations:    quotations,
		requisitions:  requisitions,
		suppliers:     suppliers,
		sequences:     sequences,
		audits:        audits,
		headerProfile: headerProfile,
		logger:        logger,
	}
}

// Dispatch sends a line subset to one or more suppliers for pricing and
// moves the request to awaiting-response. Dispatching while a parity-based
// selection is pending reverts the request to awaiting-response, so the new
// dispatch counts before any winner is chosen.
func (s *QuotationService) Dispatch(ctx context.Context, actor *models.JWTClaims, requestID string, input dto.DispatchInput) ([]models.QuotationDispatch, error) {
	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin dispatch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	request, err := s.requests.GetForUpdate(ctx, tx, requestID)
	if err != nil {
		return nil, translateNotFound(err, "purchase request not found")
	}
	switch request.Status {
	case models.RequestStatusInQuotation, models.RequestStatusAwaitingResponse, models.RequestStatusQuotationSelected:
	default:
		return nil, appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("cannot dispatch quotation in status %s", request.Status))
	}

	lines, err := s.requests.GetLines(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(lines))
	for _, line := range lines {
		known[line.ID] = true
	}
	for _, lineID := range input.LineIDs {
		if !known[lineID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "dispatch lines must belong to the request")
		}
	}

	paymentMethod := models.PaymentMethod(input.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = models.PaymentNegotiable
	}

	created := make([]models.QuotationDispatch, 0, len(input.SupplierIDs))
	for _, supplierID := range input.SupplierIDs {
		exists, err := s.quotations.HasDispatch(ctx, tx, requestID, supplierID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrStateConflict,
				fmt.Sprintf("supplier %s already has a pending dispatch", supplierID))
		}
		dispatch := models.QuotationDispatch{
			RequestID:        requestID,
			SupplierID:       supplierID,
			ResponseDeadline: input.ResponseDeadline,
			PaymentMethod:    paymentMethod,
			PaymentTermDays:  input.PaymentTermDays,
			Note:             input.Note,
			LineIDs:          input.LineIDs,
		}
		if err := s.quotations.CreateDispatch(ctx, tx, &dispatch); err != nil {
			return nil, err
		}
		created = append(created, dispatch)
	}

	if request.Status != models.RequestStatusAwaitingResponse {
		if err := s.requests.UpdateStatus(ctx, tx, requestID, models.RequestStatusAwaitingResponse); err != nil {
			return nil, err
		}
	}
	if err := s.audits.Append(ctx, tx, &models.AuditEntry{
		RequestID: requestID,
		ActorID:   &actor.UserID,
		Action:    models.AuditActionQuotationDispatched,
		Detail:    fmt.Sprintf("%d lines dispatched to %d suppliers", len(input.LineIDs), len(input.SupplierIDs)),
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit dispatch: %w", err)
	}
	return created, nil
}

// RecordQuotation upserts a supplier's priced response. Line prices replace
// any earlier submission entirely. An all-zero submission is discarded as a
// validation error. The parity check runs in the same transaction as the
// write: when every dispatch has a response the request advances to
// quotation-selected.
func (s *QuotationService) RecordQuotation(ctx context.Context, actor *models.JWTClaims, requestID string, input dto.RecordQuotationInput) (*models.Quotation, error) {
	hasPositive := false
	for _, line := range input.Lines {
		if line.Price.IsPositive() {
			hasPositive = true
			break
		}
	}
	if !hasPositive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one line must have a positive price")
	}
	if input.Freight.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "freight cannot be negative")
	}

	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin record quotation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	request, err := s.requests.GetForUpdate(ctx, tx, requestID)
	if err != nil {
		return nil, translateNotFound(err, "purchase request not found")
	}
	if request.Status != models.RequestStatusAwaitingResponse && request.Status != models.RequestStatusQuotationSelected {
		return nil, appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("cannot record quotation in status %s", request.Status))
	}

	dispatched, err := s.quotations.HasDispatch(ctx, tx, requestID, input.SupplierID)
	if err != nil {
		return nil, err
	}
	if !dispatched {
		return nil, appErrors.Clone(appErrors.ErrValidation, "supplier has no dispatch for this request")
	}

	quotation := &models.Quotation{
		RequestID:        requestID,
		SupplierID:       input.SupplierID,
		DeliveryTerm:     input.DeliveryTerm,
		PaymentCondition: input.PaymentCondition,
		Note:             input.Note,
		Freight:          input.Freight,
	}
	if err := s.quotations.UpsertQuotation(ctx, tx, quotation); err != nil {
		return nil, err
	}

	quoted := make([]models.QuotedLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		quoted = append(quoted, models.QuotedLine{RequestLineID: line.RequestLineID, Price: line.Price})
	}
	if err := s.quotations.ReplaceQuotedLines(ctx, tx, quotation.ID, quoted); err != nil {
		return nil, err
	}
	if err := s.quotations.MarkDispatchResponded(ctx, tx, requestID, input.SupplierID); err != nil {
		return nil, err
	}

	dispatchCount, err := s.quotations.CountDispatches(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	quotationCount, err := s.quotations.CountQuotations(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	parityReached := dispatchCount > 0 && dispatchCount == quotationCount
	detail := fmt.Sprintf("quotation recorded for supplier %s (%d/%d responses)", input.SupplierID, quotationCount, dispatchCount)
	if parityReached && request.Status == models.RequestStatusAwaitingResponse {
		if err := s.requests.UpdateStatus(ctx, tx, requestID, models.RequestStatusQuotationSelected); err != nil {
			return nil, err
		}
		detail += ", all responses in"
	}

	if err := s.audits.Append(ctx, tx, &models.AuditEntry{
		RequestID: requestID,
		ActorID:   &actor.UserID,
		Action:    models.AuditActionQuotationRecorded,
		Detail:    detail,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit record quotation: %w", err)
	}
	quotation.Lines = quoted
	return quotation, nil
}

// SelectWinner marks one quotation as winning and creates the material
// requisition. The call is idempotent: if the request already has a
// requisition it is returned unchanged. Losing quotations and every
// dispatch are removed.
func (s *QuotationService) SelectWinner(ctx context.Context, actor *models.JWTClaims, quotationID string) (*models.MaterialRequisition, error) {
	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin select winner: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	quotation, err := s.quotations.GetQuotationForUpdate(ctx, tx, quotationID)
	if err != nil {
		return nil, translateNotFound(err, "quotation not found")
	}
	request, err := s.requests.GetForUpdate(ctx, tx, quotation.RequestID)
	if err != nil {
		return nil, err
	}

	// Idempotent guard: a duplicate submission returns the existing
	// requisition instead of creating a second one.
	existing, err := s.requisitions.GetByRequestID(ctx, tx, request.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if request.Status != models.RequestStatusAwaitingResponse && request.Status != models.RequestStatusQuotationSelected {
		return nil, appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("cannot select winner in status %s", request.Status))
	}

	if err := s.quotations.DeleteLosingQuotations(ctx, tx, request.ID, quotationID); err != nil {
		return nil, err
	}
	if err := s.quotations.DeleteDispatches(ctx, tx, request.ID); err != nil {
		return nil, err
	}
	if err := s.quotations.SetWinning(ctx, tx, quotationID); err != nil {
		return nil, err
	}

	quantities, err := s.requests.LineQuantities(ctx, tx, request.ID)
	if err != nil {
		return nil, err
	}
	total := quotation.Total(quantities)

	identifier, err := s.sequences.NextRequisitionIdentifier(ctx, tx, time.Now().UTC().Year())
	if err != nil {
		return nil, err
	}
	requisition := &models.MaterialRequisition{
		Identifier:      identifier,
		RequestID:       request.ID,
		QuotationID:     quotationID,
		TotalValue:      total,
		SignatureStatus: models.SignatureStatusUnsigned,
		HeaderProfile:   s.headerProfile,
	}
	if err := s.requisitions.Create(ctx, tx, requisition); err != nil {
		return nil, err
	}

	if err := s.requests.UpdateStatus(ctx, tx, request.ID, models.RequestStatusFinalized); err != nil {
		return nil, err
	}
	if err := s.audits.Append(ctx, tx, &models.AuditEntry{
		RequestID: request.ID,
		ActorID:   &actor.UserID,
		Action:    models.AuditActionRequisitionCreated,
		Detail:    fmt.Sprintf("requisition %s created from supplier %s, total %s", identifier, quotation.SupplierID, total.StringFixed(2)),
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit select winner: %w", err)
	}
	s.logger.Info("winner selected",
		zap.String("request", request.Identifier),
		zap.String("requisition", identifier),
		zap.String("total", total.StringFixed(2)))
	return requisition, nil
}

// RejectQuotation discards a supplier's response. When no quotation remains
// the request reopens for responses.
func (s *QuotationService) RejectQuotation(ctx context.Context, actor *models.JWTClaims, quotationID string, reason string) error {
	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reject quotation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	quotation, err := s.quotations.GetQuotationForUpdate(ctx, tx, quotationID)
	if err != nil {
		return translateNotFound(err, "quotation not found")
	}
	request, err := s.requests.GetForUpdate(ctx, tx, quotation.RequestID)
	if err != nil {
		return err
	}
	if request.Status != models.RequestStatusAwaitingResponse && request.Status != models.RequestStatusQuotationSelected {
		return appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("cannot reject quotation in status %s", request.Status))
	}

	if err := s.quotations.DeleteQuotation(ctx, tx, quotationID); err != nil {
		return err
	}
	remaining, err := s.quotations.CountQuotations(ctx, tx, request.ID)
	if err != nil {
		return err
	}
	if remaining == 0 && request.Status == models.RequestStatusQuotationSelected {
		if err := s.requests.UpdateStatus(ctx, tx, request.ID, models.RequestStatusAwaitingResponse); err != nil {
			return err
		}
	}

	detail := fmt.Sprintf("quotation from supplier %s rejected", quotation.SupplierID)
	if reason != "" {
		detail += ": " + reason
	}
	if err := s.audits.Append(ctx, tx, &models.AuditEntry{
		RequestID: request.ID,
		ActorID:   &actor.UserID,
		Action:    models.AuditActionQuotationRejected,
		Detail:    detail,
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reject quotation: %w", err)
	}
	return nil
}

// Board assembles the quotation overview for one request: its dispatches
// and quotations side by side.
func (s *QuotationService) Board(ctx context.Context, requestID string) ([]models.QuotationDispatch, []models.Quotation, error) {
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		return nil, nil, translateNotFound(err, "purchase request not found")
	}
	dispatches, err := s.quotations.ListDispatches(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	quotations, err := s.quotations.ListQuotations(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	return dispatches, quotations, nil
}

// EmailDraft renders a ready-to-send price request message for a dispatch.
// Sending it is the caller's concern.
func (s *QuotationService) EmailDraft(ctx context.Context, dispatchID string) (*dto.EmailDraft, error) {
	dispatch, err := s.quotations.GetDispatch(ctx, dispatchID)
	if err != nil {
		return nil, translateNotFound(err, "quotation dispatch not found")
	}
	request, err := s.requests.GetByID(ctx, dispatch.RequestID)
	if err != nil {
		return nil, err
	}
	supplier, err := s.suppliers.GetByID(ctx, dispatch.SupplierID)
	if err != nil {
		return nil, translateNotFound(err, "supplier not found")
	}

	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin email draft: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	lines, err := s.requests.GetLines(ctx, tx, dispatch.RequestID)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(dispatch.LineIDs))
	for _, id := range dispatch.LineIDs {
		wanted[id] = true
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n", supplier.TradeName)
	fmt.Fprintf(&body, "Please quote the following items for purchase request %s:\n\n", request.Identifier)
	for _, line := range lines {
		if !wanted[line.ID] {
			continue
		}
		fmt.Fprintf(&body, "- %s x %s %s", line.Quantity.String(), line.Unit, line.Description)
		if line.Note != "" {
			fmt.Fprintf(&body, " (%s)", line.Note)
		}
		body.WriteString("\n")
	}
	if dispatch.ResponseDeadline != nil {
		fmt.Fprintf(&body, "\nPlease respond by %s.\n", dispatch.ResponseDeadline.Format("2006-01-02"))
	}
	if dispatch.PaymentMethod != "" && dispatch.PaymentMethod != models.PaymentNegotiable {
		fmt.Fprintf(&body, "Intended payment: %s", dispatch.PaymentMethod)
		if dispatch.PaymentTermDays > 0 {
			fmt.Fprintf(&body, " in %d days", dispatch.PaymentTermDays)
		}
		body.WriteString(".\n")
	}
	body.WriteString("\nBest regards,\nProcurement office\n")

	return &dto.EmailDraft{
		To:      supplier.Email,
		Subject: fmt.Sprintf("Price request %s", request.Identifier),
		Body:    body.String(),
	}, nil
}
