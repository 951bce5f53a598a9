package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/obratech/procurement-api/internal/dto"
	"github.com/obratech/procurement-api/internal/models"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
	"github.com/obratech/procurement-api/pkg/export"
)

type userStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type documentRenderer interface {
	Render(doc export.RequisitionDocument, header export.CompanyHeader) ([]byte, error)
}

// RequisitionService enforces the two-signature authorization protocol and
// renders the signed document.
type RequisitionService struct {
	requests     requestStore
	requisitions requisitionStore
	quotations   quotationStore
	suppliers    supplierStore
	users        userStore
	audits       auditStore
	renderer     documentRenderer
	headers      map[models.HeaderProfile]export.CompanyHeader
	logger       *zap.Logger
}

// NewRequisitionService constructs the service.
func NewRequisitionService(
	requests requestStore,
	requisitions requisitionStore,
	quotations quotationStore,
	suppliers supplierStore,
	users userStore,
	audits auditStore,
	renderer documentRenderer,
	headers map[models.HeaderProfile]export.CompanyHeader,
	logger *zap.Logger,
) *RequisitionService {
	return &RequisitionService{
		requests:     requests,
		requisitions: requisitions,
		quotations:   quotations,
		suppliers:    suppliers,
		users:        users,
		audits:       audits,
		renderer:     renderer,
		headers:      headers,
		logger:       logger,
	}
}

// Sign fills the signer's slot after confirming their password. Clerk signs
// first, director second; any out-of-order attempt is a state conflict and
// existing signatures are never overwritten.
func (s *RequisitionService) Sign(ctx context.Context, actor *models.JWTClaims, requisitionID string, input dto.SignRequisitionInput) (*models.MaterialRequisition, error) {
	var slot models.SignerRole
	switch actor.Role {
	case models.RoleOfficeClerk:
		slot = models.SignerClerk
	case models.RoleDirector:
		slot = models.SignerDirector
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role cannot sign requisitions")
	}

	signer, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, translateNotFound(err, "signer not found")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(signer.PasswordHash), []byte(input.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "password confirmation failed")
	}

	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin sign requisition: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	requisition, err := s.requisitions.GetForUpdate(ctx, tx, requisitionID)
	if err != nil {
		return nil, translateNotFound(err, "requisition not found")
	}

	now := time.Now().UTC()
	var signed bool
	var action string
	switch slot {
	case models.SignerClerk:
		signed, err = s.requisitions.SetClerkSignature(ctx, tx, requisitionID, actor.UserID, now)
		action = models.AuditActionClerkSigned
	case models.SignerDirector:
		signed, err = s.requisitions.SetDirectorSignature(ctx, tx, requisitionID, actor.UserID, now)
		action = models.AuditActionDirectorSigned
	}
	if err != nil {
		return nil, err
	}
	if !signed {
		return nil, appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("signature slot not available in status %s", requisition.SignatureStatus))
	}

	// The request's history is the single source of truth, so signature
	// entries land on the originating request.
	if err := s.audits.Append(ctx, tx, &models.AuditEntry{
		RequestID: requisition.RequestID,
		ActorID:   &actor.UserID,
		Action:    action,
		Detail:    fmt.Sprintf("requisition %s signed by %s", requisition.Identifier, signer.FullName),
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sign requisition: %w", err)
	}

	updated, err := s.requisitions.GetByID(ctx, requisitionID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("requisition signed",
		zap.String("requisition", requisition.Identifier),
		zap.String("slot", string(slot)))
	return updated, nil
}

// DispatchToSupplier closes the authorization protocol: only a fully signed
// requisition can go out, and the owning request moves to in-transit.
func (s *RequisitionService) DispatchToSupplier(ctx context.Context, actor *models.JWTClaims, requisitionID string) (*models.MaterialRequisition, error) {
	if actor.Role != models.RoleOfficeClerk && actor.Role != models.RoleDirector {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only office staff dispatch requisitions")
	}

	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin dispatch requisition: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	requisition, err := s.requisitions.GetForUpdate(ctx, tx, requisitionID)
	if err != nil {
		return nil, translateNotFound(err, "requisition not found")
	}
	request, err := s.requests.GetForUpdate(ctx, tx, requisition.RequestID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dispatched, err := s.requisitions.MarkDispatched(ctx, tx, requisitionID, now)
	if err != nil {
		return nil, err
	}
	if !dispatched {
		return nil, appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("requisition in status %s cannot be dispatched", requisition.SignatureStatus))
	}

	if err := s.requests.UpdateStatus(ctx, tx, request.ID, models.RequestStatusInTransit); err != nil {
		return nil, err
	}
	if err := s.audits.Append(ctx, tx, &models.AuditEntry{
		RequestID: request.ID,
		ActorID:   &actor.UserID,
		Action:    models.AuditActionInTransit,
		Detail:    fmt.Sprintf("requisition %s dispatched to supplier", requisition.Identifier),
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit dispatch requisition: %w", err)
	}

	requisition.SignatureStatus = models.SignatureStatusDispatched
	requisition.DispatchedAt = &now
	return requisition, nil
}

// Get returns one requisition.
func (s *RequisitionService) Get(ctx context.Context, requisitionID string) (*models.MaterialRequisition, error) {
	requisition, err := s.requisitions.GetByID(ctx, requisitionID)
	if err != nil {
		return nil, translateNotFound(err, "requisition not found")
	}
	return requisition, nil
}

// List returns requisitions filtered by signature status.
func (s *RequisitionService) List(ctx context.Context, query dto.ListRequisitionsQuery) ([]models.MaterialRequisition, *models.Pagination, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	requisitions, total, err := s.requisitions.List(ctx, models.SignatureStatus(query.SignatureStatus), pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, nil, err
	}
	return requisitions, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// RenderPDF produces the printable requisition document. Rendering is a
// pure read and never mutates workflow state.
func (s *RequisitionService) RenderPDF(ctx context.Context, requisitionID string) ([]byte, string, error) {
	requisition, err := s.requisitions.GetByID(ctx, requisitionID)
	if err != nil {
		return nil, "", translateNotFound(err, "requisition not found")
	}
	request, err := s.requests.GetByID(ctx, requisition.RequestID)
	if err != nil {
		return nil, "", err
	}
	quotation, err := s.quotations.GetQuotation(ctx, requisition.QuotationID)
	if err != nil {
		return nil, "", err
	}
	supplier, err := s.suppliers.GetByID(ctx, quotation.SupplierID)
	if err != nil {
		return nil, "", err
	}

	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return nil, "", fmt.Errorf("begin render requisition: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	lines, err := s.requests.GetLines(ctx, tx, request.ID)
	if err != nil {
		return nil, "", err
	}

	prices := make(map[string]models.QuotedLine, len(quotation.Lines))
	for _, quoted := range quotation.Lines {
		prices[quoted.RequestLineID] = quoted
	}

	doc := export.RequisitionDocument{
		Identifier:        requisition.Identifier,
		RequestIdentifier: request.Identifier,
		SupplierName:      supplier.TradeName,
		IssuedAt:          requisition.CreatedAt.Format("2006-01-02"),
		Freight:           quotation.Freight.StringFixed(2),
		Total:             requisition.TotalValue.StringFixed(2),
	}
	for _, line := range lines {
		quoted, ok := prices[line.ID]
		if !ok {
			continue
		}
		doc.Lines = append(doc.Lines, export.RequisitionLine{
			Description: line.Description,
			Unit:        line.Unit,
			Quantity:    line.Quantity.String(),
			UnitPrice:   quoted.Price.StringFixed(2),
			Subtotal:    quoted.Price.Mul(line.Quantity).StringFixed(2),
		})
	}
	if requisition.ClerkSignerID != nil {
		if clerk, err := s.users.GetByID(ctx, *requisition.ClerkSignerID); err == nil {
			doc.ClerkSigner = clerk.FullName
		}
	}
	if requisition.DirectorSignerID != nil {
		if director, err := s.users.GetByID(ctx, *requisition.DirectorSignerID); err == nil {
			doc.DirectorSigner = director.FullName
		}
	}

	header, ok := s.headers[requisition.HeaderProfile]
	if !ok {
		header = s.headers[models.HeaderProfileA]
	}
	pdf, err := s.renderer.Render(doc, header)
	if err != nil {
		return nil, "", fmt.Errorf("render requisition %s: %w", requisition.Identifier, err)
	}
	filename := fmt.Sprintf("%s.pdf", requisition.Identifier)
	return pdf, filename, nil
}
