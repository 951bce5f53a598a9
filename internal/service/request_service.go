package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/obratech/procurement-api/internal/dto"
	"github.com/obratech/procurement-api/internal/models"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
)

type requestStore interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	Create(ctx context.Context, exec sqlx.ExtContext, request *models.PurchaseRequest) error
	GetByID(ctx context.Context, id string) (*models.PurchaseRequest, error)
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.PurchaseRequest, error)
	GetLines(ctx context.Context, exec sqlx.ExtContext, requestID string) ([]models.RequestLine, error)
	LineQuantities(ctx context.Context, exec sqlx.ExtContext, requestID string) (map[string]decimal.Decimal, error)
	InsertLines(ctx context.Context, exec sqlx.ExtContext, lines []models.RequestLine) error
	DeleteLines(ctx context.Context, exec sqlx.ExtContext, requestID string, lineIDs []string) (int64, error)
	CountLines(ctx context.Context, exec sqlx.ExtContext, requestID string) (int, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.RequestStatus) error
	UpdateApproval(ctx context.Context, exec sqlx.ExtContext, id string, status models.RequestStatus, approverID string, note string, at time.Time) error
	List(ctx context.Context, filter models.RequestFilter) ([]models.PurchaseRequest, int, error)
}

type sequenceAllocator interface {
	NextRequestIdentifier(ctx context.Context, tx *sqlx.Tx, day time.Time) (string, error)
	NextChildIdentifier(ctx context.Context, tx *sqlx.Tx, parentIdentifier string) (string, error)
	NextRequisitionIdentifier(ctx context.Context, tx *sqlx.Tx, year int) (string, error)
}

type auditStore interface {
	Append(ctx context.Context, exec sqlx.ExtContext, entry *models.AuditEntry) error
	ListByRequest(ctx context.Context, requestID string) ([]models.AuditEntry, error)
}

// RequestService owns the purchase request lifecycle from creation through
// approval, split and the handoff into quotation.
type RequestService struct {
	requests  requestStore
	sequences sequenceAllocator
	audits    auditStore
	logger    *zap.Logger
}

// NewRequestService constructs the service.
func NewRequestService(requests requestStore, sequences sequenceAllocator, audits auditStore, logger *zap.Logger) *RequestService {
	return &RequestService{requests: requests, sequences: sequences, audits: audits, logger: logger}
}

// Create opens a purchase request. Requests from elevated roles skip the
// approval queue and are approved on creation, with a dedicated audit entry.
func (s *RequestService) Create(ctx context.Context, actor *models.JWTClaims, input dto.CreateRequestInput) (*models.PurchaseRequest, error) {
	lines, err := buildLines(input.Lines)
	if err != nil {
		return nil, err
	}

	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create request: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	identifier, err := s.sequences.NextRequestIdentifier(ctx, tx, now)
	if err != nil {
		return nil, err
	}

	request := &models.PurchaseRequest{
		Identifier:    identifier,
		RequesterID:   actor.UserID,
		SiteID:        input.SiteID,
		NeedBy:        input.NeedBy,
		Justification: input.Justification,
		Urgent:        input.Urgent,
		CategoryTag:   input.CategoryTag,
		Status:        models.RequestStatusPendingApproval,
		CreatedAt:     now,
		Lines:         lines,
	}
	if actor.Role.ElevatedAuthority() {
		request.Status = models.RequestStatusApproved
		request.ApproverID = &actor.UserID
		request.ApprovedAt = &now
	}

	if err := s.requests.Create(ctx, tx, request); err != nil {
		return nil, err
	}
	if err := s.audits.Append(ctx, tx, &models.AuditEntry{
		RequestID: request.ID,
		ActorID:   &actor.UserID,
		Action:    models.AuditActionCreated,
		Detail:    fmt.Sprintf("request %s created with %d lines", request.Identifier, len(lines)),
	}); err != nil {
		return nil, err
	}
	if actor.Role.ElevatedAuthority() {
		if err := s.audits.Append(ctx, tx, &models.AuditEntry{
			RequestID: request.ID,
			ActorID:   &actor.UserID,
			Action:    models.AuditActionApprovedOnCreation,
			Detail:    fmt.Sprintf("approved on creation by %s", actor.Username),
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create request: %w", err)
	}
	s.logger.Info("purchase request created",
		zap.String("identifier", request.Identifier),
		zap.String("status", string(request.Status)))
	return request, nil
}

// Approve moves a pending request to engineer-approved.
func (s *RequestService) Approve(ctx context.Context, actor *models.JWTClaims, requestID string, input dto.ApproveRequestInput) (*models.PurchaseRequest, error) {
	if !actor.Role.CanApprove() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only engineers approve purchase requests")
	}

	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin approve request: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	request, err := s.requests.GetForUpdate(ctx, tx, requestID)
	if err != nil {
		return nil, translateNotFound(err, "purchase request not found")
	}
	if request.Status != models.RequestStatusPendingApproval {
		return nil, appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("cannot approve request in status %s", request.Status))
	}

	now := time.Now().UTC()
	if err := s.requests.UpdateApproval(ctx, tx, requestID, models.RequestStatusEngineerApproved, actor.UserID, input.Note, now); err != nil {
		return nil, err
	}
	if err := s.audits.Append(ctx, tx, &models.AuditEntry{
		RequestID: requestID,
		ActorID:   &actor.UserID,
		Action:    models.AuditActionApproved,
		Detail:    fmt.Sprintf("approved by %s", actor.Username),
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit approve request: %w", err)
	}

	request.Status = models.RequestStatusEngineerApproved
	request.ApproverID = &actor.UserID
	request.ApprovedAt = &now
	request.ApprovalNote = input.Note
	return request, nil
}

// Reject refuses a pending request. A reason is mandatory and persisted.
func (s *RequestService) Reject(ctx context.Context, actor *models.JWTClaims, requestID string, input dto.RejectRequestInput) error {
	if !actor.Role.CanApprove() {
		return appErrors.Clone(appErrors.ErrForbidden, "only engineers reject purchase requests")
	}
	return s.reject(ctx, actor, requestID, input.Reason,
		[]models.RequestStatus{models.RequestStatusPendingApproval}, models.AuditActionRejected)
}

// OfficeReject overrides an approved request before quotation begins.
func (s *RequestService) OfficeReject(ctx context.Context, actor *models.JWTClaims, requestID string, input dto.RejectRequestInput) error {
	if actor.Role != models.RoleOfficeClerk && actor.Role != models.RoleDirector {
		return appErrors.Clone(appErrors.ErrForbidden, "only office staff reject approved requests")
	}
	return s.reject(ctx, actor, requestID, input.Reason,
		[]models.RequestStatus{models.RequestStatusEngineerApproved, models.RequestStatusApproved},
		models.AuditActionOfficeRejected)
}

func (s *RequestService) reject(ctx context.Context, actor *models.JWTClaims, requestID, reason string, from []models.RequestStatus, action string) error {
	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reject request: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	request, err := s.requests.GetForUpdate(ctx, tx, requestID)
	if err != nil {
		return translateNotFound(err, "purchase request not found")
	}
	allowed := false
	for _, status := range from {
		if request.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("cannot reject request in status %s", request.Status))
	}

	if err := s.requests.UpdateApproval(ctx, tx, requestID, models.RequestStatusRejected, actor.UserID, reason, time.Now().UTC()); err != nil {
		return err
	}
	if err := s.audits.Append(ctx, tx, &models.AuditEntry{
		RequestID: requestID,
		ActorID:   &actor.UserID,
		Action:    action,
		Detail:    reason,
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reject request: %w", err)
	}
	return nil
}

// Split approves a subset of a pending request's lines by moving them to a
// new child request created in approved state. The parent keeps the rest;
// if nothing remains it is rejected. The whole transfer is atomic.
func (s *RequestService) Split(ctx context.Context, actor *models.JWTClaims, requestID string, input dto.SplitRequestInput) (*models.PurchaseRequest, error) {
	if !actor.Role.CanApprove() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only engineers split purchase requests")
	}

	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin split request: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	parent, err := s.requests.GetForUpdate(ctx, tx, requestID)
	if err != nil {
		return nil, translateNotFound(err, "purchase request not found")
	}
	if parent.Status != models.RequestStatusPendingApproval {
		return nil, appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("cannot split request in status %s", parent.Status))
	}

	parentLines, err := s.requests.GetLines(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	moved := pickLines(parentLines, input.ApprovedLineIDs)
	if len(moved) != len(input.ApprovedLineIDs) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "approved lines must belong to the request")
	}

	childIdentifier, err := s.sequences.NextChildIdentifier(ctx, tx, parent.Identifier)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	child := &models.PurchaseRequest{
		Identifier:    childIdentifier,
		RequesterID:   parent.RequesterID,
		SiteID:        parent.SiteID,
		NeedBy:        parent.NeedBy,
		Justification: parent.Justification,
		Urgent:        parent.Urgent,
		CategoryTag:   parent.CategoryTag,
		Status:        models.RequestStatusApproved,
		ApproverID:    &actor.UserID,
		ApprovedAt:    &now,
		ApprovalNote:  input.Note,
		ParentID:      &parent.ID,
		CreatedAt:     now,
		Lines:         copyLines(moved),
	}
	if err := s.requests.Create(ctx, tx, child); err != nil {
		return nil, err
	}
	if _, err := s.requests.DeleteLines(ctx, tx, parent.ID, input.ApprovedLineIDs); err != nil {
		return nil, err
	}

	remaining, err := s.requests.CountLines(ctx, tx, parent.ID)
	if err != nil {
		return nil, err
	}
	if remaining == 0 {
		if err := s.requests.UpdateStatus(ctx, tx, parent.ID, models.RequestStatusRejected); err != nil {
			return nil, err
		}
	}

	if err := s.audits.Append(ctx, tx, &models.AuditEntry{
		RequestID: parent.ID,
		ActorID:   &actor.UserID,
		Action:    models.AuditActionSplit,
		Detail:    fmt.Sprintf("%d lines approved into %s", len(moved), childIdentifier),
	}); err != nil {
		return nil, err
	}
	if err := s.audits.Append(ctx, tx, &models.AuditEntry{
		RequestID: child.ID,
		ActorID:   &actor.UserID,
		Action:    models.AuditActionSplitChild,
		Detail:    fmt.Sprintf("created from partial approval of %s", parent.Identifier),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit split request: %w", err)
	}
	s.logger.Info("purchase request split",
		zap.String("parent", parent.Identifier),
		zap.String("child", childIdentifier),
		zap.Int("moved_lines", len(moved)))
	return child, nil
}

// StartQuotation moves an approved request into the quotation phase.
func (s *RequestService) StartQuotation(ctx context.Context, actor *models.JWTClaims, requestID string) error {
	if actor.Role != models.RoleOfficeClerk && actor.Role != models.RoleDirector {
		return appErrors.Clone(appErrors.ErrForbidden, "only office staff start quotations")
	}

	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin start quotation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	request, err := s.requests.GetForUpdate(ctx, tx, requestID)
	if err != nil {
		return translateNotFound(err, "purchase request not found")
	}
	if !request.Status.QuotationReady() {
		return appErrors.Clone(appErrors.ErrStateConflict,
			fmt.Sprintf("cannot start quotation in status %s", request.Status))
	}

	if err := s.requests.UpdateStatus(ctx, tx, requestID, models.RequestStatusInQuotation); err != nil {
		return err
	}
	if err := s.audits.Append(ctx, tx, &models.AuditEntry{
		RequestID: requestID,
		ActorID:   &actor.UserID,
		Action:    models.AuditActionQuotationStarted,
		Detail:    fmt.Sprintf("quotation phase opened for %s", request.Identifier),
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit start quotation: %w", err)
	}
	return nil
}

// Duplicate copies a request's lines into a brand new request owned by the
// actor, with a fresh identifier for today.
func (s *RequestService) Duplicate(ctx context.Context, actor *models.JWTClaims, requestID string) (*models.PurchaseRequest, error) {
	source, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, translateNotFound(err, "purchase request not found")
	}

	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin duplicate request: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sourceLines, err := s.requests.GetLines(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	identifier, err := s.sequences.NextRequestIdentifier(ctx, tx, now)
	if err != nil {
		return nil, err
	}

	clone := &models.PurchaseRequest{
		Identifier:    identifier,
		RequesterID:   actor.UserID,
		SiteID:        source.SiteID,
		NeedBy:        source.NeedBy,
		Justification: source.Justification,
		Urgent:        source.Urgent,
		CategoryTag:   source.CategoryTag,
		Status:        models.RequestStatusPendingApproval,
		CreatedAt:     now,
		Lines:         copyLines(sourceLines),
	}
	if actor.Role.ElevatedAuthority() {
		clone.Status = models.RequestStatusApproved
		clone.ApproverID = &actor.UserID
		clone.ApprovedAt = &now
	}

	if err := s.requests.Create(ctx, tx, clone); err != nil {
		return nil, err
	}
	if err := s.audits.Append(ctx, tx, &models.AuditEntry{
		RequestID: clone.ID,
		ActorID:   &actor.UserID,
		Action:    models.AuditActionDuplicated,
		Detail:    fmt.Sprintf("duplicated from %s", source.Identifier),
	}); err != nil {
		return nil, err
	}
	if actor.Role.ElevatedAuthority() {
		if err := s.audits.Append(ctx, tx, &models.AuditEntry{
			RequestID: clone.ID,
			ActorID:   &actor.UserID,
			Action:    models.AuditActionApprovedOnCreation,
			Detail:    fmt.Sprintf("approved on creation by %s", actor.Username),
		}); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit duplicate request: %w", err)
	}
	return clone, nil
}

// Get returns a request with its lines.
func (s *RequestService) Get(ctx context.Context, requestID string) (*models.PurchaseRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, translateNotFound(err, "purchase request not found")
	}
	tx, err := s.requests.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin get request: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	lines, err := s.requests.GetLines(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	request.Lines = lines
	return request, nil
}

// List returns requests matching the filter plus pagination metadata.
func (s *RequestService) List(ctx context.Context, query dto.ListRequestsQuery, actor *models.JWTClaims) ([]models.PurchaseRequest, *models.Pagination, error) {
	filter := models.RequestFilter{
		SiteID: query.SiteID,
		Urgent: query.Urgent,
		Search: query.Search,
	}
	for _, raw := range query.Status {
		filter.Status = append(filter.Status, models.RequestStatus(raw))
	}
	// Site storekeepers only see their own requests.
	if actor.Role == models.RoleRequester {
		filter.RequesterID = actor.UserID
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return requests, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// History returns the request's full audit trail, oldest first.
func (s *RequestService) History(ctx context.Context, requestID string) ([]models.AuditEntry, error) {
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		return nil, translateNotFound(err, "purchase request not found")
	}
	return s.audits.ListByRequest(ctx, requestID)
}

func buildLines(inputs []dto.RequestLineInput) ([]models.RequestLine, error) {
	lines := make([]models.RequestLine, 0, len(inputs))
	for i, input := range inputs {
		if !input.Quantity.IsPositive() {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("line %d: quantity must be positive", i+1))
		}
		lines = append(lines, models.RequestLine{
			CatalogItemID: input.CatalogItemID,
			Description:   input.Description,
			Unit:          input.Unit,
			Quantity:      input.Quantity,
			Note:          input.Note,
			Position:      i + 1,
		})
	}
	return lines, nil
}

func pickLines(lines []models.RequestLine, ids []string) []models.RequestLine {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	picked := make([]models.RequestLine, 0, len(ids))
	for _, line := range lines {
		if wanted[line.ID] {
			picked = append(picked, line)
		}
	}
	return picked
}

func copyLines(lines []models.RequestLine) []models.RequestLine {
	copies := make([]models.RequestLine, 0, len(lines))
	for i, line := range lines {
		copies = append(copies, models.RequestLine{
			CatalogItemID: line.CatalogItemID,
			Description:   line.Description,
			Unit:          line.Unit,
			Quantity:      line.Quantity,
			Note:          line.Note,
			Position:      i + 1,
		})
	}
	return copies
}

func translateNotFound(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return err
}
