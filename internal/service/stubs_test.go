package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/obratech/procurement-api/internal/models"
)

// newStubDB returns a sqlx handle whose transactions always succeed, so
// services can run their begin/commit choreography against in-memory stubs.
func newStubDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 16; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}
	return sqlx.NewDb(db, "sqlmock")
}

type stubRequestStore struct {
	db       *sqlx.DB
	requests map[string]*models.PurchaseRequest
	lines    map[string][]models.RequestLine
}

func newStubRequestStore(t *testing.T) *stubRequestStore {
	return &stubRequestStore{
		db:       newStubDB(t),
		requests: make(map[string]*models.PurchaseRequest),
		lines:    make(map[string][]models.RequestLine),
	}
}

func (s *stubRequestStore) add(request *models.PurchaseRequest) *models.PurchaseRequest {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	for i := range request.Lines {
		if request.Lines[i].ID == "" {
			request.Lines[i].ID = uuid.NewString()
		}
		request.Lines[i].RequestID = request.ID
	}
	s.requests[request.ID] = request
	s.lines[request.ID] = request.Lines
	return request
}

func (s *stubRequestStore) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, opts)
}

func (s *stubRequestStore) Create(ctx context.Context, exec sqlx.ExtContext, request *models.PurchaseRequest) error {
	s.add(request)
	return nil
}

func (s *stubRequestStore) GetByID(ctx context.Context, id string) (*models.PurchaseRequest, error) {
	request, ok := s.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return request, nil
}

func (s *stubRequestStore) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.PurchaseRequest, error) {
	return s.GetByID(ctx, id)
}

func (s *stubRequestStore) GetLines(ctx context.Context, exec sqlx.ExtContext, requestID string) ([]models.RequestLine, error) {
	return s.lines[requestID], nil
}

func (s *stubRequestStore) LineQuantities(ctx context.Context, exec sqlx.ExtContext, requestID string) (map[string]decimal.Decimal, error) {
	quantities := make(map[string]decimal.Decimal)
	for _, line := range s.lines[requestID] {
		quantities[line.ID] = line.Quantity
	}
	return quantities, nil
}

func (s *stubRequestStore) InsertLines(ctx context.Context, exec sqlx.ExtContext, lines []models.RequestLine) error {
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = uuid.NewString()
		}
		s.lines[lines[i].RequestID] = append(s.lines[lines[i].RequestID], lines[i])
	}
	return nil
}

func (s *stubRequestStore) DeleteLines(ctx context.Context, exec sqlx.ExtContext, requestID string, lineIDs []string) (int64, error) {
	drop := make(map[string]bool, len(lineIDs))
	for _, id := range lineIDs {
		drop[id] = true
	}
	kept := make([]models.RequestLine, 0, len(s.lines[requestID]))
	var deleted int64
	for _, line := range s.lines[requestID] {
		if drop[line.ID] {
			deleted++
			continue
		}
		kept = append(kept, line)
	}
	s.lines[requestID] = kept
	return deleted, nil
}

func (s *stubRequestStore) CountLines(ctx context.Context, exec sqlx.ExtContext, requestID string) (int, error) {
	return len(s.lines[requestID]), nil
}

func (s *stubRequestStore) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.RequestStatus) error {
	s.requests[id].Status = status
	return nil
}

func (s *stubRequestStore) UpdateApproval(ctx context.Context, exec sqlx.ExtContext, id string, status models.RequestStatus, approverID string, note string, at time.Time) error {
	request := s.requests[id]
	request.Status = status
	request.ApproverID = &approverID
	request.ApprovalNote = note
	request.ApprovedAt = &at
	return nil
}

func (s *stubRequestStore) List(ctx context.Context, filter models.RequestFilter) ([]models.PurchaseRequest, int, error) {
	result := make([]models.PurchaseRequest, 0, len(s.requests))
	for _, request := range s.requests {
		result = append(result, *request)
	}
	return result, len(result), nil
}

type stubAuditStore struct {
	entries []models.AuditEntry
}

func (s *stubAuditStore) Append(ctx context.Context, exec sqlx.ExtContext, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubAuditStore) ListByRequest(ctx context.Context, requestID string) ([]models.AuditEntry, error) {
	matched := make([]models.AuditEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.RequestID == requestID {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func (s *stubAuditStore) actions(requestID string) []string {
	actions := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.RequestID == requestID {
			actions = append(actions, entry.Action)
		}
	}
	return actions
}

type stubSequences struct {
	requestSeq     int
	childSeq       int
	requisitionSeq int
}

func (s *stubSequences) NextRequestIdentifier(ctx context.Context, tx *sqlx.Tx, day time.Time) (string, error) {
	s.requestSeq++
	return day.Format("2006-01-02") + "-" + pad(s.requestSeq, 3), nil
}

func (s *stubSequences) NextChildIdentifier(ctx context.Context, tx *sqlx.Tx, parentIdentifier string) (string, error) {
	s.childSeq++
	return parentIdentifier + "-F" + pad(s.childSeq, 0), nil
}

func (s *stubSequences) NextRequisitionIdentifier(ctx context.Context, tx *sqlx.Tx, year int) (string, error) {
	s.requisitionSeq++
	return "RM-2026-" + pad(s.requisitionSeq, 4), nil
}

func pad(n, width int) string {
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	for len(digits) < width {
		digits = append([]byte{'0'}, digits...)
	}
	return string(digits)
}

type stubQuotationStore struct {
	dispatches map[string]*models.QuotationDispatch
	quotations map[string]*models.Quotation
}

func newStubQuotationStore() *stubQuotationStore {
	return &stubQuotationStore{
		dispatches: make(map[string]*models.QuotationDispatch),
		quotations: make(map[string]*models.Quotation),
	}
}

func (s *stubQuotationStore) CreateDispatch(ctx context.Context, exec sqlx.ExtContext, dispatch *models.QuotationDispatch) error {
	if dispatch.ID == "" {
		dispatch.ID = uuid.NewString()
	}
	if dispatch.Status == "" {
		dispatch.Status = models.DispatchStatusAwaiting
	}
	s.dispatches[dispatch.ID] = dispatch
	return nil
}

func (s *stubQuotationStore) GetDispatch(ctx context.Context, id string) (*models.QuotationDispatch, error) {
	dispatch, ok := s.dispatches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return dispatch, nil
}

func (s *stubQuotationStore) ListDispatches(ctx context.Context, requestID string) ([]models.QuotationDispatch, error) {
	result := []models.QuotationDispatch{}
	for _, dispatch := range s.dispatches {
		if dispatch.RequestID == requestID {
			result = append(result, *dispatch)
		}
	}
	return result, nil
}

func (s *stubQuotationStore) HasDispatch(ctx context.Context, exec sqlx.ExtContext, requestID, supplierID string) (bool, error) {
	for _, dispatch := range s.dispatches {
		if dispatch.RequestID == requestID && dispatch.SupplierID == supplierID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubQuotationStore) MarkDispatchResponded(ctx context.Context, exec sqlx.ExtContext, requestID, supplierID string) error {
	for _, dispatch := range s.dispatches {
		if dispatch.RequestID == requestID && dispatch.SupplierID == supplierID {
			dispatch.Status = models.DispatchStatusResponded
		}
	}
	return nil
}

func (s *stubQuotationStore) UpsertQuotation(ctx context.Context, exec sqlx.ExtContext, quotation *models.Quotation) error {
	for _, existing := range s.quotations {
		if existing.RequestID == quotation.RequestID && existing.SupplierID == quotation.SupplierID {
			existing.Freight = quotation.Freight
			existing.DeliveryTerm = quotation.DeliveryTerm
			existing.PaymentCondition = quotation.PaymentCondition
			existing.Note = quotation.Note
			quotation.ID = existing.ID
			return nil
		}
	}
	if quotation.ID == "" {
		quotation.ID = uuid.NewString()
	}
	stored := *quotation
	s.quotations[quotation.ID] = &stored
	return nil
}

func (s *stubQuotationStore) ReplaceQuotedLines(ctx context.Context, exec sqlx.ExtContext, quotationID string, lines []models.QuotedLine) error {
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = uuid.NewString()
		}
		lines[i].QuotationID = quotationID
	}
	s.quotations[quotationID].Lines = lines
	return nil
}

func (s *stubQuotationStore) GetQuotation(ctx context.Context, id string) (*models.Quotation, error) {
	quotation, ok := s.quotations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return quotation, nil
}

func (s *stubQuotationStore) GetQuotationForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Quotation, error) {
	return s.GetQuotation(ctx, id)
}

func (s *stubQuotationStore) ListQuotations(ctx context.Context, requestID string) ([]models.Quotation, error) {
	result := []models.Quotation{}
	for _, quotation := range s.quotations {
		if quotation.RequestID == requestID {
			result = append(result, *quotation)
		}
	}
	return result, nil
}

func (s *stubQuotationStore) CountDispatches(ctx context.Context, exec sqlx.ExtContext, requestID string) (int, error) {
	count := 0
	for _, dispatch := range s.dispatches {
		if dispatch.RequestID == requestID {
			count++
		}
	}
	return count, nil
}

func (s *stubQuotationStore) CountQuotations(ctx context.Context, exec sqlx.ExtContext, requestID string) (int, error) {
	count := 0
	for _, quotation := range s.quotations {
		if quotation.RequestID == requestID {
			count++
		}
	}
	return count, nil
}

func (s *stubQuotationStore) SetWinning(ctx context.Context, exec sqlx.ExtContext, id string) error {
	s.quotations[id].Winning = true
	return nil
}

func (s *stubQuotationStore) DeleteQuotation(ctx context.Context, exec sqlx.ExtContext, id string) error {
	delete(s.quotations, id)
	return nil
}

func (s *stubQuotationStore) DeleteLosingQuotations(ctx context.Context, exec sqlx.ExtContext, requestID, keepID string) error {
	for id, quotation := range s.quotations {
		if quotation.RequestID == requestID && id != keepID {
			delete(s.quotations, id)
		}
	}
	return nil
}

func (s *stubQuotationStore) DeleteDispatches(ctx context.Context, exec sqlx.ExtContext, requestID string) error {
	for id, dispatch := range s.dispatches {
		if dispatch.RequestID == requestID {
			delete(s.dispatches, id)
		}
	}
	return nil
}

type stubRequisitionStore struct {
	requisitions map[string]*models.MaterialRequisition
}

func newStubRequisitionStore() *stubRequisitionStore {
	return &stubRequisitionStore{requisitions: make(map[string]*models.MaterialRequisition)}
}

func (s *stubRequisitionStore) Create(ctx context.Context, exec sqlx.ExtContext, requisition *models.MaterialRequisition) error {
	if requisition.ID == "" {
		requisition.ID = uuid.NewString()
	}
	if requisition.SignatureStatus == "" {
		requisition.SignatureStatus = models.SignatureStatusUnsigned
	}
	s.requisitions[requisition.ID] = requisition
	return nil
}

func (s *stubRequisitionStore) GetByID(ctx context.Context, id string) (*models.MaterialRequisition, error) {
	requisition, ok := s.requisitions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return requisition, nil
}

func (s *stubRequisitionStore) GetByRequestID(ctx context.Context, exec sqlx.ExtContext, requestID string) (*models.MaterialRequisition, error) {
	for _, requisition := range s.requisitions {
		if requisition.RequestID == requestID {
			return requisition, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubRequisitionStore) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.MaterialRequisition, error) {
	return s.GetByID(ctx, id)
}

func (s *stubRequisitionStore) SetClerkSignature(ctx context.Context, exec sqlx.ExtContext, id, signerID string, at time.Time) (bool, error) {
	requisition, ok := s.requisitions[id]
	if !ok || requisition.ClerkSignerID != nil {
		return false, nil
	}
	requisition.ClerkSignerID = &signerID
	requisition.ClerkSignedAt = &at
	requisition.SignatureStatus = models.SignatureStatusAwaitingDirector
	return true, nil
}

func (s *stubRequisitionStore) SetDirectorSignature(ctx context.Context, exec sqlx.ExtContext, id, signerID string, at time.Time) (bool, error) {
	requisition, ok := s.requisitions[id]
	if !ok || requisition.ClerkSignerID == nil || requisition.DirectorSignerID != nil {
		return false, nil
	}
	requisition.DirectorSignerID = &signerID
	requisition.DirectorSignedAt = &at
	requisition.SignatureStatus = models.SignatureStatusSigned
	return true, nil
}

func (s *stubRequisitionStore) MarkDispatched(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) (bool, error) {
	requisition, ok := s.requisitions[id]
	if !ok || requisition.SignatureStatus != models.SignatureStatusSigned {
		return false, nil
	}
	requisition.SignatureStatus = models.SignatureStatusDispatched
	requisition.DispatchedAt = &at
	return true, nil
}

func (s *stubRequisitionStore) List(ctx context.Context, status models.SignatureStatus, limit, offset int) ([]models.MaterialRequisition, int, error) {
	result := []models.MaterialRequisition{}
	for _, requisition := range s.requisitions {
		if status == "" || requisition.SignatureStatus == status {
			result = append(result, *requisition)
		}
	}
	return result, len(result), nil
}

type stubUserStore struct {
	users map[string]*models.User
}

func (s *stubUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type stubSupplierStore struct {
	suppliers map[string]*models.Supplier
}

func (s *stubSupplierStore) GetByID(ctx context.Context, id string) (*models.Supplier, error) {
	supplier, ok := s.suppliers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return supplier, nil
}

func (s *stubSupplierStore) List(ctx context.Context, kind models.SupplierKind, search string, activeOnly bool) ([]models.Supplier, error) {
	result := []models.Supplier{}
	for _, supplier := range s.suppliers {
		result = append(result, *supplier)
	}
	return result, nil
}

type stubReceiptStore struct {
	events []models.ReceiptEvent
}

func (s *stubReceiptStore) CreateEvent(ctx context.Context, exec sqlx.ExtContext, event *models.ReceiptEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *stubReceiptStore) AccumulatedByLine(ctx context.Context, exec sqlx.ExtContext, requestID string) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	for _, event := range s.events {
		if event.RequestID != requestID {
			continue
		}
		for _, line := range event.Lines {
			totals[line.RequestLineID] = totals[line.RequestLineID].Add(line.Quantity)
		}
	}
	return totals, nil
}

func (s *stubReceiptStore) ListEvents(ctx context.Context, requestID string) ([]models.ReceiptEvent, error) {
	result := []models.ReceiptEvent{}
	for _, event := range s.events {
		if event.RequestID == requestID {
			result = append(result, event)
		}
	}
	return result, nil
}

func testActor(role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: uuid.NewString(), Username: "tester", Role: role}
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
