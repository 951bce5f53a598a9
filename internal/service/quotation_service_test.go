package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obratech/procurement-api/internal/dto"
	"github.com/obratech/procurement-api/internal/models"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
)

type quotationFixture struct {
	svc          *QuotationService
	requests     *stubRequestStore
	quotations   *stubQuotationStore
	requisitions *stubRequisitionStore
	audits       *stubAuditStore
}

func newQuotationFixture(t *testing.T) *quotationFixture {
	requests := newStubRequestStore(t)
	quotations := newStubQuotationStore()
	requisitions := newStubRequisitionStore()
	suppliers := &stubSupplierStore{suppliers: map[string]*models.Supplier{
		"supplier-1": {ID: "supplier-1", TradeName: "Casa do Construtor", Email: "vendas@casadoconstrutor.com"},
	}}
	audits := &stubAuditStore{}
	svc := NewQuotationService(requests, quotations, requisitions, suppliers,
		&stubSequences{}, audits, models.HeaderProfileA, testLogger())
	return &quotationFixture{svc: svc, requests: requests, quotations: quotations, requisitions: requisitions, audits: audits}
}

func (f *quotationFixture) seedRequest(status models.RequestStatus) *models.PurchaseRequest {
	return f.requests.add(&models.PurchaseRequest{
		Identifier: "2026-08-29-001",
		Status:     status,
		Lines: []models.RequestLine{
			{Description: "cement CP-II 50kg", Unit: "bag", Quantity: decimal.NewFromInt(10)},
			{Description: "rebar 10mm", Unit: "un", Quantity: decimal.NewFromInt(4)},
		},
	})
}

func (f *quotationFixture) seedDispatch(requestID, supplierID string) {
	_ = f.quotations.CreateDispatch(context.Background(), nil, &models.QuotationDispatch{
		RequestID:  requestID,
		SupplierID: supplierID,
	})
}

func quotationInput(supplierID string, request *models.PurchaseRequest, prices ...string) dto.RecordQuotationInput {
	input := dto.RecordQuotationInput{SupplierID: supplierID}
	for i, price := range prices {
		input.Lines = append(input.Lines, dto.QuotedLineInput{
			RequestLineID: request.Lines[i].ID,
			Price:         decimal.RequireFromString(price),
		})
	}
	return input
}

func TestDispatchCreatesOnePerSupplier(t *testing.T) {
	f := newQuotationFixture(t)
	request := f.seedRequest(models.RequestStatusInQuotation)

	created, err := f.svc.Dispatch(context.Background(), testActor(models.RoleOfficeClerk), request.ID, dto.DispatchInput{
		SupplierIDs: []string{"supplier-1", "supplier-2"},
		LineIDs:     []string{request.Lines[0].ID, request.Lines[1].ID},
	})
	require.NoError(t, err)
	assert.Len(t, created, 2)
	assert.Equal(t, models.RequestStatusAwaitingResponse, f.requests.requests[request.ID].Status)
	assert.Equal(t, []string{models.AuditActionQuotationDispatched}, f.audits.actions(request.ID))
}

func TestDispatchRejectsSecondDispatchToSameSupplier(t *testing.T) {
	f := newQuotationFixture(t)
	request := f.seedRequest(models.RequestStatusAwaitingResponse)
	f.seedDispatch(request.ID, "supplier-1")

	_, err := f.svc.Dispatch(context.Background(), testActor(models.RoleOfficeClerk), request.ID, dto.DispatchInput{
		SupplierIDs: []string{"supplier-1"},
		LineIDs:     []string{request.Lines[0].ID},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStateConflict.Code, appErrors.FromError(err).Code)
}

func TestDispatchWhileSelectionPendingReopensRequest(t *testing.T) {
	f := newQuotationFixture(t)
	request := f.seedRequest(models.RequestStatusQuotationSelected)

	_, err := f.svc.Dispatch(context.Background(), testActor(models.RoleOfficeClerk), request.ID, dto.DispatchInput{
		SupplierIDs: []string{"supplier-3"},
		LineIDs:     []string{request.Lines[0].ID},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAwaitingResponse, f.requests.requests[request.ID].Status)
}

func TestRecordQuotationDiscardsAllZeroSubmission(t *testing.T) {
	f := newQuotationFixture(t)
	request := f.seedRequest(models.RequestStatusAwaitingResponse)
	f.seedDispatch(request.ID, "supplier-1")

	_, err := f.svc.RecordQuotation(context.Background(), testActor(models.RoleOfficeClerk), request.ID,
		quotationInput("supplier-1", request, "0", "0"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.quotations.quotations)
}

func TestRecordQuotationRejectsNegativeFreight(t *testing.T) {
	f := newQuotationFixture(t)
	request := f.seedRequest(models.RequestStatusAwaitingResponse)
	f.seedDispatch(request.ID, "supplier-1")

	input := quotationInput("supplier-1", request, "2.50", "10.00")
	input.Freight = decimal.RequireFromString("-1")
	_, err := f.svc.RecordQuotation(context.Background(), testActor(models.RoleOfficeClerk), request.ID, input)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecordQuotationRequiresMatchingDispatch(t *testing.T) {
	f := newQuotationFixture(t)
	request := f.seedRequest(models.RequestStatusAwaitingResponse)

	_, err := f.svc.RecordQuotation(context.Background(), testActor(models.RoleOfficeClerk), request.ID,
		quotationInput("supplier-9", request, "2.50", "10.00"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestParityAdvancesOnlyWhenAllSuppliersRespond(t *testing.T) {
	f := newQuotationFixture(t)
	request := f.seedRequest(models.RequestStatusAwaitingResponse)
	for _, supplierID := range []string{"supplier-1", "supplier-2", "supplier-3"} {
		f.seedDispatch(request.ID, supplierID)
	}
	actor := testActor(models.RoleOfficeClerk)

	_, err := f.svc.RecordQuotation(context.Background(), actor, request.ID, quotationInput("supplier-1", request, "2.50", "10.00"))
	require.NoError(t, err)
	_, err = f.svc.RecordQuotation(context.Background(), actor, request.ID, quotationInput("supplier-2", request, "2.60", "9.80"))
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAwaitingResponse, f.requests.requests[request.ID].Status)

	_, err = f.svc.RecordQuotation(context.Background(), actor, request.ID, quotationInput("supplier-3", request, "2.40", "10.20"))
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusQuotationSelected, f.requests.requests[request.ID].Status)
}

func TestResubmissionReplacesLinesWithoutDoubleCounting(t *testing.T) {
	f := newQuotationFixture(t)
	request := f.seedRequest(models.RequestStatusAwaitingResponse)
	f.seedDispatch(request.ID, "supplier-1")
	f.seedDispatch(request.ID, "supplier-2")
	actor := testActor(models.RoleOfficeClerk)

	first, err := f.svc.RecordQuotation(context.Background(), actor, request.ID, quotationInput("supplier-1", request, "2.50", "10.00"))
	require.NoError(t, err)
	second, err := f.svc.RecordQuotation(context.Background(), actor, request.ID, quotationInput("supplier-1", request, "2.30", "9.50"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, f.quotations.quotations, 1)
	// One of two dispatches answered: parity not reached.
	assert.Equal(t, models.RequestStatusAwaitingResponse, f.requests.requests[request.ID].Status)
}

func TestSelectWinnerCreatesRequisitionAndClearsBoard(t *testing.T) {
	f := newQuotationFixture(t)
	request := f.seedRequest(models.RequestStatusQuotationSelected)
	f.seedDispatch(request.ID, "supplier-1")
	f.seedDispatch(request.ID, "supplier-2")
	actor := testActor(models.RoleOfficeClerk)

	winner := &models.Quotation{
		RequestID:  request.ID,
		SupplierID: "supplier-1",
		Freight:    decimal.NewFromInt(15),
	}
	require.NoError(t, f.quotations.UpsertQuotation(context.Background(), nil, winner))
	require.NoError(t, f.quotations.ReplaceQuotedLines(context.Background(), nil, winner.ID, []models.QuotedLine{
		{RequestLineID: request.Lines[0].ID, Price: decimal.RequireFromString("2.50")},
		{RequestLineID: request.Lines[1].ID, Price: decimal.RequireFromString("10.00")},
	}))
	loser := &models.Quotation{RequestID: request.ID, SupplierID: "supplier-2"}
	require.NoError(t, f.quotations.UpsertQuotation(context.Background(), nil, loser))

	requisition, err := f.svc.SelectWinner(context.Background(), actor, winner.ID)
	require.NoError(t, err)

	// 10 x 2.50 + 4 x 10.00 + 15 freight.
	assert.True(t, requisition.TotalValue.Equal(decimal.NewFromInt(80)), requisition.TotalValue.String())
	assert.Equal(t, "RM-2026-0001", requisition.Identifier)
	assert.Equal(t, models.SignatureStatusUnsigned, requisition.SignatureStatus)

	assert.Equal(t, models.RequestStatusFinalized, f.requests.requests[request.ID].Status)
	require.Len(t, f.quotations.quotations, 1)
	assert.True(t, f.quotations.quotations[winner.ID].Winning)
	assert.Empty(t, f.quotations.dispatches)
	assert.Equal(t, []string{models.AuditActionRequisitionCreated}, f.audits.actions(request.ID))
}

func TestSelectWinnerIsIdempotent(t *testing.T) {
	f := newQuotationFixture(t)
	request := f.seedRequest(models.RequestStatusQuotationSelected)
	actor := testActor(models.RoleOfficeClerk)

	winner := &models.Quotation{RequestID: request.ID, SupplierID: "supplier-1"}
	require.NoError(t, f.quotations.UpsertQuotation(context.Background(), nil, winner))
	require.NoError(t, f.quotations.ReplaceQuotedLines(context.Background(), nil, winner.ID, []models.QuotedLine{
		{RequestLineID: request.Lines[0].ID, Price: decimal.RequireFromString("2.50")},
	}))

	first, err := f.svc.SelectWinner(context.Background(), actor, winner.ID)
	require.NoError(t, err)
	second, err := f.svc.SelectWinner(context.Background(), actor, winner.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.requisitions.requisitions, 1)
}

func TestRejectLastQuotationReopensRequest(t *testing.T) {
	f := newQuotationFixture(t)
	request := f.seedRequest(models.RequestStatusQuotationSelected)
	actor := testActor(models.RoleOfficeClerk)

	quotation := &models.Quotation{RequestID: request.ID, SupplierID: "supplier-1"}
	require.NoError(t, f.quotations.UpsertQuotation(context.Background(), nil, quotation))

	err := f.svc.RejectQuotation(context.Background(), actor, quotation.ID, "freight too high")
	require.NoError(t, err)
	assert.Empty(t, f.quotations.quotations)
	assert.Equal(t, models.RequestStatusAwaitingResponse, f.requests.requests[request.ID].Status)
	assert.Equal(t, []string{models.AuditActionQuotationRejected}, f.audits.actions(request.ID))
}

func TestEmailDraftListsOnlyDispatchedLines(t *testing.T) {
	f := newQuotationFixture(t)
	request := f.seedRequest(models.RequestStatusAwaitingResponse)
	dispatch := &models.QuotationDispatch{
		RequestID:  request.ID,
		SupplierID: "supplier-1",
		LineIDs:    []string{request.Lines[0].ID},
	}
	require.NoError(t, f.quotations.CreateDispatch(context.Background(), nil, dispatch))

	draft, err := f.svc.EmailDraft(context.Background(), dispatch.ID)
	require.NoError(t, err)
	assert.Equal(t, "vendas@casadoconstrutor.com", draft.To)
	assert.Contains(t, draft.Subject, request.Identifier)
	assert.Contains(t, draft.Body, "cement CP-II 50kg")
	assert.NotContains(t, draft.Body, "rebar 10mm")
}
