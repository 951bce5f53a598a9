package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/obratech/procurement-api/internal/dto"
	"github.com/obratech/procurement-api/internal/models"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
)

type requisitionFixture struct {
	svc          *RequisitionService
	requests     *stubRequestStore
	requisitions *stubRequisitionStore
	audits       *stubAuditStore
	users        *stubUserStore
}

func newRequisitionFixture(t *testing.T) *requisitionFixture {
	requests := newStubRequestStore(t)
	requisitions := newStubRequisitionStore()
	users := &stubUserStore{users: make(map[string]*models.User)}
	audits := &stubAuditStore{}
	suppliers := &stubSupplierStore{suppliers: map[string]*models.Supplier{
		"supplier-1": {ID: "supplier-1", TradeName: "Casa do Construtor"},
	}}
	svc := NewRequisitionService(requests, requisitions, newStubQuotationStore(), suppliers,
		users, audits, nil, nil, testLogger())
	return &requisitionFixture{svc: svc, requests: requests, requisitions: requisitions, audits: audits, users: users}
}

func (f *requisitionFixture) signer(t *testing.T, role models.UserRole, password string) *models.JWTClaims {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	actor := testActor(role)
	f.users.users[actor.UserID] = &models.User{
		ID:           actor.UserID,
		FullName:     "Test Signer",
		Role:         role,
		PasswordHash: string(hash),
	}
	return actor
}

func (f *requisitionFixture) seedRequisition(t *testing.T) (*models.MaterialRequisition, *models.PurchaseRequest) {
	t.Helper()
	request := f.requests.add(&models.PurchaseRequest{
		Identifier: "2026-08-29-001",
		Status:     models.RequestStatusFinalized,
	})
	requisition := &models.MaterialRequisition{
		Identifier:  "RM-2026-0001",
		RequestID:   request.ID,
		QuotationID: "quotation-1",
		TotalValue:  decimal.NewFromInt(80),
	}
	require.NoError(t, f.requisitions.Create(context.Background(), nil, requisition))
	return requisition, request
}

func TestSignRejectsWrongPassword(t *testing.T) {
	f := newRequisitionFixture(t)
	requisition, _ := f.seedRequisition(t)
	clerk := f.signer(t, models.RoleOfficeClerk, "right-password")

	_, err := f.svc.Sign(context.Background(), clerk, requisition.ID, dto.SignRequisitionInput{Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.SignatureStatusUnsigned, f.requisitions.requisitions[requisition.ID].SignatureStatus)
}

func TestSignForbiddenForSiteRoles(t *testing.T) {
	f := newRequisitionFixture(t)
	requisition, _ := f.seedRequisition(t)
	actor := f.signer(t, models.RoleRequester, "secret")

	_, err := f.svc.Sign(context.Background(), actor, requisition.ID, dto.SignRequisitionInput{Password: "secret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDirectorCannotSignBeforeClerk(t *testing.T) {
	f := newRequisitionFixture(t)
	requisition, _ := f.seedRequisition(t)
	director := f.signer(t, models.RoleDirector, "secret")

	_, err := f.svc.Sign(context.Background(), director, requisition.ID, dto.SignRequisitionInput{Password: "secret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStateConflict.Code, appErrors.FromError(err).Code)
}

func TestSignatureProtocolClerkThenDirector(t *testing.T) {
	f := newRequisitionFixture(t)
	requisition, request := f.seedRequisition(t)
	clerk := f.signer(t, models.RoleOfficeClerk, "clerk-pass")
	director := f.signer(t, models.RoleDirector, "director-pass")

	signed, err := f.svc.Sign(context.Background(), clerk, requisition.ID, dto.SignRequisitionInput{Password: "clerk-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.SignatureStatusAwaitingDirector, signed.SignatureStatus)

	signed, err = f.svc.Sign(context.Background(), director, requisition.ID, dto.SignRequisitionInput{Password: "director-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.SignatureStatusSigned, signed.SignatureStatus)

	assert.Equal(t,
		[]string{models.AuditActionClerkSigned, models.AuditActionDirectorSigned},
		f.audits.actions(request.ID))
}

func TestClerkCannotSignTwice(t *testing.T) {
	f := newRequisitionFixture(t)
	requisition, _ := f.seedRequisition(t)
	clerk := f.signer(t, models.RoleOfficeClerk, "clerk-pass")

	_, err := f.svc.Sign(context.Background(), clerk, requisition.ID, dto.SignRequisitionInput{Password: "clerk-pass"})
	require.NoError(t, err)
	_, err = f.svc.Sign(context.Background(), clerk, requisition.ID, dto.SignRequisitionInput{Password: "clerk-pass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStateConflict.Code, appErrors.FromError(err).Code)
}

func TestDispatchRequiresFullSignature(t *testing.T) {
	f := newRequisitionFixture(t)
	requisition, request := f.seedRequisition(t)
	clerk := f.signer(t, models.RoleOfficeClerk, "clerk-pass")

	_, err := f.svc.DispatchToSupplier(context.Background(), clerk, requisition.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStateConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.RequestStatusFinalized, f.requests.requests[request.ID].Status)
}

func TestDispatchSignedRequisitionMovesRequestInTransit(t *testing.T) {
	f := newRequisitionFixture(t)
	requisition, request := f.seedRequisition(t)
	clerk := f.signer(t, models.RoleOfficeClerk, "clerk-pass")
	director := f.signer(t, models.RoleDirector, "director-pass")

	_, err := f.svc.Sign(context.Background(), clerk, requisition.ID, dto.SignRequisitionInput{Password: "clerk-pass"})
	require.NoError(t, err)
	_, err = f.svc.Sign(context.Background(), director, requisition.ID, dto.SignRequisitionInput{Password: "director-pass"})
	require.NoError(t, err)

	dispatched, err := f.svc.DispatchToSupplier(context.Background(), director, requisition.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SignatureStatusDispatched, dispatched.SignatureStatus)
	assert.NotNil(t, dispatched.DispatchedAt)
	assert.Equal(t, models.RequestStatusInTransit, f.requests.requests[request.ID].Status)
	assert.Contains(t, f.audits.actions(request.ID), models.AuditActionInTransit)
}
