package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestSetClerkSignatureFillsEmptySlot(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequisitionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $4 AND clerk_signer_id IS NULL")).
		WithArgs("clerk-1", sqlmock.AnyArg(), "AWAITING_DIRECTOR", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	signed, err := repo.SetClerkSignature(context.Background(), db, "req-1", "clerk-1", time.Now())
	require.NoError(t, err)
	assert.True(t, signed)
}

func TestSetClerkSignatureNeverOverwrites(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequisitionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $4 AND clerk_signer_id IS NULL")).
		WithArgs("clerk-2", sqlmock.AnyArg(), "AWAITING_DIRECTOR", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	signed, err := repo.SetClerkSignature(context.Background(), db, "req-1", "clerk-2", time.Now())
	require.NoError(t, err)
	assert.False(t, signed)
}

func TestSetDirectorSignatureRequiresClerkFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequisitionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $4 AND clerk_signer_id IS NOT NULL AND director_signer_id IS NULL")).
		WithArgs("director-1", sqlmock.AnyArg(), "SIGNED", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	signed, err := repo.SetDirectorSignature(context.Background(), db, "req-1", "director-1", time.Now())
	require.NoError(t, err)
	assert.False(t, signed)
}

func TestMarkDispatchedOnlyWhenFullySigned(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequisitionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $3 AND signature_status = $4")).
		WithArgs("DISPATCHED", sqlmock.AnyArg(), "req-1", "SIGNED").
		WillReturnResult(sqlmock.NewResult(0, 0))

	dispatched, err := repo.MarkDispatched(context.Background(), db, "req-1", time.Now())
	require.NoError(t, err)
	assert.False(t, dispatched)
}
