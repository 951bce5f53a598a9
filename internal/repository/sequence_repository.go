package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	appErrors "github.com/obratech/procurement-api/pkg/errors"
)

// Postgres error codes that mark a transient allocation failure.
const (
	pgLockNotAvailable  = "55P03"
	pgDeadlockDetected  = "40P01"
	pgSerializationFail = "40001"
)

// SequenceRepository allocates scoped, strictly increasing identifiers.
// Allocation always runs inside the caller's transaction: the scope row in
// sequence_scopes is locked FOR UPDATE so that read-max-then-write is
// serialized per scope. Identifiers may have gaps (an aborted transaction
// releases its number) but never repeat within a scope.
type SequenceRepository struct {
	lockTimeout time.Duration
}

// NewSequenceRepository constructs the repository.
func NewSequenceRepository(lockTimeout time.Duration) *SequenceRepository {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &SequenceRepository{lockTimeout: lockTimeout}
}

// NextRequestIdentifier allocates a top-level request identifier for the
// given day, formatted YYYY-MM-DD-NNN.
func (r *SequenceRepository) NextRequestIdentifier(ctx context.Context, tx *sqlx.Tx, day time.Time) (string, error) {
	prefix := day.Format("2006-01-02") + "-"
	return r.next(ctx, tx, "request:"+prefix, "purchase_requests", prefix, 3)
}

// NextChildIdentifier allocates an identifier for a split child request,
// formatted {parent-identifier}-F{N}.
func (r *SequenceRepository) NextChildIdentifier(ctx context.Context, tx *sqlx.Tx, parentIdentifier string) (string, error) {
	prefix := parentIdentifier + "-F"
	return r.next(ctx, tx, "child:"+parentIdentifier, "purchase_requests", prefix, 0)
}

// NextRequisitionIdentifier allocates a requisition identifier for the
// given calendar year, formatted RM-YYYY-NNNN.
func (r *SequenceRepository) NextRequisitionIdentifier(ctx context.Context, tx *sqlx.Tx, year int) (string, error) {
	prefix := fmt.Sprintf("RM-%d-", year)
	return r.next(ctx, tx, "requisition:"+prefix, "material_requisitions", prefix, 4)
}

func (r *SequenceRepository) next(ctx context.Context, tx *sqlx.Tx, scopeKey, table, prefix string, pad int) (string, error) {
	// lock_timeout cannot be bound as a parameter; the value comes from
	// config, never from user input.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
		return "", fmt.Errorf("set lock timeout: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sequence_scopes (scope_key) VALUES ($1) ON CONFLICT (scope_key) DO NOTHING`, scopeKey); err != nil {
		return "", translateLockErr(err, "register sequence scope")
	}

	var locked string
	if err := tx.GetContext(ctx, &locked,
		`SELECT scope_key FROM sequence_scopes WHERE scope_key = $1 FOR UPDATE`, scopeKey); err != nil {
		return "", translateLockErr(err, "lock sequence scope")
	}

	var identifiers []string
	query := fmt.Sprintf(`SELECT identifier FROM %s WHERE identifier LIKE $1`, table)
	if err := tx.SelectContext(ctx, &identifiers, query, prefix+"%"); err != nil {
		return "", fmt.Errorf("scan scope identifiers: %w", err)
	}

	max := 0
	for _, id := range identifiers {
		suffix := strings.TrimPrefix(id, prefix)
		// Malformed or nested suffixes (e.g. a child id under a day scope)
		// are skipped rather than aborting allocation.
		n, err := strconv.Atoi(suffix)
		if err != nil || n <= 0 {
			continue
		}
		if n > max {
			max = n
		}
	}

	next := max + 1
	if pad > 0 {
		return fmt.Sprintf("%s%0*d", prefix, pad, next), nil
	}
	return fmt.Sprintf("%s%d", prefix, next), nil
}

func translateLockErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch string(pqErr.Code) {
		case pgLockNotAvailable, pgDeadlockDetected, pgSerializationFail:
			return appErrors.Wrap(err, appErrors.ErrConcurrency.Code, appErrors.ErrConcurrency.Status,
				"sequence scope is locked, retry the operation")
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
