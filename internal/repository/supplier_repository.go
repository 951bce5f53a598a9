package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/obratech/procurement-api/internal/models"
)

const supplierColumns = `id, trade_name, legal_name, tax_id, kind, email, contact_name, contact_phone, city, state, active, created_at`

// SupplierRepository persists suppliers. Rows are deactivated, never
// deleted, so historical quotations keep their vendor reference.
type SupplierRepository struct {
	db *sqlx.DB
}

// NewSupplierRepository constructs the repository.
func NewSupplierRepository(db *sqlx.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// Create inserts a supplier.
func (r *SupplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	if supplier.ID == "" {
		supplier.ID = uuid.NewString()
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}
	supplier.Active = true
	const query = `INSERT INTO suppliers
	(id, trade_name, legal_name, tax_id, kind, email, contact_name, contact_phone, city, state, active, created_at)
	VALUES (:id, :trade_name, :legal_name, :tax_id, :kind, :email, :contact_name, :contact_phone, :city, :state, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, supplier); err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}
	return nil
}

// Update rewrites the supplier's mutable fields.
func (r *SupplierRepository) Update(ctx context.Context, supplier *models.Supplier) error {
	const query = `UPDATE suppliers SET trade_name = :trade_name, legal_name = :legal_name, tax_id = :tax_id,
	kind = :kind, email = :email, contact_name = :contact_name, contact_phone = :contact_phone,
	city = :city, state = :state WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, supplier); err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	return nil
}

// GetByID fetches one supplier.
func (r *SupplierRepository) GetByID(ctx context.Context, id string) (*models.Supplier, error) {
	query := fmt.Sprintf(`SELECT %s FROM suppliers WHERE id = $1`, supplierColumns)
	var supplier models.Supplier
	if err := r.db.GetContext(ctx, &supplier, query, id); err != nil {
		return nil, err
	}
	return &supplier, nil
}

// List returns suppliers, optionally filtered by kind and name search.
func (r *SupplierRepository) List(ctx context.Context, kind models.SupplierKind, search string, activeOnly bool) ([]models.Supplier, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 2)
	if kind != "" {
		args = append(args, kind)
		conditions = append(conditions, fmt.Sprintf("(kind = $%d OR kind = 'BOTH')", len(args)))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(trade_name ILIKE $%d OR legal_name ILIKE $%d)", len(args), len(args)))
	}
	if activeOnly {
		conditions = append(conditions, "active = TRUE")
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	query := fmt.Sprintf("SELECT %s FROM suppliers%s ORDER BY trade_name ASC", supplierColumns, where)
	var suppliers []models.Supplier
	if err := r.db.SelectContext(ctx, &suppliers, query, args...); err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	return suppliers, nil
}

// SetActive toggles the supplier's active flag.
func (r *SupplierRepository) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE suppliers SET active = $1 WHERE id = $2`, active, id); err != nil {
		return fmt.Errorf("set supplier active: %w", err)
	}
	return nil
}
