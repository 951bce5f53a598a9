package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/obratech/procurement-api/internal/models"
)

// CatalogRepository persists the item catalog: categories, measure units
// and reusable items.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// CreateCategory inserts a category or subcategory.
func (r *CatalogRepository) CreateCategory(ctx context.Context, category *models.ItemCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	const query = `INSERT INTO item_categories (id, name, parent_id) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, category.ID, category.Name, category.ParentID); err != nil {
		return fmt.Errorf("create item category: %w", err)
	}
	return nil
}

// ListCategories returns the full category tree flattened, parents first.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.ItemCategory, error) {
	const query = `SELECT id, name, parent_id FROM item_categories ORDER BY parent_id NULLS FIRST, name ASC`
	var categories []models.ItemCategory
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list item categories: %w", err)
	}
	return categories, nil
}

// GetCategory fetches one category.
func (r *CatalogRepository) GetCategory(ctx context.Context, id string) (*models.ItemCategory, error) {
	var category models.ItemCategory
	if err := r.db.GetContext(ctx, &category, `SELECT id, name, parent_id FROM item_categories WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateUnit inserts a measure unit.
func (r *CatalogRepository) CreateUnit(ctx context.Context, unit *models.MeasureUnit) error {
	if unit.ID == "" {
		unit.ID = uuid.NewString()
	}
	const query = `INSERT INTO measure_units (id, name, symbol) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, unit.ID, unit.Name, unit.Symbol); err != nil {
		return fmt.Errorf("create measure unit: %w", err)
	}
	return nil
}

// ListUnits returns all measure units.
func (r *CatalogRepository) ListUnits(ctx context.Context) ([]models.MeasureUnit, error) {
	var units []models.MeasureUnit
	if err := r.db.SelectContext(ctx, &units, `SELECT id, name, symbol FROM measure_units ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list measure units: %w", err)
	}
	return units, nil
}

// CreateItem inserts a catalog item.
func (r *CatalogRepository) CreateItem(ctx context.Context, item *models.CatalogItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	item.Active = true
	const query = `INSERT INTO catalog_items (id, code, description, category_id, unit_id, active, created_at)
	VALUES (:id, :code, :description, :category_id, :unit_id, :active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create catalog item: %w", err)
	}
	return nil
}

// GetItem fetches one catalog item.
func (r *CatalogRepository) GetItem(ctx context.Context, id string) (*models.CatalogItem, error) {
	const query = `SELECT id, code, description, category_id, unit_id, active, created_at FROM catalog_items WHERE id = $1`
	var item models.CatalogItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems returns catalog items, optionally restricted to a category and
// a description search.
func (r *CatalogRepository) ListItems(ctx context.Context, categoryID, search string, activeOnly bool) ([]models.CatalogItem, error) {
	query := `SELECT id, code, description, category_id, unit_id, active, created_at FROM catalog_items WHERE 1=1`
	args := []interface{}{}
	if categoryID != "" {
		args = append(args, categoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND (description ILIKE $%d OR code ILIKE $%d)", len(args), len(args))
	}
	if activeOnly {
		query += " AND active = TRUE"
	}
	query += " ORDER BY description ASC"
	var items []models.CatalogItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list catalog items: %w", err)
	}
	return items, nil
}

// ItemReferenced reports whether any request line references the item.
func (r *CatalogRepository) ItemReferenced(ctx context.Context, id string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM request_lines WHERE catalog_item_id = $1`, id); err != nil {
		return false, fmt.Errorf("check item references: %w", err)
	}
	return count > 0, nil
}

// DeleteItem removes an unreferenced catalog item.
func (r *CatalogRepository) DeleteItem(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM catalog_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete catalog item: %w", err)
	}
	return nil
}

// SetItemActive toggles the item's active flag.
func (r *CatalogRepository) SetItemActive(ctx context.Context, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE catalog_items SET active = $1 WHERE id = $2`, active, id); err != nil {
		return fmt.Errorf("set catalog item active: %w", err)
	}
	return nil
}
