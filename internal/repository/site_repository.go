package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/obratech/procurement-api/internal/models"
)

// SiteRepository persists construction sites.
type SiteRepository struct {
	db *sqlx.DB
}

// NewSiteRepository constructs the repository.
func NewSiteRepository(db *sqlx.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// Create inserts a site.
func (r *SiteRepository) Create(ctx context.Context, site *models.Site) error {
	if site.ID == "" {
		site.ID = uuid.NewString()
	}
	site.Active = true
	const query = `INSERT INTO sites (id, name, address, start_date, end_date, active)
	VALUES (:id, :name, :address, :start_date, :end_date, :active)`
	if _, err := r.db.NamedExecContext(ctx, query, site); err != nil {
		return fmt.Errorf("create site: %w", err)
	}
	return nil
}

// GetByID fetches one site.
func (r *SiteRepository) GetByID(ctx context.Context, id string) (*models.Site, error) {
	var site models.Site
	if err := r.db.GetContext(ctx, &site, `SELECT id, name, address, start_date, end_date, active FROM sites WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &site, nil
}

// List returns sites, active ones first.
func (r *SiteRepository) List(ctx context.Context, activeOnly bool) ([]models.Site, error) {
	query := `SELECT id, name, address, start_date, end_date, active FROM sites`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY active DESC, name ASC`
	var sites []models.Site
	if err := r.db.SelectContext(ctx, &sites, query); err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return sites, nil
}

// SetActive toggles the site's active flag.
func (r *SiteRepository) SetActive(ctx context.Context, id string, active bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE sites SET active = $1 WHERE id = $2`, active, id); err != nil {
		return fmt.Errorf("set site active: %w", err)
	}
	return nil
}
