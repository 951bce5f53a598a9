package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/obratech/procurement-api/internal/dto"
	"github.com/obratech/procurement-api/internal/models"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
)

type supplierAdmin interface {
	supplierStore
	Create(ctx context.Context, supplier *models.Supplier) error
	Update(ctx context.Context, supplier *models.Supplier) error
	SetActive(ctx context.Context, id string, active bool) error
}

type catalogStore interface {
	catalogReader
	CreateCategory(ctx context.Context, category *models.ItemCategory) error
	GetCategory(ctx context.Context, id string) (*models.ItemCategory, error)
	CreateUnit(ctx context.Context, unit *models.MeasureUnit) error
	CreateItem(ctx context.Context, item *models.CatalogItem) error
	GetItem(ctx context.Context, id string) (*models.CatalogItem, error)
	ListItems(ctx context.Context, categoryID, search string, activeOnly bool) ([]models.CatalogItem, error)
	ItemReferenced(ctx context.Context, id string) (bool, error)
	DeleteItem(ctx context.Context, id string) error
	SetItemActive(ctx context.Context, id string, active bool) error
}

type siteStore interface {
	Create(ctx context.Context, site *models.Site) error
	GetByID(ctx context.Context, id string) (*models.Site, error)
	List(ctx context.Context, activeOnly bool) ([]models.Site, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// MasterService manages the reference data the workflow draws on:
// suppliers, the item catalog and construction sites.
type MasterService struct {
	suppliers supplierAdmin
	catalog   catalogStore
	sites     siteStore
	logger    *zap.Logger
}

// NewMasterService constructs the service.
func NewMasterService(suppliers supplierAdmin, catalog catalogStore, sites siteStore, logger *zap.Logger) *MasterService {
	return &MasterService{suppliers: suppliers, catalog: catalog, sites: sites, logger: logger}
}

// CreateSupplier registers a vendor.
func (s *MasterService) CreateSupplier(ctx context.Context, input dto.CreateSupplierInput) (*models.Supplier, error) {
	supplier := &models.Supplier{
		TradeName:    input.TradeName,
		LegalName:    input.LegalName,
		TaxID:        input.TaxID,
		Kind:         models.SupplierKind(input.Kind),
		Email:        input.Email,
		ContactName:  input.ContactName,
		ContactPhone: input.ContactPhone,
		City:         input.City,
		State:        input.State,
	}
	if err := s.suppliers.Create(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// ListSuppliers returns registered vendors.
func (s *MasterService) ListSuppliers(ctx context.Context, kind, search string, activeOnly bool) ([]models.Supplier, error) {
	return s.suppliers.List(ctx, models.SupplierKind(kind), search, activeOnly)
}

// GetSupplier fetches one vendor.
func (s *MasterService) GetSupplier(ctx context.Context, id string) (*models.Supplier, error) {
	supplier, err := s.suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, "supplier not found")
	}
	return supplier, nil
}

// DeactivateSupplier hides the vendor from new dispatches while keeping
// historical quotations intact.
func (s *MasterService) DeactivateSupplier(ctx context.Context, id string) error {
	if _, err := s.suppliers.GetByID(ctx, id); err != nil {
		return translateNotFound(err, "supplier not found")
	}
	return s.suppliers.SetActive(ctx, id, false)
}

// CreateCategory adds a category or subcategory. Subcategories must point
// at an existing top-level parent.
func (s *MasterService) CreateCategory(ctx context.Context, input dto.CreateCategoryInput) (*models.ItemCategory, error) {
	if input.ParentID != nil {
		parent, err := s.catalog.GetCategory(ctx, *input.ParentID)
		if err != nil {
			return nil, translateNotFound(err, "parent category not found")
		}
		if parent.ParentID != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "categories nest at most two levels")
		}
	}
	category := &models.ItemCategory{Name: input.Name, ParentID: input.ParentID}
	if err := s.catalog.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns the category tree.
func (s *MasterService) ListCategories(ctx context.Context) ([]models.ItemCategory, error) {
	return s.catalog.ListCategories(ctx)
}

// CreateUnit adds a measure unit.
func (s *MasterService) CreateUnit(ctx context.Context, input dto.CreateUnitInput) (*models.MeasureUnit, error) {
	unit := &models.MeasureUnit{Name: input.Name, Symbol: input.Symbol}
	if err := s.catalog.CreateUnit(ctx, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

// ListUnits returns all measure units.
func (s *MasterService) ListUnits(ctx context.Context) ([]models.MeasureUnit, error) {
	return s.catalog.ListUnits(ctx)
}

// CreateItem adds a catalog item.
func (s *MasterService) CreateItem(ctx context.Context, input dto.CreateItemInput) (*models.CatalogItem, error) {
	if _, err := s.catalog.GetCategory(ctx, input.CategoryID); err != nil {
		return nil, translateNotFound(err, "category not found")
	}
	item := &models.CatalogItem{
		Code:        input.Code,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		UnitID:      input.UnitID,
	}
	if err := s.catalog.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems returns catalog items.
func (s *MasterService) ListItems(ctx context.Context, categoryID, search string, activeOnly bool) ([]models.CatalogItem, error) {
	return s.catalog.ListItems(ctx, categoryID, search, activeOnly)
}

// DeleteItem removes an item, or refuses with an integrity error when any
// request line references it; referenced items can only be deactivated.
func (s *MasterService) DeleteItem(ctx context.Context, id string) error {
	if _, err := s.catalog.GetItem(ctx, id); err != nil {
		return translateNotFound(err, "catalog item not found")
	}
	referenced, err := s.catalog.ItemReferenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return appErrors.Clone(appErrors.ErrIntegrity, "item is referenced by request lines, deactivate it instead")
	}
	return s.catalog.DeleteItem(ctx, id)
}

// DeactivateItem hides the item from new requests.
func (s *MasterService) DeactivateItem(ctx context.Context, id string) error {
	if _, err := s.catalog.GetItem(ctx, id); err != nil {
		return translateNotFound(err, "catalog item not found")
	}
	return s.catalog.SetItemActive(ctx, id, false)
}

// CreateSite registers a construction site.
func (s *MasterService) CreateSite(ctx context.Context, input dto.CreateSiteInput) (*models.Site, error) {
	site := &models.Site{
		Name:      input.Name,
		Address:   input.Address,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}
	if err := s.sites.Create(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

// ListSites returns construction sites.
func (s *MasterService) ListSites(ctx context.Context, activeOnly bool) ([]models.Site, error) {
	return s.sites.List(ctx, activeOnly)
}

// DeactivateSite closes a site for new requests.
func (s *MasterService) DeactivateSite(ctx context.Context, id string) error {
	if _, err := s.sites.GetByID(ctx, id); err != nil {
		return translateNotFound(err, "site not found")
	}
	return s.sites.SetActive(ctx, id, false)
}
