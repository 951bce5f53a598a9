package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obratech/procurement-api/internal/dto"
	"github.com/obratech/procurement-api/internal/models"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
)

type stubCatalogStore struct {
	categories map[string]*models.ItemCategory
	units      map[string]*models.MeasureUnit
	items      map[string]*models.CatalogItem
	referenced map[string]bool
}

func newStubCatalogStore() *stubCatalogStore {
	return &stubCatalogStore{
		categories: make(map[string]*models.ItemCategory),
		units:      make(map[string]*models.MeasureUnit),
		items:      make(map[string]*models.CatalogItem),
		referenced: make(map[string]bool),
	}
}

func (s *stubCatalogStore) ListCategories(ctx context.Context) ([]models.ItemCategory, error) {
	result := []models.ItemCategory{}
	for _, category := range s.categories {
		result = append(result, *category)
	}
	return result, nil
}

func (s *stubCatalogStore) ListUnits(ctx context.Context) ([]models.MeasureUnit, error) {
	result := []models.MeasureUnit{}
	for _, unit := range s.units {
		result = append(result, *unit)
	}
	return result, nil
}

func (s *stubCatalogStore) CreateCategory(ctx context.Context, category *models.ItemCategory) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	s.categories[category.ID] = category
	return nil
}

func (s *stubCatalogStore) GetCategory(ctx context.Context, id string) (*models.ItemCategory, error) {
	category, ok := s.categories[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return category, nil
}

func (s *stubCatalogStore) CreateUnit(ctx context.Context, unit *models.MeasureUnit) error {
	if unit.ID == "" {
		unit.ID = uuid.NewString()
	}
	s.units[unit.ID] = unit
	return nil
}

func (s *stubCatalogStore) CreateItem(ctx context.Context, item *models.CatalogItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	s.items[item.ID] = item
	return nil
}

func (s *stubCatalogStore) GetItem(ctx context.Context, id string) (*models.CatalogItem, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return item, nil
}

func (s *stubCatalogStore) ListItems(ctx context.Context, categoryID, search string, activeOnly bool) ([]models.CatalogItem, error) {
	result := []models.CatalogItem{}
	for _, item := range s.items {
		result = append(result, *item)
	}
	return result, nil
}

func (s *stubCatalogStore) ItemReferenced(ctx context.Context, id string) (bool, error) {
	return s.referenced[id], nil
}

func (s *stubCatalogStore) DeleteItem(ctx context.Context, id string) error {
	delete(s.items, id)
	return nil
}

func (s *stubCatalogStore) SetItemActive(ctx context.Context, id string, active bool) error {
	s.items[id].Active = active
	return nil
}

type stubSupplierAdmin struct {
	stubSupplierStore
	deactivated []string
}

func (s *stubSupplierAdmin) Create(ctx context.Context, supplier *models.Supplier) error {
	if supplier.ID == "" {
		supplier.ID = uuid.NewString()
	}
	s.suppliers[supplier.ID] = supplier
	return nil
}

func (s *stubSupplierAdmin) Update(ctx context.Context, supplier *models.Supplier) error {
	s.suppliers[supplier.ID] = supplier
	return nil
}

func (s *stubSupplierAdmin) SetActive(ctx context.Context, id string, active bool) error {
	if !active {
		s.deactivated = append(s.deactivated, id)
	}
	return nil
}

type stubSiteStore struct {
	sites map[string]*models.Site
}

func (s *stubSiteStore) Create(ctx context.Context, site *models.Site) error {
	if site.ID == "" {
		site.ID = uuid.NewString()
	}
	s.sites[site.ID] = site
	return nil
}

func (s *stubSiteStore) GetByID(ctx context.Context, id string) (*models.Site, error) {
	site, ok := s.sites[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return site, nil
}

func (s *stubSiteStore) List(ctx context.Context, activeOnly bool) ([]models.Site, error) {
	result := []models.Site{}
	for _, site := range s.sites {
		result = append(result, *site)
	}
	return result, nil
}

func (s *stubSiteStore) SetActive(ctx context.Context, id string, active bool) error {
	s.sites[id].Active = active
	return nil
}

func newMasterService() (*MasterService, *stubCatalogStore, *stubSupplierAdmin) {
	catalog := newStubCatalogStore()
	suppliers := &stubSupplierAdmin{stubSupplierStore: stubSupplierStore{suppliers: make(map[string]*models.Supplier)}}
	sites := &stubSiteStore{sites: make(map[string]*models.Site)}
	return NewMasterService(suppliers, catalog, sites, testLogger()), catalog, suppliers
}

func TestCategoriesNestAtMostTwoLevels(t *testing.T) {
	svc, catalog, _ := newMasterService()
	parent := &models.ItemCategory{Name: "Estrutura"}
	require.NoError(t, catalog.CreateCategory(context.Background(), parent))
	sub := &models.ItemCategory{Name: "Cimento", ParentID: &parent.ID}
	require.NoError(t, catalog.CreateCategory(context.Background(), sub))

	_, err := svc.CreateCategory(context.Background(), dto.CreateCategoryInput{
		Name:     "Aditivos",
		ParentID: &sub.ID,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateCategoryRequiresKnownParent(t *testing.T) {
	svc, _, _ := newMasterService()

	missing := "not-a-category"
	_, err := svc.CreateCategory(context.Background(), dto.CreateCategoryInput{
		Name:     "Cimento",
		ParentID: &missing,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteReferencedItemRefused(t *testing.T) {
	svc, catalog, _ := newMasterService()
	item := &models.CatalogItem{Description: "cement CP-II 50kg"}
	require.NoError(t, catalog.CreateItem(context.Background(), item))
	catalog.referenced[item.ID] = true

	err := svc.DeleteItem(context.Background(), item.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrIntegrity.Code, appErrors.FromError(err).Code)
	// The item survives and can still be deactivated.
	require.NoError(t, svc.DeactivateItem(context.Background(), item.ID))
	assert.False(t, catalog.items[item.ID].Active)
}

func TestDeleteUnreferencedItemSucceeds(t *testing.T) {
	svc, catalog, _ := newMasterService()
	item := &models.CatalogItem{Description: "gloves"}
	require.NoError(t, catalog.CreateItem(context.Background(), item))

	require.NoError(t, svc.DeleteItem(context.Background(), item.ID))
	assert.Empty(t, catalog.items)
}

func TestDeactivateSupplierKeepsRecord(t *testing.T) {
	svc, _, suppliers := newMasterService()
	supplier, err := svc.CreateSupplier(context.Background(), dto.CreateSupplierInput{
		TradeName: "Casa do Construtor",
		Kind:      "MATERIAL",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateSupplier(context.Background(), supplier.ID))
	assert.Contains(t, suppliers.deactivated, supplier.ID)
	assert.Contains(t, suppliers.suppliers, supplier.ID)
}
