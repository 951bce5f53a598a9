package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obratech/procurement-api/internal/dto"
	"github.com/obratech/procurement-api/internal/service"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
	"github.com/obratech/procurement-api/pkg/response"
)

// MasterHandler exposes supplier, catalog and site reference data.
type MasterHandler struct {
	master *service.MasterService
}

// NewMasterHandler constructs the handler.
func NewMasterHandler(master *service.MasterService) *MasterHandler {
	return &MasterHandler{master: master}
}

func bindJSON(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return false
	}
	return true
}

// CreateSupplier godoc
// @Summary Register a supplier
// @Tags master-data
// @Accept json
// @Produce json
// @Param payload body dto.CreateSupplierInput true "Supplier payload"
// @Success 201 {object} response.Envelope
// @Router /suppliers [post]
func (h *MasterHandler) CreateSupplier(c *gin.Context) {
	var input dto.CreateSupplierInput
	if !bindJSON(c, &input) {
		return
	}
	supplier, err := h.master.CreateSupplier(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, supplier)
}

// ListSuppliers godoc
// @Summary List suppliers
// @Tags master-data
// @Produce json
// @Param kind query string false "MATERIAL, SERVICE or BOTH"
// @Param search query string false "Name search"
// @Success 200 {object} response.Envelope
// @Router /suppliers [get]
func (h *MasterHandler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.master.ListSuppliers(c.Request.Context(),
		c.Query("kind"), c.Query("search"), c.Query("include_inactive") == "")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, suppliers, nil)
}

// GetSupplier godoc
// @Summary Fetch one supplier
// @Tags master-data
// @Produce json
// @Param id path string true "Supplier id"
// @Success 200 {object} response.Envelope
// @Router /suppliers/{id} [get]
func (h *MasterHandler) GetSupplier(c *gin.Context) {
	supplier, err := h.master.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supplier, nil)
}

// DeactivateSupplier godoc
// @Summary Deactivate a supplier
// @Tags master-data
// @Param id path string true "Supplier id"
// @Success 204
// @Router /suppliers/{id} [delete]
func (h *MasterHandler) DeactivateSupplier(c *gin.Context) {
	if err := h.master.DeactivateSupplier(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateCategory godoc
// @Summary Add a catalog category
// @Tags master-data
// @Accept json
// @Produce json
// @Param payload body dto.CreateCategoryInput true "Category payload"
// @Success 201 {object} response.Envelope
// @Router /catalog/categories [post]
func (h *MasterHandler) CreateCategory(c *gin.Context) {
	var input dto.CreateCategoryInput
	if !bindJSON(c, &input) {
		return
	}
	category, err := h.master.CreateCategory(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// ListCategories godoc
// @Summary List catalog categories
// @Tags master-data
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/categories [get]
func (h *MasterHandler) ListCategories(c *gin.Context) {
	categories, err := h.master.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// CreateUnit godoc
// @Summary Add a measure unit
// @Tags master-data
// @Accept json
// @Produce json
// @Param payload body dto.CreateUnitInput true "Unit payload"
// @Success 201 {object} response.Envelope
// @Router /catalog/units [post]
func (h *MasterHandler) CreateUnit(c *gin.Context) {
	var input dto.CreateUnitInput
	if !bindJSON(c, &input) {
		return
	}
	unit, err := h.master.CreateUnit(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, unit)
}

// ListUnits godoc
// @Summary List measure units
// @Tags master-data
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/units [get]
func (h *MasterHandler) ListUnits(c *gin.Context) {
	units, err := h.master.ListUnits(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, units, nil)
}

// CreateItem godoc
// @Summary Add a catalog item
// @Tags master-data
// @Accept json
// @Produce json
// @Param payload body dto.CreateItemInput true "Item payload"
// @Success 201 {object} response.Envelope
// @Router /catalog/items [post]
func (h *MasterHandler) CreateItem(c *gin.Context) {
	var input dto.CreateItemInput
	if !bindJSON(c, &input) {
		return
	}
	item, err := h.master.CreateItem(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// ListItems godoc
// @Summary List catalog items
// @Tags master-data
// @Produce json
// @Param category_id query string false "Category filter"
// @Param search query string false "Description or code search"
// @Success 200 {object} response.Envelope
// @Router /catalog/items [get]
func (h *MasterHandler) ListItems(c *gin.Context) {
	items, err := h.master.ListItems(c.Request.Context(),
		c.Query("category_id"), c.Query("search"), c.Query("include_inactive") == "")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// DeleteItem godoc
// @Summary Delete an unreferenced catalog item
// @Tags master-data
// @Param id path string true "Item id"
// @Success 204
// @Router /catalog/items/{id} [delete]
func (h *MasterHandler) DeleteItem(c *gin.Context) {
	if err := h.master.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeactivateItem godoc
// @Summary Deactivate a catalog item
// @Tags master-data
// @Param id path string true "Item id"
// @Success 204
// @Router /catalog/items/{id}/deactivate [post]
func (h *MasterHandler) DeactivateItem(c *gin.Context) {
	if err := h.master.DeactivateItem(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateSite godoc
// @Summary Register a construction site
// @Tags master-data
// @Accept json
// @Produce json
// @Param payload body dto.CreateSiteInput true "Site payload"
// @Success 201 {object} response.Envelope
// @Router /sites [post]
func (h *MasterHandler) CreateSite(c *gin.Context) {
	var input dto.CreateSiteInput
	if !bindJSON(c, &input) {
		return
	}
	site, err := h.master.CreateSite(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, site)
}

// ListSites godoc
// @Summary List construction sites
// @Tags master-data
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sites [get]
func (h *MasterHandler) ListSites(c *gin.Context) {
	sites, err := h.master.ListSites(c.Request.Context(), c.Query("include_inactive") == "")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sites, nil)
}

// DeactivateSite godoc
// @Summary Deactivate a construction site
// @Tags master-data
// @Param id path string true "Site id"
// @Success 204
// @Router /sites/{id} [delete]
func (h *MasterHandler) DeactivateSite(c *gin.Context) {
	if err := h.master.DeactivateSite(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
