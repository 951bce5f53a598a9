package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obratech/procurement-api/internal/dto"
	"github.com/obratech/procurement-api/internal/service"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
	"github.com/obratech/procurement-api/pkg/response"
)

// RequisitionHandler exposes the two-signature authorization endpoints and
// the printable document.
type RequisitionHandler struct {
	requisitions *service.RequisitionService
}

// NewRequisitionHandler constructs the handler.
func NewRequisitionHandler(requisitions *service.RequisitionService) *RequisitionHandler {
	return &RequisitionHandler{requisitions: requisitions}
}

// List godoc
// @Summary List material requisitions
// @Tags requisitions
// @Produce json
// @Param signature_status query string false "Signature status filter"
// @Success 200 {object} response.Envelope
// @Router /requisitions [get]
func (h *RequisitionHandler) List(c *gin.Context) {
	var query dto.ListRequisitionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	requisitions, pagination, err := h.requisitions.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requisitions, pagination)
}

// Get godoc
// @Summary Fetch one requisition
// @Tags requisitions
// @Produce json
// @Param id path string true "Requisition id"
// @Success 200 {object} response.Envelope
// @Router /requisitions/{id} [get]
func (h *RequisitionHandler) Get(c *gin.Context) {
	requisition, err := h.requisitions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requisition, nil)
}

// Sign godoc
// @Summary Fill the caller's signature slot after password confirmation
// @Tags requisitions
// @Accept json
// @Produce json
// @Param id path string true "Requisition id"
// @Param payload body dto.SignRequisitionInput true "Password confirmation"
// @Success 200 {object} response.Envelope
// @Router /requisitions/{id}/sign [post]
func (h *RequisitionHandler) Sign(c *gin.Context) {
	var input dto.SignRequisitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	requisition, err := h.requisitions.Sign(c.Request.Context(), actorFrom(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requisition, nil)
}

// Dispatch godoc
// @Summary Dispatch a fully signed requisition to its supplier
// @Tags requisitions
// @Produce json
// @Param id path string true "Requisition id"
// @Success 200 {object} response.Envelope
// @Router /requisitions/{id}/dispatch [post]
func (h *RequisitionHandler) Dispatch(c *gin.Context) {
	requisition, err := h.requisitions.DispatchToSupplier(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requisition, nil)
}

// PDF godoc
// @Summary Download the printable requisition document
// @Tags requisitions
// @Produce application/pdf
// @Param id path string true "Requisition id"
// @Success 200 {file} binary
// @Router /requisitions/{id}/pdf [get]
func (h *RequisitionHandler) PDF(c *gin.Context) {
	pdf, filename, err := h.requisitions.RenderPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
