package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obratech/procurement-api/internal/dto"
	"github.com/obratech/procurement-api/internal/service"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
	"github.com/obratech/procurement-api/pkg/response"
)

// QuotationHandler exposes the quotation board endpoints.
type QuotationHandler struct {
	quotations *service.QuotationService
}

// NewQuotationHandler constructs the handler.
func NewQuotationHandler(quotations *service.QuotationService) *QuotationHandler {
	return &QuotationHandler{quotations: quotations}
}

// Dispatch godoc
// @Summary Send a request's lines to suppliers for pricing
// @Tags quotations
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.DispatchInput true "Suppliers and lines"
// @Success 201 {object} response.Envelope
// @Router /requests/{id}/dispatches [post]
func (h *QuotationHandler) Dispatch(c *gin.Context) {
	var input dto.DispatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	dispatches, err := h.quotations.Dispatch(c.Request.Context(), actorFrom(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dispatches)
}

// Record godoc
// @Summary Record a supplier's priced quotation
// @Tags quotations
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.RecordQuotationInput true "Quotation payload"
// @Success 201 {object} response.Envelope
// @Router /requests/{id}/quotations [post]
func (h *QuotationHandler) Record(c *gin.Context) {
	var input dto.RecordQuotationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	quotation, err := h.quotations.RecordQuotation(c.Request.Context(), actorFrom(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quotation)
}

// Board godoc
// @Summary Fetch dispatches and quotations for a request
// @Tags quotations
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/quotations [get]
func (h *QuotationHandler) Board(c *gin.Context) {
	dispatches, quotations, err := h.quotations.Board(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"dispatches": dispatches, "quotations": quotations}, nil)
}

// SelectWinner godoc
// @Summary Mark a quotation winning and create the requisition
// @Tags quotations
// @Produce json
// @Param id path string true "Quotation id"
// @Success 201 {object} response.Envelope
// @Router /quotations/{id}/select [post]
func (h *QuotationHandler) SelectWinner(c *gin.Context) {
	requisition, err := h.quotations.SelectWinner(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, requisition)
}

// Reject godoc
// @Summary Discard a supplier's quotation
// @Tags quotations
// @Accept json
// @Produce json
// @Param id path string true "Quotation id"
// @Success 204
// @Router /quotations/{id}/reject [post]
func (h *QuotationHandler) Reject(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	if err := h.quotations.RejectQuotation(c.Request.Context(), actorFrom(c), c.Param("id"), input.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// EmailDraft godoc
// @Summary Draft the price-request email for a dispatch
// @Tags quotations
// @Produce json
// @Param id path string true "Dispatch id"
// @Success 200 {object} response.Envelope
// @Router /dispatches/{id}/email-draft [get]
func (h *QuotationHandler) EmailDraft(c *gin.Context) {
	draft, err := h.quotations.EmailDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}
