package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obratech/procurement-api/internal/dto"
	"github.com/obratech/procurement-api/internal/service"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
	"github.com/obratech/procurement-api/pkg/response"
)

// ReceiptHandler exposes delivery confirmation and reconciliation.
type ReceiptHandler struct {
	receipts *service.ReceiptService
}

// NewReceiptHandler constructs the handler.
func NewReceiptHandler(receipts *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// Record godoc
// @Summary Confirm a delivery against a request
// @Tags receipts
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.RecordReceiptInput true "Received quantities"
// @Success 201 {object} response.Envelope
// @Router /requests/{id}/receipts [post]
func (h *ReceiptHandler) Record(c *gin.Context) {
	var input dto.RecordReceiptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	progress, err := h.receipts.Record(c.Request.Context(), actorFrom(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, progress)
}

// Progress godoc
// @Summary Fetch per-line receipt progress
// @Tags receipts
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/receipts/progress [get]
func (h *ReceiptHandler) Progress(c *gin.Context) {
	progress, err := h.receipts.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// Pending godoc
// @Summary Fetch lines still awaiting material
// @Tags receipts
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/receipts/pending [get]
func (h *ReceiptHandler) Pending(c *gin.Context) {
	pending, err := h.receipts.PendingLines(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pending, nil)
}

// Events godoc
// @Summary Fetch the delivery history of a request
// @Tags receipts
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/receipts [get]
func (h *ReceiptHandler) Events(c *gin.Context) {
	events, err := h.receipts.Events(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}
