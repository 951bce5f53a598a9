package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obratech/procurement-api/internal/dto"
	"github.com/obratech/procurement-api/internal/service"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
	"github.com/obratech/procurement-api/pkg/response"
)

// RequestHandler exposes the purchase request lifecycle endpoints.
type RequestHandler struct {
	requests *service.RequestService
}

// NewRequestHandler constructs the handler.
func NewRequestHandler(requests *service.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// Create godoc
// @Summary Open a purchase request
// @Tags requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateRequestInput true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var input dto.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	request, err := h.requests.Create(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// List godoc
// @Summary List purchase requests
// @Tags requests
// @Produce json
// @Param status query []string false "Status filter"
// @Param search query string false "Identifier or justification search"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	var query dto.ListRequestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	requests, pagination, err := h.requests.List(c.Request.Context(), query, actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Fetch one purchase request with its lines
// @Tags requests
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	request, err := h.requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// History godoc
// @Summary Fetch a request's audit trail
// @Tags requests
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/history [get]
func (h *RequestHandler) History(c *gin.Context) {
	entries, err := h.requests.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Approve godoc
// @Summary Approve a pending request
// @Tags requests
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.ApproveRequestInput false "Approval note"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/approve [post]
func (h *RequestHandler) Approve(c *gin.Context) {
	var input dto.ApproveRequestInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	request, err := h.requests.Approve(c.Request.Context(), actorFrom(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Reject godoc
// @Summary Reject a pending request with a reason
// @Tags requests
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.RejectRequestInput true "Rejection reason"
// @Success 204
// @Router /requests/{id}/reject [post]
func (h *RequestHandler) Reject(c *gin.Context) {
	var input dto.RejectRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	if err := h.requests.Reject(c.Request.Context(), actorFrom(c), c.Param("id"), input); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// OfficeReject godoc
// @Summary Reject an approved request before quotation
// @Tags requests
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.RejectRequestInput true "Rejection reason"
// @Success 204
// @Router /requests/{id}/office-reject [post]
func (h *RequestHandler) OfficeReject(c *gin.Context) {
	var input dto.RejectRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	if err := h.requests.OfficeReject(c.Request.Context(), actorFrom(c), c.Param("id"), input); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Split godoc
// @Summary Partially approve a request, splitting approved lines into a child
// @Tags requests
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.SplitRequestInput true "Approved line ids"
// @Success 201 {object} response.Envelope
// @Router /requests/{id}/split [post]
func (h *RequestHandler) Split(c *gin.Context) {
	var input dto.SplitRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	child, err := h.requests.Split(c.Request.Context(), actorFrom(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, child)
}

// StartQuotation godoc
// @Summary Open the quotation phase for an approved request
// @Tags requests
// @Produce json
// @Param id path string true "Request id"
// @Success 204
// @Router /requests/{id}/start-quotation [post]
func (h *RequestHandler) StartQuotation(c *gin.Context) {
	if err := h.requests.StartQuotation(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Duplicate godoc
// @Summary Duplicate a request's lines into a new request
// @Tags requests
// @Produce json
// @Param id path string true "Request id"
// @Success 201 {object} response.Envelope
// @Router /requests/{id}/duplicate [post]
func (h *RequestHandler) Duplicate(c *gin.Context) {
	clone, err := h.requests.Duplicate(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, clone)
}
