package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obratech/procurement-api/internal/dto"
	"github.com/obratech/procurement-api/internal/models"
	"github.com/obratech/procurement-api/internal/service"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
	"github.com/obratech/procurement-api/pkg/response"
)

// ClassificationHandler exposes the advisory item classifier.
type ClassificationHandler struct {
	classifier *service.ClassificationService
}

// NewClassificationHandler constructs the handler.
func NewClassificationHandler(classifier *service.ClassificationService) *ClassificationHandler {
	return &ClassificationHandler{classifier: classifier}
}

// Classify godoc
// @Summary Suggest catalog placement for an item description
// @Tags classification
// @Accept json
// @Produce json
// @Param payload body dto.ClassifyItemInput true "Item description"
// @Success 200 {object} response.Envelope
// @Router /classification [post]
func (h *ClassificationHandler) Classify(c *gin.Context) {
	var input dto.ClassifyItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	result, err := h.classifier.Classify(c.Request.Context(), input.Description)
	if err != nil {
		// Advisory failures never block the workflow; the client falls back
		// to manual classification.
		if appErrors.FromError(err).Code == appErrors.ErrAdvisory.Code {
			response.Warn(c, http.StatusOK,
				&models.ClassificationResult{Status: models.ClassificationUnavailable},
				"classification advisory unavailable, classify manually")
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
