package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/obratech/procurement-api/internal/models"
	"github.com/obratech/procurement-api/internal/service"
	"github.com/obratech/procurement-api/pkg/config"
)

type fakeCatalogReader struct{}

func (fakeCatalogReader) ListCategories(context.Context) ([]models.ItemCategory, error) {
	return nil, nil
}

func (fakeCatalogReader) ListUnits(context.Context) ([]models.MeasureUnit, error) {
	return nil, nil
}

func TestClassifyDowngradesAdvisoryFailureToWarning(t *testing.T) {
	gin.SetMode(gin.TestMode)
	classifier := service.NewClassificationService(config.AdvisoryConfig{Enabled: false}, fakeCatalogReader{}, zap.NewNop())
	handler := NewClassificationHandler(classifier)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/classification",
		strings.NewReader(`{"description":"cimento CP-II 50kg"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Classify(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data    models.ClassificationResult `json:"data"`
		Warning string                      `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, models.ClassificationUnavailable, envelope.Data.Status)
	assert.NotEmpty(t, envelope.Warning)
}

func TestClassifyRequiresDescription(t *testing.T) {
	gin.SetMode(gin.TestMode)
	classifier := service.NewClassificationService(config.AdvisoryConfig{Enabled: false}, fakeCatalogReader{}, zap.NewNop())
	handler := NewClassificationHandler(classifier)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/classification", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Classify(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
