package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obratech/procurement-api/internal/models"
	"github.com/obratech/procurement-api/pkg/config"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
)

type stubCatalogReader struct{}

func (stubCatalogReader) ListCategories(ctx context.Context) ([]models.ItemCategory, error) {
	parent := "cat-1"
	return []models.ItemCategory{
		{ID: "cat-1", Name: "Estrutura"},
		{ID: "cat-2", Name: "Cimento e argamassa", ParentID: &parent},
	}, nil
}

func (stubCatalogReader) ListUnits(ctx context.Context) ([]models.MeasureUnit, error) {
	return []models.MeasureUnit{{ID: "unit-1", Name: "Saco", Symbol: "sc"}}, nil
}

func TestParseClassificationVariants(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		status  models.ClassificationStatus
		wantErr bool
	}{
		{
			name:   "existing category",
			raw:    `{"status":"EXISTING","parent_category_id":"cat-1","subcategory_id":"cat-2","unit_id":"unit-1"}`,
			status: models.ClassificationExisting,
		},
		{
			name:   "suggested subcategory",
			raw:    `{"status":"SUGGEST_SUBCATEGORY","parent_category_id":"cat-1","suggested_subcategory":"Aditivos","unit_id":"unit-1"}`,
			status: models.ClassificationSubcategory,
		},
		{
			name:   "suggested new category",
			raw:    `{"status":"SUGGEST_NEW","suggested_parent":"Eletrica","suggested_subcategory":"Cabos","unit_id":"unit-1"}`,
			status: models.ClassificationNewCategory,
		},
		{
			name:   "object wrapped in prose and code fences",
			raw:    "Sure! Here is the verdict:\n```json\n{\"status\":\"EXISTING\",\"parent_category_id\":\"cat-1\",\"subcategory_id\":\"cat-2\",\"unit_id\":\"unit-1\"}\n```\n",
			status: models.ClassificationExisting,
		},
		{
			name:    "missing unit id",
			raw:     `{"status":"EXISTING","parent_category_id":"cat-1","subcategory_id":"cat-2"}`,
			wantErr: true,
		},
		{
			name:    "existing without subcategory",
			raw:     `{"status":"EXISTING","parent_category_id":"cat-1","unit_id":"unit-1"}`,
			wantErr: true,
		},
		{
			name:    "unknown status",
			raw:     `{"status":"MAYBE","unit_id":"unit-1"}`,
			wantErr: true,
		},
		{
			name:    "no JSON at all",
			raw:     "I could not classify this item.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseClassification(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, "unit-1", result.UnitID)
		})
	}
}

func TestClassifyDisabledIsAdvisoryError(t *testing.T) {
	svc := NewClassificationService(config.AdvisoryConfig{Enabled: false}, stubCatalogReader{}, testLogger())

	_, err := svc.Classify(context.Background(), "cimento CP-II 50kg")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAdvisory.Code, appErrors.FromError(err).Code)
}

func TestClassifyRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "cimento CP-II 50kg")
		assert.Contains(t, req.Messages[0].Content, "cat-2|Cimento e argamassa|cat-1")

		_ = json.NewEncoder(w).Encode(chatResponse{Choices: []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{
			Role:    "assistant",
			Content: `{"status":"EXISTING","parent_category_id":"cat-1","subcategory_id":"cat-2","unit_id":"unit-1"}`,
		}}}})
	}))
	defer server.Close()

	svc := NewClassificationService(config.AdvisoryConfig{
		Enabled: true,
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		Timeout: 5 * time.Second,
	}, stubCatalogReader{}, testLogger())

	result, err := svc.Classify(context.Background(), "cimento CP-II 50kg")
	require.NoError(t, err)
	assert.Equal(t, models.ClassificationExisting, result.Status)
	assert.Equal(t, "cat-2", result.SubcategoryID)
}

func TestClassifyUpstreamFailureIsAdvisoryError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := NewClassificationService(config.AdvisoryConfig{
		Enabled: true,
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, stubCatalogReader{}, testLogger())

	_, err := svc.Classify(context.Background(), "cimento CP-II 50kg")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAdvisory.Code, appErrors.FromError(err).Code)
}
