package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/obratech/procurement-api/internal/models"
	"github.com/obratech/procurement-api/pkg/config"
	appErrors "github.com/obratech/procurement-api/pkg/errors"
)

type catalogReader interface {
	ListCategories(ctx context.Context) ([]models.ItemCategory, error)
	ListUnits(ctx context.Context) ([]models.MeasureUnit, error)
}

// ClassificationService asks an external language-model endpoint to place a
// free-text item description in the catalog. The advisory is best-effort:
// any failure surfaces as an advisory error the handler downgrades to a
// warning, and the user falls back to manual classification.
type ClassificationService struct {
	cfg     config.AdvisoryConfig
	catalog catalogReader
	client  *http.Client
	logger  *zap.Logger
}

// NewClassificationService constructs the service.
func NewClassificationService(cfg config.AdvisoryConfig, catalog catalogReader, logger *zap.Logger) *ClassificationService {
	return &ClassificationService{
		cfg:     cfg,
		catalog: catalog,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Classify returns the oracle's verdict for the description.
func (s *ClassificationService) Classify(ctx context.Context, description string) (*models.ClassificationResult, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrAdvisory, "classification advisory is disabled")
	}

	prompt, err := s.buildPrompt(ctx, description)
	if err != nil {
		return nil, err
	}

	raw, err := s.complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("classification advisory call failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrAdvisory.Code, appErrors.ErrAdvisory.Status, appErrors.ErrAdvisory.Message)
	}

	result, err := parseClassification(raw)
	if err != nil {
		s.logger.Warn("classification advisory returned malformed payload",
			zap.Error(err), zap.String("payload", raw))
		return nil, appErrors.Wrap(err, appErrors.ErrAdvisory.Code, appErrors.ErrAdvisory.Status, appErrors.ErrAdvisory.Message)
	}
	return result, nil
}

func (s *ClassificationService) buildPrompt(ctx context.Context, description string) (string, error) {
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return "", err
	}
	units, err := s.catalog.ListUnits(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("You classify construction material descriptions into a two-level catalog.\n")
	b.WriteString("Known categories (id, name, parent_id):\n")
	for _, category := range categories {
		parent := "-"
		if category.ParentID != nil {
			parent = *category.ParentID
		}
		fmt.Fprintf(&b, "%s|%s|%s\n", category.ID, category.Name, parent)
	}
	b.WriteString("Known units (id, name, symbol):\n")
	for _, unit := range units {
		fmt.Fprintf(&b, "%s|%s|%s\n", unit.ID, unit.Name, unit.Symbol)
	}
	b.WriteString("\nRespond with a single JSON object and nothing else. Schema:\n")
	b.WriteString(`{"status":"EXISTING|SUGGEST_SUBCATEGORY|SUGGEST_NEW","parent_category_id":"","subcategory_id":"","suggested_parent":"","suggested_subcategory":"","unit_id":""}` + "\n")
	b.WriteString("Use EXISTING when both levels match; SUGGEST_SUBCATEGORY when only the parent matches; SUGGEST_NEW otherwise. unit_id is always required.\n\n")
	fmt.Fprintf(&b, "Item description: %s\n", description)
	return b.String(), nil
}

func (s *ClassificationService) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:    s.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal advisory request: %w", err)
	}

	url := strings.TrimRight(s.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build advisory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call advisory endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read advisory response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("advisory endpoint returned %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode advisory response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("advisory response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// parseClassification extracts the JSON object from the model output and
// validates the variant's required fields. Model output may wrap the object
// in prose or code fences, so everything outside the outermost braces is
// discarded.
func parseClassification(raw string) (*models.ClassificationResult, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in advisory output")
	}

	var result models.ClassificationResult
	if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("decode advisory verdict: %w", err)
	}

	if result.UnitID == "" {
		return nil, fmt.Errorf("advisory verdict is missing unit_id")
	}
	switch result.Status {
	case models.ClassificationExisting:
		if result.ParentCategoryID == "" || result.SubcategoryID == "" {
			return nil, fmt.Errorf("EXISTING verdict is missing category ids")
		}
	case models.ClassificationSubcategory:
		if result.ParentCategoryID == "" || result.SuggestedSubcategory == "" {
			return nil, fmt.Errorf("SUGGEST_SUBCATEGORY verdict is missing fields")
		}
	case models.ClassificationNewCategory:
		if result.SuggestedParent == "" || result.SuggestedSubcategory == "" {
			return nil, fmt.Errorf("SUGGEST_NEW verdict is missing fields")
		}
	default:
		return nil, fmt.Errorf("unknown verdict status %q", result.Status)
	}
	return &result, nil
}
