package models

// ClassificationStatus tags the advisory oracle's verdict for an item
// description.
type ClassificationStatus string

const (
	ClassificationExisting       ClassificationStatus = "EXISTING"
	ClassificationSubcategory    ClassificationStatus = "SUGGEST_SUBCATEGORY"
	ClassificationNewCategory    ClassificationStatus = "SUGGEST_NEW"
	ClassificationUnavailable    ClassificationStatus = "UNAVAILABLE"
)

// ClassificationResult is the validated advisory payload. Which fields are
// set depends on the status variant; validation happens at parse time so
// consumers can trust the variant's required fields are present.
type ClassificationResult struct {
	Status               ClassificationStatus `json:"status"`
	ParentCategoryID     string               `json:"parent_category_id,omitempty"`
	SubcategoryID        string               `json:"subcategory_id,omitempty"`
	SuggestedParent      string               `json:"suggested_parent,omitempty"`
	SuggestedSubcategory string               `json:"suggested_subcategory,omitempty"`
	UnitID               string               `json:"unit_id,omitempty"`
	Warning              string               `json:"warning,omitempty"`
}
