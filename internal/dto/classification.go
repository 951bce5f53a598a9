package dto

// ClassifyItemInput asks the advisory oracle to place a free-text item
// description in the catalog.
type ClassifyItemInput struct {
	Description string `json:"description" binding:"required"`
}
