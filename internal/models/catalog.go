package models

import "time"

// ItemCategory forms a two-level category tree: parent categories have a
// nil ParentID, subcategories reference their parent.
type ItemCategory struct {
	ID       string  `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	ParentID *string `db:"parent_id" json:"parent_id,omitempty"`
}

// MeasureUnit is a unit of measure for catalog items and request lines.
type MeasureUnit struct {
	ID     string `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Symbol string `db:"symbol" json:"symbol"`
}

// CatalogItem is a reusable item description. An item referenced by any
// request line can only be deactivated, never deleted.
type CatalogItem struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Description string    `db:"description" json:"description"`
	CategoryID  string    `db:"category_id" json:"category_id"`
	UnitID      *string   `db:"unit_id" json:"unit_id,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
