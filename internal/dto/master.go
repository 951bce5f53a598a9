package dto

import "time"

// CreateSupplierInput registers a vendor.
type CreateSupplierInput struct {
	TradeName    string `json:"trade_name" binding:"required"`
	LegalName    string `json:"legal_name" binding:"required"`
	TaxID        string `json:"tax_id" binding:"required"`
	Kind         string `json:"kind" binding:"required,oneof=MATERIAL SERVICE BOTH"`
	Email        string `json:"email" binding:"required,email"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// CreateCategoryInput adds a category or subcategory.
type CreateCategoryInput struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parent_id"`
}

// CreateUnitInput adds a measure unit.
type CreateUnitInput struct {
	Name   string `json:"name" binding:"required"`
	Symbol string `json:"symbol" binding:"required"`
}

// CreateItemInput adds a catalog item.
type CreateItemInput struct {
	Code        string  `json:"code" binding:"required"`
	Description string  `json:"description" binding:"required"`
	CategoryID  string  `json:"category_id" binding:"required"`
	UnitID      *string `json:"unit_id"`
}

// CreateSiteInput registers a construction site.
type CreateSiteInput struct {
	Name      string     `json:"name" binding:"required"`
	Address   string     `json:"address"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}
