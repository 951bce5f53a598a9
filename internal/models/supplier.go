package models

import "time"

// SupplierKind categorises what a supplier provides.
type SupplierKind string

const (
	SupplierKindMaterial SupplierKind = "MATERIAL"
	SupplierKindService  SupplierKind = "SERVICE"
	SupplierKindBoth     SupplierKind = "BOTH"
)

// Supplier is a registered vendor. Suppliers are deactivated, never deleted.
type Supplier struct {
	ID           string       `db:"id" json:"id"`
	TradeName    string       `db:"trade_name" json:"trade_name"`
	LegalName    string       `db:"legal_name" json:"legal_name"`
	TaxID        string       `db:"tax_id" json:"tax_id"`
	Kind         SupplierKind `db:"kind" json:"kind"`
	Email        string       `db:"email" json:"email"`
	ContactName  string       `db:"contact_name" json:"contact_name,omitempty"`
	ContactPhone string       `db:"contact_phone" json:"contact_phone,omitempty"`
	City         string       `db:"city" json:"city,omitempty"`
	State        string       `db:"state" json:"state,omitempty"`
	Active       bool         `db:"active" json:"active"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}
