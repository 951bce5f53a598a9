package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignatureStatus follows the two-signature authorization protocol.
type SignatureStatus string

const (
	SignatureStatusUnsigned         SignatureStatus = "UNSIGNED"
	SignatureStatusAwaitingDirector SignatureStatus = "AWAITING_DIRECTOR"
	SignatureStatusSigned           SignatureStatus = "SIGNED"
	SignatureStatusDispatched       SignatureStatus = "DISPATCHED"
)

// SignerRole identifies which signature slot an actor fills.
type SignerRole string

const (
	SignerClerk    SignerRole = "CLERK"
	SignerDirector SignerRole = "DIRECTOR"
)

// HeaderProfile selects the company letterhead used when rendering the
// requisition document.
type HeaderProfile string

const (
	HeaderProfileA HeaderProfile = "A"
	HeaderProfileB HeaderProfile = "B"
)

// MaterialRequisition is created exactly once per purchase request from its
// winning quotation. Signature slots are never overwritten once set.
type MaterialRequisition struct {
	ID               string          `db:"id" json:"id"`
	Identifier       string          `db:"identifier" json:"identifier"`
	RequestID        string          `db:"request_id" json:"request_id"`
	QuotationID      string          `db:"quotation_id" json:"quotation_id"`
	TotalValue       decimal.Decimal `db:"total_value" json:"total_value"`
	SignatureStatus  SignatureStatus `db:"signature_status" json:"signature_status"`
	ClerkSignerID    *string         `db:"clerk_signer_id" json:"clerk_signer_id,omitempty"`
	ClerkSignedAt    *time.Time      `db:"clerk_signed_at" json:"clerk_signed_at,omitempty"`
	DirectorSignerID *string         `db:"director_signer_id" json:"director_signer_id,omitempty"`
	DirectorSignedAt *time.Time      `db:"director_signed_at" json:"director_signed_at,omitempty"`
	DispatchedAt     *time.Time      `db:"dispatched_at" json:"dispatched_at,omitempty"`
	HeaderProfile    HeaderProfile   `db:"header_profile" json:"header_profile"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// FullySigned reports whether both signature slots are filled.
func (r *MaterialRequisition) FullySigned() bool {
	return r.ClerkSignerID != nil && r.DirectorSignerID != nil
}
