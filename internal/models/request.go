package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestStatus captures the purchase request lifecycle.
type RequestStatus string

const (
	RequestStatusDraft             RequestStatus = "DRAFT"
	RequestStatusPendingApproval   RequestStatus = "PENDING_APPROVAL"
	RequestStatusEngineerApproved  RequestStatus = "APPROVED_BY_ENGINEER"
	RequestStatusApproved          RequestStatus = "APPROVED"
	RequestStatusRejected          RequestStatus = "REJECTED"
	RequestStatusInQuotation       RequestStatus = "IN_QUOTATION"
	RequestStatusAwaitingResponse  RequestStatus = "AWAITING_RESPONSE"
	RequestStatusQuotationSelected RequestStatus = "QUOTATION_SELECTED"
	RequestStatusFinalized         RequestStatus = "FINALIZED"
	RequestStatusInTransit         RequestStatus = "IN_TRANSIT"
	RequestStatusPartiallyReceived RequestStatus = "PARTIALLY_RECEIVED"
	RequestStatusReceived          RequestStatus = "RECEIVED"
)

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusRejected || s == RequestStatusReceived
}

// QuotationReady reports whether the request may enter the quotation phase.
func (s RequestStatus) QuotationReady() bool {
	return s == RequestStatusEngineerApproved || s == RequestStatusApproved
}

// PurchaseRequest is the root entity of the procurement workflow. The
// identifier is assigned once by the sequence allocator and never changes.
type PurchaseRequest struct {
	ID            string        `db:"id" json:"id"`
	Identifier    string        `db:"identifier" json:"identifier"`
	RequesterID   string        `db:"requester_id" json:"requester_id"`
	SiteID        *string       `db:"site_id" json:"site_id,omitempty"`
	NeedBy        time.Time     `db:"need_by" json:"need_by"`
	Justification string        `db:"justification" json:"justification"`
	Urgent        bool          `db:"urgent" json:"urgent"`
	CategoryTag   *string       `db:"category_tag" json:"category_tag,omitempty"`
	Status        RequestStatus `db:"status" json:"status"`
	ApproverID    *string       `db:"approver_id" json:"approver_id,omitempty"`
	ApprovedAt    *time.Time    `db:"approved_at" json:"approved_at,omitempty"`
	ApprovalNote  string        `db:"approval_note" json:"approval_note,omitempty"`
	ParentID      *string       `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`

	Lines []RequestLine `db:"-" json:"lines,omitempty"`
}

// RequestLine belongs to exactly one purchase request. Lines become
// immutable once any quotation references them.
type RequestLine struct {
	ID            string          `db:"id" json:"id"`
	RequestID     string          `db:"request_id" json:"request_id"`
	CatalogItemID *string         `db:"catalog_item_id" json:"catalog_item_id,omitempty"`
	Description   string          `db:"description" json:"description"`
	Unit          string          `db:"unit" json:"unit"`
	Quantity      decimal.Decimal `db:"quantity" json:"quantity"`
	Note          string          `db:"note" json:"note,omitempty"`
	Position      int             `db:"position" json:"position"`
}

// RequestFilter constrains listing queries.
type RequestFilter struct {
	Status      []RequestStatus
	SiteID      string
	RequesterID string
	Urgent      *bool
	Search      string
	Limit       int
	Offset      int
}

// DashboardSummary aggregates request counts for the overview screen.
type DashboardSummary struct {
	ByStatus    map[RequestStatus]int `json:"by_status"`
	UrgentOpen  int                   `json:"urgent_open"`
	TotalOpen   int                   `json:"total_open"`
	GeneratedAt time.Time             `json:"generated_at"`
}
