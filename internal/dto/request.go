package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateRequestInput is the payload for opening a purchase request.
type CreateRequestInput struct {
	SiteID        *string            `json:"site_id"`
	NeedBy        time.Time          `json:"need_by" binding:"required"`
	Justification string             `json:"justification" binding:"required"`
	Urgent        bool               `json:"urgent"`
	CategoryTag   *string            `json:"category_tag"`
	Lines         []RequestLineInput `json:"lines" binding:"required,min=1,dive"`
}

// RequestLineInput is one requested item row.
type RequestLineInput struct {
	CatalogItemID *string         `json:"catalog_item_id"`
	Description   string          `json:"description" binding:"required"`
	Unit          string          `json:"unit" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
	Note          string          `json:"note"`
}

// ApproveRequestInput carries the optional approval note.
type ApproveRequestInput struct {
	Note string `json:"note"`
}

// RejectRequestInput carries the mandatory rejection reason.
type RejectRequestInput struct {
	Reason string `json:"reason" binding:"required"`
}

// SplitRequestInput names the lines the approver accepts; they move to a
// new child request, the rest stay on the parent for rework.
type SplitRequestInput struct {
	ApprovedLineIDs []string `json:"approved_line_ids" binding:"required,min=1"`
	Note            string   `json:"note"`
}

// ListRequestsQuery filters the request listing.
type ListRequestsQuery struct {
	Status   []string `form:"status"`
	SiteID   string   `form:"site_id"`
	Urgent   *bool    `form:"urgent"`
	Search   string   `form:"search"`
	Page     int      `form:"page,default=1"`
	PageSize int      `form:"page_size,default=50"`
}
