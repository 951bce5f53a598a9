package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DispatchInput sends a request's line subset to one or more suppliers for
// pricing.
type DispatchInput struct {
	SupplierIDs      []string   `json:"supplier_ids" binding:"required,min=1"`
	LineIDs          []string   `json:"line_ids" binding:"required,min=1"`
	ResponseDeadline *time.Time `json:"response_deadline"`
	PaymentMethod    string     `json:"payment_method" binding:"omitempty,payment_method"`
	PaymentTermDays  int        `json:"payment_term_days"`
	Note             string     `json:"note"`
}

// RecordQuotationInput records one supplier's priced response.
type RecordQuotationInput struct {
	SupplierID       string            `json:"supplier_id" binding:"required"`
	Freight          decimal.Decimal   `json:"freight"`
	DeliveryTerm     string            `json:"delivery_term"`
	PaymentCondition string            `json:"payment_condition"`
	Note             string            `json:"note"`
	Lines            []QuotedLineInput `json:"lines" binding:"required,min=1,dive"`
}

// QuotedLineInput prices one request line.
type QuotedLineInput struct {
	RequestLineID string          `json:"request_line_id" binding:"required"`
	Price         decimal.Decimal `json:"price"`
}

// EmailDraft is a ready-to-send quotation request message. Sending is the
// caller's concern; the API only drafts.
type EmailDraft struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
