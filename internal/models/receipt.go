package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptEvent records one physical delivery confirmation against a request.
type ReceiptEvent struct {
	ID         string    `db:"id" json:"id"`
	RequestID  string    `db:"request_id" json:"request_id"`
	RecorderID string    `db:"recorder_id" json:"recorder_id"`
	ReceivedAt time.Time `db:"received_at" json:"received_at"`
	Note       string    `db:"note" json:"note,omitempty"`

	Lines []ReceivedLine `db:"-" json:"lines,omitempty"`
}

// ReceivedLine stores the quantity delivered for one request line within a
// receipt event. Multiple events may target the same line.
type ReceivedLine struct {
	ID            string          `db:"id" json:"id"`
	ReceiptID     string          `db:"receipt_id" json:"receipt_id"`
	RequestLineID string          `db:"request_line_id" json:"request_line_id"`
	Quantity      decimal.Decimal `db:"quantity" json:"quantity"`
	Note          string          `db:"note" json:"note,omitempty"`
}

// LineProgress is the reconciliation view of one request line: requested
// quantity versus the accumulated total across all receipt events.
type LineProgress struct {
	RequestLineID string          `json:"request_line_id"`
	Description   string          `json:"description"`
	Unit          string          `json:"unit"`
	Requested     decimal.Decimal `json:"requested"`
	Received      decimal.Decimal `json:"received"`
	Pending       decimal.Decimal `json:"pending"`
	Complete      bool            `json:"complete"`
	OverReceived  bool            `json:"over_received"`
}
