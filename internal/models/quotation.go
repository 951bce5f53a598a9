package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DispatchStatus tracks whether a supplier has responded to a price request.
type DispatchStatus string

const (
	DispatchStatusAwaiting  DispatchStatus = "AWAITING"
	DispatchStatusResponded DispatchStatus = "RESPONDED"
)

// PaymentMethod enumerates the payment suggestions sent with a dispatch.
type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "CASH"
	PaymentPix        PaymentMethod = "PIX"
	PaymentBankSlip   PaymentMethod = "BANK_SLIP"
	PaymentCredit     PaymentMethod = "CREDIT_CARD"
	PaymentDebit      PaymentMethod = "DEBIT_CARD"
	PaymentTransfer   PaymentMethod = "TRANSFER"
	PaymentNegotiable PaymentMethod = "NEGOTIABLE"
)

// QuotationDispatch records that a request's lines went out to one supplier
// for pricing. At most one dispatch exists per (request, supplier).
type QuotationDispatch struct {
	ID               string         `db:"id" json:"id"`
	RequestID        string         `db:"request_id" json:"request_id"`
	SupplierID       string         `db:"supplier_id" json:"supplier_id"`
	SentAt           time.Time      `db:"sent_at" json:"sent_at"`
	ResponseDeadline *time.Time     `db:"response_deadline" json:"response_deadline,omitempty"`
	PaymentMethod    PaymentMethod  `db:"payment_method" json:"payment_method"`
	PaymentTermDays  int            `db:"payment_term_days" json:"payment_term_days"`
	Note             string         `db:"note" json:"note,omitempty"`
	Status           DispatchStatus `db:"status" json:"status"`

	LineIDs []string `db:"-" json:"line_ids,omitempty"`
}

// Quotation is a supplier's priced response. At most one per
// (request, supplier); at most one winning quotation per request.
type Quotation struct {
	ID               string          `db:"id" json:"id"`
	RequestID        string          `db:"request_id" json:"request_id"`
	SupplierID       string          `db:"supplier_id" json:"supplier_id"`
	QuotedAt         time.Time       `db:"quoted_at" json:"quoted_at"`
	DeliveryTerm     string          `db:"delivery_term" json:"delivery_term,omitempty"`
	PaymentCondition string          `db:"payment_condition" json:"payment_condition,omitempty"`
	Note             string          `db:"note" json:"note,omitempty"`
	Freight          decimal.Decimal `db:"freight" json:"freight"`
	Winning          bool            `db:"winning" json:"winning"`

	Lines []QuotedLine `db:"-" json:"lines,omitempty"`
}

// QuotedLine prices one request line within a quotation.
type QuotedLine struct {
	ID            string          `db:"id" json:"id"`
	QuotationID   string          `db:"quotation_id" json:"quotation_id"`
	RequestLineID string          `db:"request_line_id" json:"request_line_id"`
	Price         decimal.Decimal `db:"price" json:"price"`
}

// Total computes line subtotal plus freight against the requested
// quantities keyed by request line id.
func (q *Quotation) Total(quantities map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, line := range q.Lines {
		qty, ok := quantities[line.RequestLineID]
		if !ok {
			continue
		}
		total = total.Add(line.Price.Mul(qty))
	}
	return total.Add(q.Freight)
}
