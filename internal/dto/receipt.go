package dto

import "github.com/shopspring/decimal"

// RecordReceiptInput confirms one physical delivery. Lines with zero
// quantity are ignored.
type RecordReceiptInput struct {
	Note  string              `json:"note"`
	Lines []ReceivedLineInput `json:"lines" binding:"required,min=1,dive"`
}

// ReceivedLineInput is the delivered quantity for one request line.
type ReceivedLineInput struct {
	RequestLineID string          `json:"request_line_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
	Note          string          `json:"note"`
}
