package models

import "time"

// Audit action labels. Every workflow transition appends exactly one entry.
const (
	AuditActionCreated             = "REQUEST_CREATED"
	AuditActionApprovedOnCreation  = "APPROVED_ON_CREATION"
	AuditActionApproved            = "APPROVED_BY_ENGINEER"
	AuditActionRejected            = "REQUEST_REJECTED"
	AuditActionOfficeRejected      = "REJECTED_BY_OFFICE"
	AuditActionSplit               = "PARTIAL_APPROVAL"
	AuditActionSplitChild          = "CREATED_FROM_PARTIAL_APPROVAL"
	AuditActionDuplicated          = "REQUEST_DUPLICATED"
	AuditActionQuotationStarted    = "QUOTATION_STARTED"
	AuditActionQuotationDispatched = "QUOTATION_DISPATCHED"
	AuditActionQuotationRecorded   = "QUOTATION_RECORDED"
	AuditActionQuotationRejected   = "QUOTATION_REJECTED"
	AuditActionRequisitionCreated  = "REQUISITION_CREATED"
	AuditActionClerkSigned         = "REQUISITION_SIGNED_1_OF_2"
	AuditActionDirectorSigned      = "REQUISITION_SIGNED_2_OF_2"
	AuditActionInTransit           = "MATERIAL_IN_TRANSIT"
	AuditActionPartialReceipt      = "MATERIAL_RECEIVED_PARTIAL"
	AuditActionTotalReceipt        = "MATERIAL_RECEIVED_TOTAL"
)

// AuditEntry is an append-only history record attached to a purchase
// request. Entries are never mutated or deleted; ordering is by timestamp.
type AuditEntry struct {
	ID        string    `db:"id" json:"id"`
	RequestID string    `db:"request_id" json:"request_id"`
	ActorID   *string   `db:"actor_id" json:"actor_id,omitempty"`
	Action    string    `db:"action" json:"action"`
	Detail    string    `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
