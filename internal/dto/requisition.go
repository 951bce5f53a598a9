package dto

// SignRequisitionInput confirms the signer's identity with their password
// before a signature slot is filled.
type SignRequisitionInput struct {
	Password string `json:"password" binding:"required"`
}

// ListRequisitionsQuery filters the requisition listing.
type ListRequisitionsQuery struct {
	SignatureStatus string `form:"signature_status"`
	Page            int    `form:"page,default=1"`
	PageSize        int    `form:"page_size,default=50"`
}
