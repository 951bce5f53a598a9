package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// CompanyHeader holds the letterhead printed on requisition documents. The
// profile is chosen per requisition and passed in explicitly; nothing here
// is read from process-wide state.
type CompanyHeader struct {
	Name    string
	Address string
	TaxID   string
	Phone   string
	Email   string
	City    string
}

// RequisitionLine is one priced row of the rendered document.
type RequisitionLine struct {
	Description string
	Unit        string
	Quantity    string
	UnitPrice   string
	Subtotal    string
}

// RequisitionDocument carries everything the renderer needs; it has no
// behaviour and producing it causes no side effect on workflow state.
type RequisitionDocument struct {
	Identifier        string
	RequestIdentifier string
	SupplierName      string
	IssuedAt          string
	Lines             []RequisitionLine
	Freight           string
	Total             string
	ClerkSigner       string
	DirectorSigner    string
}

// RequisitionRenderer renders material requisitions as PDF bytes.
type RequisitionRenderer struct{}

// NewRequisitionRenderer constructs the renderer.
func NewRequisitionRenderer() *RequisitionRenderer {
	return &RequisitionRenderer{}
}

// Render produces the requisition PDF using the given letterhead.
func (r *RequisitionRenderer) Render(doc RequisitionDocument, header CompanyHeader) ([]byte, error) {
	if doc.Identifier == "" {
		return nil, fmt.Errorf("requisition identifier is required")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, header.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, header.Address, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("%s - %s - %s", header.TaxID, header.Phone, header.Email), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("MATERIAL REQUISITION %s", doc.Identifier), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Purchase request %s - Supplier: %s - Issued: %s",
		doc.RequestIdentifier, doc.SupplierName, doc.IssuedAt), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	widths := []float64{80, 20, 25, 30, 35}
	headers := []string{"Description", "Unit", "Qty", "Unit price", "Subtotal"}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, line := range doc.Lines {
		pdf.CellFormat(widths[0], 6, line.Description, "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 6, line.Unit, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, line.Quantity, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, line.UnitPrice, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, line.Subtotal, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(155, 6, "Freight", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, doc.Freight, "1", 1, "R", false, 0, "")
	pdf.CellFormat(155, 6, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, doc.Total, "1", 1, "R", false, 0, "")

	pdf.Ln(16)
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(95, 5, "_________________________", "", 0, "C", false, 0, "")
	pdf.CellFormat(95, 5, "_________________________", "", 1, "C", false, 0, "")
	pdf.CellFormat(95, 5, doc.ClerkSigner, "", 0, "C", false, 0, "")
	pdf.CellFormat(95, 5, doc.DirectorSigner, "", 1, "C", false, 0, "")
	pdf.CellFormat(95, 5, "Office storekeeper", "", 0, "C", false, 0, "")
	pdf.CellFormat(95, 5, "Director", "", 1, "C", false, 0, "")

	if header.City != "" {
		pdf.Ln(6)
		pdf.CellFormat(0, 5, fmt.Sprintf("%s, %s", header.City, doc.IssuedAt), "", 1, "R", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render requisition pdf: %w", err)
	}
	return buf.Bytes(), nil
}
