package notify

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/fjod/go_shop/internal/domain"
)

// PDFInvoice renders an invoice from the order's persisted snapshot.
type PDFInvoice struct{}

var _ InvoiceRenderer = PDFInvoice{}

func (PDFInvoice) Render(order *domain.Order) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Invoice %s", order.ID))
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("%s %s", order.FirstName, order.LastName))
	pdf.Ln(6)
	pdf.Cell(0, 6, order.Address)
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("%s %s", order.PostalCode, order.City))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(90, 7, "Product", "B", 0, "L", false, 0, "")
	pdf.CellFormat(25, 7, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Unit price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Cost", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, item := range order.Items {
		pdf.CellFormat(90, 7, item.ProductName, "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprint(item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, item.Price.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, item.Cost().StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.CellFormat(150, 7, "Subtotal", "T", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, order.TotalBeforeDiscount().StringFixed(2), "T", 1, "R", false, 0, "")
	if order.Discount > 0 {
		pdf.CellFormat(150, 7, fmt.Sprintf("Discount (%d%%)", order.Discount), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, "-"+order.DiscountAmount().StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(150, 7, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, order.TotalAfterDiscount().StringFixed(2), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
