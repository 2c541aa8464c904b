package report

import (
	"bytes"
	"fmt"
	"strings"

	"scanstock-backend/internal/domain"
	"github.com/jung-kurt/gofpdf"
)

// ReceiptPDF renders a single sale as a narrow till-style receipt. business may be nil.
func ReceiptPDF(sale domain.Sale, business *domain.Business) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: 80, Ht: 200},
	})
	pdf.SetMargins(5, 5, 5)
	pdf.SetAutoPageBreak(true, 5)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := "Receipt"
	if business != nil && business.Name != "" {
		title = business.Name
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 6, tr(title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	if business != nil {
		for _, line := range []string{business.Address, joinNonEmpty(", ", business.City, business.State, business.PostalCode), business.PhoneNumber} {
			if line != "" {
				pdf.CellFormat(0, 4, tr(line), "", 1, "C", false, 0, "")
			}
		}
	}
	pdf.Ln(2)

	pdf.CellFormat(0, 4, tr("Receipt: "+sale.ReceiptNumber), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 4, "Date: "+sale.CreatedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 4, "Payment: "+string(sale.PaymentMethod), "", 1, "L", false, 0, "")
	if sale.CustomerName != "" {
		pdf.CellFormat(0, 4, tr("Customer: "+sale.CustomerName), "", 1, "L", false, 0, "")
	}
	if sale.Status != domain.SaleCompleted {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(0, 5, strings.ToUpper(string(sale.Status)), "", 1, "C", false, 0, "")
		pdf.SetFont("Arial", "", 8)
	}
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 8)
	pdf.CellFormat(34, 5, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(8, 5, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(14, 5, "Price", "B", 0, "R", false, 0, "")
	pdf.CellFormat(14, 5, "Total", "B", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	for _, it := range sale.Items {
		name := it.ProductName
		if name == "" {
			name = "Item"
		}
		pdf.CellFormat(34, 5, tr(truncate(name, 22)), "", 0, "L", false, 0, "")
		pdf.CellFormat(8, 5, fmt.Sprintf("%d", it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(14, 5, it.Price.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(14, 5, it.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(42, 7, "TOTAL", "T", 0, "L", false, 0, "")
	pdf.CellFormat(28, 7, sale.Total.StringFixed(2), "T", 1, "R", false, 0, "")
	if sale.Notes != "" {
		pdf.SetFont("Arial", "I", 8)
		pdf.MultiCell(0, 4, tr(sale.Notes), "", "L", false)
	}
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(0, 4, "Thank you for your purchase!", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
