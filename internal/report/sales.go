// Package report renders sales as CSV, XLSX and printable PDF receipts.
package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"scanstock-backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

var salesHeader = []string{"ID", "Receipt Number", "Date", "Status", "Payment Method", "Customer", "Items", "Quantity", "Total", "Notes"}

// SalesCSV renders one row per sale.
func SalesCSV(sales []domain.Sale) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write(salesHeader)
	for _, s := range sales {
		_ = w.Write([]string{
			strconv.FormatInt(s.ID, 10),
			s.ReceiptNumber,
			s.CreatedAt.UTC().Format(time.RFC3339),
			string(s.Status),
			string(s.PaymentMethod),
			s.CustomerName,
			strconv.Itoa(len(s.Items)),
			strconv.Itoa(domain.ItemsQuantity(s.Items)),
			s.Total.StringFixed(2),
			s.Notes,
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// SalesXLSX renders a "Sales" sheet with one row per sale and an "Items" sheet
// with one row per line item.
func SalesXLSX(sales []domain.Sale) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sales"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for c, v := range salesHeader {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, s := range sales {
		row := r + 2
		total, _ := s.Total.Round(2).Float64()
		values := []any{
			s.ID,
			s.ReceiptNumber,
			s.CreatedAt.UTC().Format("2006-01-02 15:04"),
			string(s.Status),
			string(s.PaymentMethod),
			s.CustomerName,
			len(s.Items),
			domain.ItemsQuantity(s.Items),
			total,
			s.Notes,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 8)
	_ = f.SetColWidth(sheet, "B", "B", 26)
	_ = f.SetColWidth(sheet, "C", "C", 18)
	_ = f.SetColWidth(sheet, "D", "E", 14)
	_ = f.SetColWidth(sheet, "F", "F", 24)
	_ = f.SetColWidth(sheet, "G", "H", 10)
	_ = f.SetColWidth(sheet, "I", "I", 12)
	_ = f.SetColWidth(sheet, "J", "J", 30)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	_ = f.SetCellStyle(sheet, "A1", "J1", style)
	money, _ := f.NewStyle(&excelize.Style{NumFmt: 2})
	if len(sales) > 0 {
		_ = f.SetCellStyle(sheet, "I2", "I"+strconv.Itoa(len(sales)+1), money)
	}

	if err := writeItemsSheet(f, sales, style, money); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeItemsSheet(f *excelize.File, sales []domain.Sale, headerStyle, moneyStyle int) error {
	sheet := "Items"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []string{"Receipt Number", "Product", "Barcode", "Quantity", "Price", "Subtotal"}
	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	row := 2
	for _, s := range sales {
		for _, it := range s.Items {
			price, _ := it.Price.Float64()
			subtotal, _ := it.Subtotal.Float64()
			values := []any{s.ReceiptNumber, it.ProductName, it.ProductBarcode, it.Quantity, price, subtotal}
			for c, v := range values {
				cell, _ := excelize.CoordinatesToCellName(c+1, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			row++
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 26)
	_ = f.SetColWidth(sheet, "B", "B", 30)
	_ = f.SetColWidth(sheet, "C", "C", 18)
	_ = f.SetColWidth(sheet, "D", "F", 12)
	_ = f.SetCellStyle(sheet, "A1", "F1", headerStyle)
	if row > 2 {
		_ = f.SetCellStyle(sheet, "E2", "F"+strconv.Itoa(row-1), moneyStyle)
	}
	return nil
}
