// Package excelexport renders the invoice register as a styled XLSX workbook.
package excelexport

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"fapiao/internal/domain"
)

const sheet = "发票记录"

var headers = []string{
	"文件名",
	"发票号码",
	"开票日期",
	"发票类型",
	"销售方名称",
	"销售方税号",
	"购买方名称",
	"购买方税号",
	"不含税金额",
	"税额",
	"价税合计",
	"发票内容",
	"置信度",
	"是否有效",
	"错误原因",
}

// Build returns an XLSX workbook for the invoice register: a styled header
// row, one row per invoice, and a summary row with counts and the valid
// total.
func Build(invoices []domain.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("excelexport: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("excelexport: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("excelexport: header style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, "A1", endHeader, headerStyle)

	row := 2
	validCount := 0
	validTotal := 0.0
	for i := range invoices {
		inv := &invoices[i]
		write := func(col int, v interface{}) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, inv.FileName)
		write(2, inv.InvoiceNumber)
		write(3, inv.InvoiceDate)
		write(4, string(inv.InvoiceType))
		write(5, inv.SellerName)
		write(6, inv.SellerTaxNumber)
		write(7, inv.BuyerName)
		write(8, inv.BuyerTaxNumber)
		writeAmount(write, 9, inv.AmountWithoutTax)
		writeAmount(write, 10, inv.TaxAmount)
		writeAmount(write, 11, inv.TotalAmount)
		write(12, inv.InvoiceContent)
		write(13, inv.ConfidenceScore)
		if inv.IsValid {
			write(14, "是")
		} else {
			write(14, "否")
		}
		write(15, inv.ErrorReason)

		if inv.IsValid {
			validCount++
			if inv.TotalAmount != nil {
				validTotal += *inv.TotalAmount
			}
		}
		row++
	}

	// Summary row
	write := func(col int, v interface{}) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
	write(1, fmt.Sprintf("合计: %d 张 (有效 %d 张)", len(invoices), validCount))
	write(11, validTotal)

	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "B", 22)
	_ = f.SetColWidth(sheet, "C", "C", 12)
	_ = f.SetColWidth(sheet, "D", "D", 10)
	_ = f.SetColWidth(sheet, "E", "H", 30)
	_ = f.SetColWidth(sheet, "I", "K", 12)
	_ = f.SetColWidth(sheet, "L", "L", 24)
	_ = f.SetColWidth(sheet, "O", "O", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excelexport: write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeAmount(write func(int, interface{}), col int, v *float64) {
	if v != nil {
		write(col, *v)
	}
}

// BuildFilename returns a filename for the Content-Disposition header.
// Format: invoices_{YYYY-MM-DD}.xlsx
func BuildFilename() string {
	return fmt.Sprintf("invoices_%s.xlsx", time.Now().Format("2006-01-02"))
}
