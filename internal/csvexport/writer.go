package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"fapiao/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (17 columns).
var columns = []string{
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
	"识别次数",
	"处理时间",
}

// Writer wraps csv.Writer for exporting invoices as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteInvoices converts a batch of invoices to CSV rows and writes them.
func (w *Writer) WriteInvoices(invoices []domain.Invoice) error {
	for i := range invoices {
		row := invoiceToRow(&invoices[i])
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// invoiceToRow converts a single invoice to a 17-element string slice.
// Unrecognized amount fields are left empty rather than written as zero.
func invoiceToRow(inv *domain.Invoice) []string {
	row := make([]string, len(columns))
	row[0] = inv.FileName
	row[1] = inv.InvoiceNumber
	row[2] = inv.InvoiceDate
	row[3] = string(inv.InvoiceType)
	row[4] = inv.SellerName
	row[5] = inv.SellerTaxNumber
	row[6] = inv.BuyerName
	row[7] = inv.BuyerTaxNumber
	row[8] = formatMoney(inv.AmountWithoutTax)
	row[9] = formatMoney(inv.TaxAmount)
	row[10] = formatMoney(inv.TotalAmount)
	row[11] = inv.InvoiceContent
	row[12] = strconv.FormatFloat(inv.ConfidenceScore, 'f', 2, 64)
	row[13] = formatBool(inv.IsValid)
	row[14] = inv.ErrorReason
	row[15] = strconv.Itoa(inv.RecognitionAttempts)
	row[16] = inv.CreatedAt.Format(time.RFC3339)
	return row
}

func formatMoney(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatBool(v bool) string {
	if v {
		return "是"
	}
	return "否"
}

// BuildFilename returns a filename for the Content-Disposition header.
// Format: invoices_{YYYY-MM-DD}.csv
func BuildFilename() string {
	return fmt.Sprintf("invoices_%s.csv", time.Now().Format("2006-01-02"))
}
