package recognition

import "fapiao/internal/domain"

// Field names used for retry bookkeeping and error reporting.
const (
	FieldInvoiceNumber = "invoice_number"
	FieldInvoiceDate   = "invoice_date"
	FieldSellerName    = "seller_name"
	FieldBuyerName     = "buyer_name"
	FieldTotalAmount   = "total_amount"
)

// CriticalFields are the fields the correction engine retries when missing.
var CriticalFields = []string{
	FieldInvoiceNumber,
	FieldInvoiceDate,
	FieldSellerName,
	FieldBuyerName,
	FieldTotalAmount,
}

// FieldSet is the result of one extraction run over a document's raw text.
// String fields are empty when unrecognized; amount fields are nil when
// unrecognized (a present zero tax amount is meaningful for tax-exempt
// invoices).
type FieldSet struct {
	InvoiceNumber       string             `json:"invoice_number"`
	InvoiceDate         string             `json:"invoice_date"`
	SellerName          string             `json:"seller_name"`
	SellerTaxNumber     string             `json:"seller_tax_number"`
	BuyerName           string             `json:"buyer_name"`
	BuyerTaxNumber      string             `json:"buyer_tax_number"`
	AmountWithoutTax    *float64           `json:"amount_without_tax"`
	TaxAmount           *float64           `json:"tax_amount"`
	TotalAmount         *float64           `json:"total_amount"`
	InvoiceContent      string             `json:"invoice_content"`
	InvoiceType         domain.InvoiceType `json:"invoice_type"`
	RecognitionAttempts int                `json:"recognition_attempts"`
}

// NumFields is the size of the field set used as the completeness denominator.
const NumFields = 12

func isBlank(s string) bool {
	return s == "" || s == "未识别" || s == "未知"
}

// Missing reports whether the named field carries no usable value.
func (f *FieldSet) Missing(name string) bool {
	switch name {
	case FieldInvoiceNumber:
		return isBlank(f.InvoiceNumber)
	case FieldInvoiceDate:
		return isBlank(f.InvoiceDate)
	case FieldSellerName:
		return isBlank(f.SellerName)
	case FieldBuyerName:
		return isBlank(f.BuyerName)
	case FieldTotalAmount:
		return f.TotalAmount == nil
	}
	return true
}

// FilledCount returns how many of the fields carry a value.
func (f *FieldSet) FilledCount() int {
	n := 0
	for _, s := range []string{
		f.InvoiceNumber, f.InvoiceDate,
		f.SellerName, f.SellerTaxNumber,
		f.BuyerName, f.BuyerTaxNumber,
		f.InvoiceContent, string(f.InvoiceType),
	} {
		if !isBlank(s) {
			n++
		}
	}
	for _, a := range []*float64{f.AmountWithoutTax, f.TaxAmount, f.TotalAmount} {
		if a != nil {
			n++
		}
	}
	if f.RecognitionAttempts > 0 {
		n++
	}
	return n
}

// MissingCritical returns the critical fields without a value, in the fixed
// retry order.
func (f *FieldSet) MissingCritical() []string {
	var missing []string
	for _, name := range CriticalFields {
		if f.Missing(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func ptr(v float64) *float64 { return &v }
