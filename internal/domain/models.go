package domain

import (
	"time"

	"github.com/google/uuid"
)

// Invoice represents one recognized source document and everything the
// pipeline knows about it.
type Invoice struct {
	ID                  uuid.UUID     `db:"id" json:"id"`
	FilePath            string        `db:"file_path" json:"file_path"`
	FileName            string        `db:"file_name" json:"file_name"`
	FileType            FileType      `db:"file_type" json:"file_type"`
	InvoiceNumber       string        `db:"invoice_number" json:"invoice_number"`
	InvoiceDate         string        `db:"invoice_date" json:"invoice_date"`
	SellerName          string        `db:"seller_name" json:"seller_name"`
	SellerTaxNumber     string        `db:"seller_tax_number" json:"seller_tax_number"`
	BuyerName           string        `db:"buyer_name" json:"buyer_name"`
	BuyerTaxNumber      string        `db:"buyer_tax_number" json:"buyer_tax_number"`
	TotalAmount         *float64      `db:"total_amount" json:"total_amount"`
	TaxAmount           *float64      `db:"tax_amount" json:"tax_amount"`
	AmountWithoutTax    *float64      `db:"amount_without_tax" json:"amount_without_tax"`
	InvoiceContent      string        `db:"invoice_content" json:"invoice_content"`
	InvoiceType         InvoiceType   `db:"invoice_type" json:"invoice_type"`
	RawText             string        `db:"raw_text" json:"raw_text,omitempty"`
	IsValid             bool          `db:"is_valid" json:"is_valid"`
	ConfidenceScore     float64       `db:"confidence_score" json:"confidence_score"`
	ErrorReason         string        `db:"error_reason" json:"error_reason"`
	ErrorCategory       ErrorCategory `db:"error_category" json:"error_category"`
	RecognitionAttempts int           `db:"recognition_attempts" json:"recognition_attempts"`
	ArchiveBucket       string        `db:"archive_bucket" json:"archive_bucket,omitempty"`
	ArchiveKey          string        `db:"archive_key" json:"archive_key,omitempty"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

// InvoiceFilter narrows List queries.
type InvoiceFilter struct {
	InvoiceType *InvoiceType
	IsValid     *bool
	DateFrom    string
	DateTo      string
	Offset      int
	Limit       int
}

// InvoiceStats aggregates the processed corpus.
type InvoiceStats struct {
	Total         int64            `db:"total" json:"total"`
	Valid         int64            `db:"valid" json:"valid"`
	Invalid       int64            `db:"invalid" json:"invalid"`
	AvgConfidence float64          `db:"avg_confidence" json:"avg_confidence"`
	TotalAmount   float64          `db:"total_amount" json:"total_amount"`
	ByType        map[string]int64 `json:"by_type"`
	ByCategory    map[string]int64 `json:"by_category"`
}
