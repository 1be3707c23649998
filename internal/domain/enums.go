package domain

// InvoiceType identifies which pattern family applies to a document.
// It is derived once from a keyword scan of the raw text and never changes
// for the remainder of the pipeline.
type InvoiceType string

const (
	InvoiceTypeElectronic InvoiceType = "electronic"
	InvoiceTypeSpecial    InvoiceType = "special"
	InvoiceTypeFuel       InvoiceType = "fuel"
)

// FileType represents the allowed source file types.
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeImage FileType = "image"
)

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeImage,
	"image/png":       FileTypeImage,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeImage,
	"jpeg": FileTypeImage,
	"png":  FileTypeImage,
	"bmp":  FileTypeImage,
	"tif":  FileTypeImage,
	"tiff": FileTypeImage,
}

// ErrorCategory classifies why a document failed quality evaluation. It also
// names the quarantine subdirectory the source file is relocated into.
type ErrorCategory string

const (
	CategoryMissingCriticalFields ErrorCategory = "missing_critical_fields"
	CategoryValidationFailed      ErrorCategory = "validation_failed"
	CategoryParsingErrors         ErrorCategory = "parsing_errors"
	CategoryLowConfidence         ErrorCategory = "low_confidence"
	CategoryManualReview          ErrorCategory = "manual_review"
)

// AllErrorCategories lists every quarantine category, in routing order.
var AllErrorCategories = []ErrorCategory{
	CategoryMissingCriticalFields,
	CategoryValidationFailed,
	CategoryParsingErrors,
	CategoryLowConfidence,
	CategoryManualReview,
}
