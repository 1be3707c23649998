package recognition

import (
	"regexp"
	"strings"

	"fapiao/internal/domain"
)

// Keyword sets for invoice type classification. Fuel wins over special wins
// over electronic; electronic is the default.
var (
	fuelKeywords       = []string{"成品油", "加油", "汽油", "柴油", "燃油", "石油", "中石化", "中石油", "加油站", "能源"}
	specialKeywords    = []string{"增值税专用发票", "专用发票"}
	electronicKeywords = []string{"电子发票", "通用发票", "电子普通发票"}
)

// Classify determines the invoice type from keywords in the raw text.
func Classify(text string) domain.InvoiceType {
	for _, kw := range fuelKeywords {
		if strings.Contains(text, kw) {
			return domain.InvoiceTypeFuel
		}
	}
	for _, kw := range specialKeywords {
		if strings.Contains(text, kw) {
			return domain.InvoiceTypeSpecial
		}
	}
	for _, kw := range electronicKeywords {
		if strings.Contains(text, kw) {
			return domain.InvoiceTypeElectronic
		}
	}
	return domain.InvoiceTypeElectronic
}

// Shared label patterns, independent of layout.
var (
	numberLabelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`发票号码[：:]\s*(\d{8,20})`),
		regexp.MustCompile(`号码[：:]\s*(\d{8,20})`),
		regexp.MustCompile(`Invoice\s*No[：:]\s*(\d{8,20})`),
	}
	shortNumberPattern = regexp.MustCompile(`\b(\d{8,12})\b`)
	longNumberPattern  = regexp.MustCompile(`\b(\d{20})\b`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`开票日期[：:]\s*(\d{4}年\d{1,2}月\d{1,2}日)`),
		regexp.MustCompile(`开票日期[：:]\s*(\d{4}-\d{1,2}-\d{1,2})`),
		regexp.MustCompile(`(\d{4}年\d{1,2}月\d{1,2}日)`),
	}
)

// Layout-specific amount patterns.
var (
	standardSmallCasePatterns = []*regexp.Regexp{
		regexp.MustCompile(`小写[：:]*\s*¥\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`\(小写\)\s*¥\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`小写.*?¥\s*([\d,]+\.?\d*)`),
	}
	fuelSmallCasePatterns = []*regexp.Regexp{
		regexp.MustCompile(`[（(]小写[）)]\s*¥\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`小写[：:]*\s*¥\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`小写.*?¥\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`小写[：:\s]*(\d+\.\d{2})`),
		regexp.MustCompile(`小写[：:\s]*(\d+)`),
	}
	grandTotalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`价税合计\s*[（(]大写[）)]\s*.*?[（(]小写[）)]\s*¥\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`价税合计.*?¥\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`合计.*?¥\s*([\d,]+\.?\d*)`),
		regexp.MustCompile(`价税合计[：:\s]*(\d+\.\d{2})`),
		regexp.MustCompile(`合\s*计[：:\s]*(\d+\.\d{2})`),
	}
)

// Content patterns.
var (
	standardContentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`项目名称[：:]\s*([^\n\r\t]+)`),
		regexp.MustCompile(`货物或应税劳务、服务名称[：:]\s*([^\n\r\t]+)`),
		regexp.MustCompile(`货物或应税劳务名称[：:]\s*([^\n\r\t]+)`),
		regexp.MustCompile(`商品名称[：:]\s*([^\n\r\t]+)`),
	}
	fuelContentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`货物或应税劳务、服务名称[：:]\s*([^\n\r\t]+)`),
		regexp.MustCompile(`(汽油\d+号[^，。！？\n\r\t]*)`),
		regexp.MustCompile(`(柴油[^，。！？\n\r\t]*)`),
		regexp.MustCompile(`(成品油[^，。！？\n\r\t]*)`),
		regexp.MustCompile(`([^，。！？\s]*油[^，。！？\n\r\t]*)`),
	}
)

// PatternProfile bundles the layout-specific pattern variants for one invoice
// type. It is selected once per document, right after classification, and
// threaded through every extraction step.
type PatternProfile struct {
	Type domain.InvoiceType

	// numberFallback finds a bare invoice number when no label matched.
	numberFallback *regexp.Regexp

	smallCase  []*regexp.Regexp
	grandTotal []*regexp.Regexp
	// tableScan enables the line-table heuristic used by dense fuel layouts.
	tableScan bool

	// fuelLayout switches company extraction to the buyer-on-top layout.
	fuelLayout bool

	content []*regexp.Regexp
	// contentNeedsOil requires a fuel product term before a content match is
	// accepted, with the standard patterns as fallback.
	contentNeedsOil bool
}

func profileFor(t domain.InvoiceType) *PatternProfile {
	if t == domain.InvoiceTypeFuel {
		return &PatternProfile{
			Type:            t,
			numberFallback:  shortNumberPattern,
			smallCase:       fuelSmallCasePatterns,
			grandTotal:      grandTotalPatterns,
			tableScan:       true,
			fuelLayout:      true,
			content:         fuelContentPatterns,
			contentNeedsOil: true,
		}
	}
	return &PatternProfile{
		Type:           t,
		numberFallback: longNumberPattern,
		smallCase:      standardSmallCasePatterns,
		grandTotal:     grandTotalPatterns,
		content:        standardContentPatterns,
	}
}
