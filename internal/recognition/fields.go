package recognition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	companyPattern     = regexp.MustCompile(`([^，。！？\s]{2,}(?:有限公司|股份有限公司|集团|公司|企业|商店|商行|厂|店))`)
	companyLinePattern = regexp.MustCompile(`([^，。！？\s]{3,50}(?:有限公司|股份有限公司|集团|公司|企业|商店|商行|厂|店))`)
	companyPrefixClean = regexp.MustCompile(`^[名称：:\s]+`)
	dateComponents     = regexp.MustCompile(`(\d{4})[年\-/](\d{1,2})[月\-/](\d{1,2})日?`)
	taxNumberPattern   = regexp.MustCompile(`[A-Z0-9]{15,20}`)
	fuelSellerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`销售方[：:\s]*名称[：:\s]*([^，。！？\n\r\t购买方]{5,50}(?:有限公司|股份有限公司|集团|公司|企业|商店|商行|厂|店))`),
		regexp.MustCompile(`销\s*售\s*方[：:\s]*([^，。！？\n\r\t购买方]{5,50}(?:有限公司|股份有限公司|集团|公司|企业|商店|商行|厂|店))`),
		regexp.MustCompile(`([^，。！？\s购买方]{2,30}(?:加油站|石油|能源|燃气)(?:有限公司|股份有限公司|集团|公司|企业))`),
		regexp.MustCompile(`纳税人识别号[：:\s]*[A-Z0-9]{15,20}[^购买方]*?([^，。！？\n\r\t购买方]{5,50}(?:有限公司|股份有限公司|集团|公司|企业|商店|商行|厂|店))`),
		regexp.MustCompile(`开户行及账号[：:\s]*[^销售方]*?([^，。！？\n\r\t购买方]{5,50}(?:有限公司|股份有限公司|集团|公司|企业|商店|商行|厂|店))`),
	}
)

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// extractNumber finds the invoice number, preferring labeled matches and
// falling back to a bare number of the layout's expected width.
func extractNumber(text string, p *PatternProfile, fs *FieldSet) {
	for _, re := range numberLabelPatterns {
		if n := firstGroup(re, text); n != "" {
			fs.InvoiceNumber = n
			return
		}
	}
	if m := p.numberFallback.FindStringSubmatch(text); m != nil {
		fs.InvoiceNumber = m[1]
	}
}

// normalizeDate converts 2024年3月5日, 2024-3-5 and 2024/3/5 forms to
// zero-padded ISO YYYY-MM-DD.
func normalizeDate(s string) string {
	m := dateComponents.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return s
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func extractDate(text string, fs *FieldSet) {
	for _, re := range datePatterns {
		if d := firstGroup(re, text); d != "" {
			fs.InvoiceDate = normalizeDate(d)
			return
		}
	}
}

func cleanCompanyName(s string) string {
	return strings.TrimSpace(companyPrefixClean.ReplaceAllString(s, ""))
}

// extractCompanies assigns buyer and seller names according to the layout:
// standard invoices list the buyer before the seller, fuel invoices carry the
// buyer in the top block and the seller in a dense table below.
func extractCompanies(text string, p *PatternProfile, ident Identity, fs *FieldSet) {
	if p.fuelLayout {
		extractCompaniesFuel(text, ident, fs)
		return
	}
	extractCompaniesStandard(text, ident, fs)
}

func extractCompaniesStandard(text string, ident Identity, fs *FieldSet) {
	var names []string
	for _, m := range companyPattern.FindAllStringSubmatch(text, -1) {
		name := cleanCompanyName(m[1])
		if runeLen(name) > 3 {
			names = append(names, name)
		}
	}

	switch {
	case len(names) >= 2:
		buyer, seller := names[0], names[1]
		// The configured buyer is always the buyer regardless of position.
		if strings.Contains(seller, ident.CompanyName) {
			buyer, seller = seller, buyer
		}
		fs.BuyerName = buyer
		fs.SellerName = seller
	case len(names) == 1:
		if strings.Contains(names[0], ident.CompanyName) {
			fs.BuyerName = names[0]
		}
	}
}

func extractCompaniesFuel(text string, ident Identity, fs *FieldSet) {
	if strings.Contains(text, ident.CompanyName) {
		fs.BuyerName = ident.CompanyName
	}

	for _, re := range fuelSellerPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			name := cleanCompanyName(m[1])
			if runeLen(name) >= 5 &&
				!strings.Contains(name, ident.CompanyName) &&
				!strings.Contains(name, "购买方") &&
				!strings.Contains(name, "买方") &&
				!strings.Contains(name, "纳税人") {
				fs.SellerName = name
				return
			}
		}
	}

	extractSellerByLine(text, ident, fs)
}

// extractSellerByLine scans line by line for a seller candidate when the
// labeled patterns found nothing, preferring names with a fuel-trade term.
func extractSellerByLine(text string, ident Identity, fs *FieldSet) {
	var candidates []string
	for _, line := range strings.Split(text, "\n") {
		for _, m := range companyLinePattern.FindAllStringSubmatch(line, -1) {
			name := cleanCompanyName(m[1])
			if runeLen(name) >= 5 &&
				!strings.Contains(name, ident.CompanyName) &&
				!strings.Contains(name, "购买方") &&
				!strings.Contains(name, "买方") {
				candidates = append(candidates, name)
			}
		}
	}
	if len(candidates) == 0 {
		return
	}

	fuelTerms := []string{"加油站", "石油", "能源", "燃气", "中石化", "中石油"}
	for _, name := range candidates {
		for _, term := range fuelTerms {
			if strings.Contains(name, term) {
				fs.SellerName = name
				return
			}
		}
	}
	fs.SellerName = candidates[0]
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// extractTaxNumbers picks the buyer and seller tax numbers out of every
// 15-20 char alphanumeric run, dropping 20-digit pure numbers which are
// invoice numbers, and correcting OCR-mangled buyer tax numbers that still
// carry the registration prefix.
func extractTaxNumbers(text string, ident Identity, fs *FieldSet) {
	var candidates []string
	for _, tax := range taxNumberPattern.FindAllString(text, -1) {
		if len(tax) == 20 && isAllDigits(tax) {
			continue
		}
		candidates = append(candidates, tax)
	}

	prefix := ident.TaxNumber
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}

	for _, tax := range candidates {
		if tax == ident.TaxNumber {
			fs.BuyerTaxNumber = ident.TaxNumber
			break
		}
	}
	if fs.BuyerTaxNumber == "" && prefix != "" {
		for _, tax := range candidates {
			if strings.HasPrefix(tax, prefix) && len(tax) >= 15 {
				fs.BuyerTaxNumber = ident.TaxNumber
				break
			}
		}
	}

	for _, tax := range candidates {
		if tax != fs.BuyerTaxNumber && (prefix == "" || !strings.HasPrefix(tax, prefix)) {
			if len(tax) >= 15 && !isAllDigits(tax) {
				fs.SellerTaxNumber = tax
				break
			}
		}
	}
	if fs.SellerTaxNumber == "" {
		for _, tax := range candidates {
			if tax != fs.BuyerTaxNumber && (prefix == "" || !strings.HasPrefix(tax, prefix)) {
				fs.SellerTaxNumber = tax
				break
			}
		}
	}
}

// extractContent finds the line-item description for the invoice.
func extractContent(text string, p *PatternProfile, fs *FieldSet) {
	if p.contentNeedsOil {
		for _, re := range p.content {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				content := strings.TrimSpace(m[1])
				if runeLen(content) > 2 && strings.Contains(content, "油") {
					fs.InvoiceContent = content
					return
				}
			}
		}
		// Fall back to the standard labels.
		for _, re := range standardContentPatterns {
			if c := strings.TrimSpace(firstGroup(re, text)); runeLen(c) > 1 {
				fs.InvoiceContent = c
				return
			}
		}
		return
	}

	for _, re := range p.content {
		if c := strings.TrimSpace(firstGroup(re, text)); runeLen(c) > 1 {
			fs.InvoiceContent = c
			return
		}
	}
}
