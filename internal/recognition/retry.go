package recognition

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Looser fallback patterns used only by the correction passes.
var (
	retryNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`发票号码[：:\s]*(\d{8,12})`),
		regexp.MustCompile(`No[：:\s]*(\d{8,12})`),
		regexp.MustCompile(`号码[：:\s]*(\d{8,12})`),
		regexp.MustCompile(`(\d{8,12})`),
	}
	retryDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`开票日期[：:\s]*(\d{4}年\d{1,2}月\d{1,2}日)`),
		regexp.MustCompile(`开票日期[：:\s]*(\d{4}-\d{1,2}-\d{1,2})`),
		regexp.MustCompile(`开票日期[：:\s]*(\d{4}/\d{1,2}/\d{1,2})`),
		regexp.MustCompile(`日期[：:\s]*(\d{4}年\d{1,2}月\d{1,2}日)`),
		regexp.MustCompile(`(\d{4}年\d{1,2}月\d{1,2}日)`),
		regexp.MustCompile(`(\d{4}-\d{1,2}-\d{1,2})`),
		regexp.MustCompile(`(\d{4}/\d{1,2}/\d{1,2})`),
	}
	retrySellerStandardPatterns = []*regexp.Regexp{
		regexp.MustCompile(`销售方[：:\s]*([^购买方\n]{5,50})`),
		regexp.MustCompile(`卖方[：:\s]*([^购买方\n]{5,50})`),
		regexp.MustCompile(`开票方[：:\s]*([^购买方\n]{5,50})`),
	}
	retrySellerFuelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`销售方[：:\s]*([^购买方\n]{5,30})`),
		regexp.MustCompile(`开户行及账号[：:\s]*[^销售方]*销售方[：:\s]*([^购买方\n]{5,30})`),
		regexp.MustCompile(`([^购买方\n]*加油站[^购买方\n]*)`),
		regexp.MustCompile(`([^购买方\n]*石油[^购买方\n]*)`),
		regexp.MustCompile(`([^购买方\n]*能源[^购买方\n]*)`),
	}
	retryBuyerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`购买方[：:\s]*([^销售方\n]{5,50})`),
		regexp.MustCompile(`买方[：:\s]*([^销售方\n]{5,50})`),
		regexp.MustCompile(`购买方[：:\s]*纳税人识别号[：:\s]*[^销售方]*([^销售方\n]{5,50})`),
	}
	retryAmountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`小写[：:\s]*¥?(\d+\.?\d*)`),
		regexp.MustCompile(`价税合计[：:\s]*¥?(\d+\.?\d*)`),
		regexp.MustCompile(`合计[：:\s]*¥?(\d+\.?\d*)`),
		regexp.MustCompile(`总金额[：:\s]*¥?(\d+\.?\d*)`),
		regexp.MustCompile(`¥(\d+\.?\d*)`),
	}
)

// retryPass runs one correction round over the still-missing fields. It is a
// pure reduction step: the input FieldSet is copied, the remaining missing
// set is returned alongside the updated copy.
func retryPass(text string, p *PatternProfile, ident Identity, fs FieldSet, missing []string) (FieldSet, []string) {
	for _, field := range missing {
		switch field {
		case FieldInvoiceNumber:
			retryNumber(text, &fs)
		case FieldInvoiceDate:
			retryDate(text, &fs)
		case FieldSellerName:
			retrySeller(text, p, ident, &fs)
		case FieldBuyerName:
			retryBuyer(text, ident, &fs)
		case FieldTotalAmount:
			retryTotal(text, &fs)
		}
	}

	var remaining []string
	for _, field := range missing {
		if fs.Missing(field) {
			remaining = append(remaining, field)
		}
	}
	return fs, remaining
}

func retryNumber(text string, fs *FieldSet) {
	for _, re := range retryNumberPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if n := m[1]; len(n) >= 8 && len(n) <= 12 {
				fs.InvoiceNumber = n
				return
			}
		}
	}
}

func retryDate(text string, fs *FieldSet) {
	for _, re := range retryDatePatterns {
		if d := firstGroup(re, text); d != "" {
			fs.InvoiceDate = normalizeDate(d)
			return
		}
	}
}

func retrySeller(text string, p *PatternProfile, ident Identity, fs *FieldSet) {
	patterns := retrySellerStandardPatterns
	if p.fuelLayout || strings.Contains(text, "加油") {
		patterns = retrySellerFuelPatterns
	}
	for _, re := range patterns {
		if s := strings.TrimSpace(firstGroup(re, text)); s != "" {
			if utf8.RuneCountInString(s) >= 5 && !strings.Contains(s, ident.CompanyName) {
				fs.SellerName = s
				return
			}
		}
	}
}

func retryBuyer(text string, ident Identity, fs *FieldSet) {
	for _, re := range retryBuyerPatterns {
		if b := strings.TrimSpace(firstGroup(re, text)); b != "" {
			if utf8.RuneCountInString(b) >= 5 {
				fs.BuyerName = b
				return
			}
		}
	}
	if strings.Contains(text, ident.CompanyName) {
		fs.BuyerName = ident.CompanyName
	}
}

func retryTotal(text string, fs *FieldSet) {
	for _, re := range retryAmountPatterns {
		best := 0.0
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if v, ok := parseAmount(m[1]); ok && v > best {
				best = v
			}
		}
		if best > 0 {
			fs.TotalAmount = ptr(round2(best))
			return
		}
	}
}
