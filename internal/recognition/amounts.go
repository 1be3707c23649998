package recognition

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	minPlausibleAmount = 0.01
	maxPlausibleAmount = 999999.99
	amountTolerance    = 0.01
)

// taxRates are the statutory VAT rates tried during inference, highest first.
var taxRates = []float64{0.13, 0.09, 0.06, 0.03}

var (
	yuanAmountPattern = regexp.MustCompile(`¥\s*([\d,]+\.\d{2})`)
	bareAmountPattern = regexp.MustCompile(`([\d,]+\.\d{2})`)
	lineAmountPattern = regexp.MustCompile(`\d+\.\d{2}`)
)

// parseAmount converts a matched amount string to a float, stripping currency
// marks, thousands separators and common OCR artifacts.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	r := strings.NewReplacer("¥", "", "￥", "", ",", "", "壬", "", "垩", "")
	s = r.Replace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// amountCandidates collects every plausible monetary value in the text,
// deduplicated and sorted ascending.
func amountCandidates(text string) []float64 {
	seen := make(map[float64]struct{})
	for _, re := range []*regexp.Regexp{yuanAmountPattern, bareAmountPattern} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			v, ok := parseAmount(m[1])
			if ok && v >= minPlausibleAmount && v <= maxPlausibleAmount {
				seen[v] = struct{}{}
			}
		}
	}
	out := make([]float64, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

// findTotal resolves the invoice total: the 小写 figure wins, then a
// 价税合计/合计 figure, then the layout fallback (line-table scan for fuel
// invoices, largest candidate otherwise).
func findTotal(text string, p *PatternProfile, candidates []float64) (float64, bool) {
	if strings.Contains(text, "小写") {
		for _, re := range p.smallCase {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				if v, ok := parseAmount(m[1]); ok && v > 0 {
					return v, true
				}
			}
		}
	}

	for _, re := range p.grandTotal {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if v, ok := parseAmount(m[1]); ok && v > 0 {
				return v, true
			}
		}
	}

	if p.tableScan {
		if v, ok := totalFromLineTable(text); ok {
			return v, true
		}
	}
	if !p.tableScan && len(candidates) > 0 {
		return candidates[len(candidates)-1], true
	}
	return 0, false
}

// totalFromLineTable scans the dense table rows of a fuel invoice: any line
// carrying at least two two-decimal figures is a table row, and its largest
// figure is the total if it falls in the plausible fuel purchase range.
func totalFromLineTable(text string) (float64, bool) {
	for _, line := range strings.Split(text, "\n") {
		matches := lineAmountPattern.FindAllString(line, -1)
		if len(matches) < 2 {
			continue
		}
		best := 0.0
		for _, m := range matches {
			if v, ok := parseAmount(m); ok && v > best {
				best = v
			}
		}
		if best >= 1.0 && best <= 10000.0 {
			return best, true
		}
	}
	return 0, false
}

// Reconcile splits a known total into pre-tax amount and tax amount using the
// other figures found on the invoice. It tries, in order: an exact candidate
// pair summing to the total, the tax-exempt reading, and statutory-rate
// inference.
func Reconcile(candidates []float64, total float64) (pre, tax float64, ok bool) {
	bestDiff := math.Inf(1)
	for i, a := range candidates {
		for j, b := range candidates {
			if i == j {
				continue
			}
			p, t := a, b
			if t > p {
				p, t = t, p
			}
			diff := math.Abs(p + t - total)
			if diff < bestDiff && diff < amountTolerance {
				bestDiff = diff
				pre, tax, ok = p, t, true
			}
		}
	}
	if ok {
		return pre, tax, true
	}

	// Tax-exempt invoices carry the total itself as the only figure.
	for _, v := range candidates {
		if math.Abs(v-total) < 0.001 {
			return total, 0, true
		}
	}

	return InferByRate(candidates, total)
}

// InferByRate derives the pre-tax and tax amounts from the total by trying
// each statutory VAT rate; the split is accepted only when both implied
// figures appear among the candidates.
func InferByRate(candidates []float64, total float64) (pre, tax float64, ok bool) {
	for _, rate := range taxRates {
		impliedPre := total / (1 + rate)
		impliedTax := total - impliedPre

		preFound, taxFound := false, false
		for _, v := range candidates {
			if math.Abs(v-impliedPre) < amountTolerance {
				preFound = true
			}
			if math.Abs(v-impliedTax) < amountTolerance {
				taxFound = true
			}
		}
		if preFound && taxFound {
			return round2(impliedPre), round2(impliedTax), true
		}
	}
	return 0, 0, false
}

// extractAmounts resolves the three amount fields for the document.
func extractAmounts(text string, p *PatternProfile, fs *FieldSet) {
	candidates := amountCandidates(text)
	total, ok := findTotal(text, p, candidates)
	if !ok {
		return
	}
	fs.TotalAmount = ptr(total)

	if pre, tax, ok := Reconcile(candidates, total); ok {
		fs.AmountWithoutTax = ptr(pre)
		fs.TaxAmount = ptr(tax)
	}
}
