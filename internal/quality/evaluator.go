// Package quality scores extraction results and decides whether a document
// can be accepted without human review.
package quality

import (
	"fmt"
	"math"
	"strings"

	"fapiao/internal/domain"
	"fapiao/internal/recognition"
)

// Scoring weights for the composite confidence score.
const (
	weightCompleteness = 0.4
	weightCritical     = 0.3
	weightAmounts      = 0.2
	weightTaxNumbers   = 0.1
)

const amountTolerance = 0.01

// PassReason is the reason string attached to documents that pass.
const PassReason = "通过质量检查"

// criticalFields are the fields whose absence alone rejects a document.
var criticalFields = []string{recognition.FieldBuyerName, recognition.FieldTotalAmount}

// Verdict is the outcome of one quality evaluation.
type Verdict struct {
	Valid      bool                 `json:"is_valid"`
	Confidence float64              `json:"confidence_score"`
	Reason     string               `json:"reason"`
	Category   domain.ErrorCategory `json:"category,omitempty"`
}

// EmptyInputVerdict is the verdict for documents whose text producer yielded
// nothing; extraction is skipped entirely for those.
func EmptyInputVerdict() Verdict {
	return Verdict{
		Valid:      false,
		Confidence: 0.0,
		Reason:     "解析错误: 未能从文件中提取文本",
		Category:   domain.CategoryParsingErrors,
	}
}

// Evaluator scores field sets against configured acceptance thresholds.
type Evaluator struct {
	ident         recognition.Identity
	minFilled     int
	minConfidence float64
}

// NewEvaluator creates an evaluator. minFilled is the minimum recognized
// field count, minConfidence the acceptance threshold on the composite score.
func NewEvaluator(ident recognition.Identity, minFilled int, minConfidence float64) *Evaluator {
	return &Evaluator{ident: ident, minFilled: minFilled, minConfidence: minConfidence}
}

// Evaluate scores the field set and, as a final step, normalizes the
// buyer/seller orientation so the configured buyer is always the buyer.
// The field set is mutated only by that normalization.
func (e *Evaluator) Evaluate(fs *recognition.FieldSet) Verdict {
	var reasons []string

	var criticalMissing []string
	for _, field := range criticalFields {
		if fs.Missing(field) {
			criticalMissing = append(criticalMissing, field)
		}
	}
	if len(criticalMissing) > 0 {
		reasons = append(reasons, "缺少关键字段: "+strings.Join(criticalMissing, ", "))
	}

	filled := fs.FilledCount()
	completeness := float64(filled) / float64(recognition.NumFields)
	if filled < e.minFilled {
		reasons = append(reasons, fmt.Sprintf("识别字段过少: %d/%d", filled, recognition.NumFields))
	}

	amountsValid, amountErr := validateAmounts(fs)
	if !amountsValid {
		reasons = append(reasons, "金额验证失败: "+amountErr)
	}

	taxValid, taxErr := validateTaxNumbers(fs)
	if !taxValid {
		reasons = append(reasons, "税号验证失败: "+taxErr)
	}

	confidence := e.confidence(fs, completeness, amountsValid, taxValid)

	valid := len(criticalMissing) == 0 &&
		filled >= e.minFilled &&
		confidence >= e.minConfidence

	verdict := Verdict{
		Valid:      valid,
		Confidence: confidence,
		Reason:     PassReason,
	}
	if len(reasons) > 0 {
		verdict.Reason = strings.Join(reasons, "; ")
	}
	if !valid {
		verdict.Category = categorize(verdict.Reason, confidence, e.minConfidence)
	}

	e.normalizeIdentity(fs)

	return verdict
}

// confidence computes the weighted composite score, clamped to 1.0.
func (e *Evaluator) confidence(fs *recognition.FieldSet, completeness float64, amountsValid, taxValid bool) float64 {
	score := completeness * weightCompleteness

	criticalPresent := 0
	for _, field := range criticalFields {
		if !fs.Missing(field) {
			criticalPresent++
		}
	}
	score += float64(criticalPresent) / float64(len(criticalFields)) * weightCritical

	if amountsValid {
		score += weightAmounts
	}
	if taxValid {
		score += weightTaxNumbers
	}
	return math.Min(score, 1.0)
}

func validateAmounts(fs *recognition.FieldSet) (bool, string) {
	if fs.TotalAmount == nil {
		return false, "缺少总金额"
	}
	total := *fs.TotalAmount

	if fs.AmountWithoutTax != nil && fs.TaxAmount != nil {
		pre, tax := *fs.AmountWithoutTax, *fs.TaxAmount
		if math.Abs(pre+tax-total) > amountTolerance {
			return false, fmt.Sprintf("金额计算错误: %.2f + %.2f ≠ %.2f", pre, tax, total)
		}
		if tax > pre {
			return false, fmt.Sprintf("税额大于不含税金额: %.2f > %.2f", tax, pre)
		}
	}

	if total <= 0 || total > 999999.99 {
		return false, fmt.Sprintf("总金额不合理: %.2f", total)
	}
	return true, ""
}

func validateTaxNumbers(fs *recognition.FieldSet) (bool, string) {
	var errs []string
	if fs.BuyerTaxNumber != "" && !IsValidTaxNumber(fs.BuyerTaxNumber) {
		errs = append(errs, "购买方税号格式错误: "+fs.BuyerTaxNumber)
	}
	if fs.SellerTaxNumber != "" && !IsValidTaxNumber(fs.SellerTaxNumber) {
		errs = append(errs, "销售方税号格式错误: "+fs.SellerTaxNumber)
	}
	if fs.BuyerTaxNumber != "" && fs.BuyerTaxNumber == fs.SellerTaxNumber {
		errs = append(errs, "买卖方税号相同")
	}
	if len(errs) > 0 {
		return false, strings.Join(errs, "; ")
	}
	return true, ""
}

// IsValidTaxNumber reports whether a tax number has a recognized format: an
// 18-char unified social credit code (alphanumeric) or a legacy 15-digit
// number.
func IsValidTaxNumber(tax string) bool {
	switch len(tax) {
	case 18:
		for _, r := range tax {
			if !isAlnum(r) {
				return false
			}
		}
		return true
	case 15:
		for _, r := range tax {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	}
	return false
}

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// categorize maps a rejection reason to its quarantine category. The first
// matching rule wins.
func categorize(reason string, confidence, minConfidence float64) domain.ErrorCategory {
	switch {
	case strings.Contains(reason, "缺少关键字段"):
		return domain.CategoryMissingCriticalFields
	case strings.Contains(reason, "金额验证失败"), strings.Contains(reason, "金额计算错误"):
		return domain.CategoryValidationFailed
	case strings.Contains(reason, "税号验证失败"):
		return domain.CategoryValidationFailed
	case strings.Contains(reason, "识别字段过少"):
		return domain.CategoryParsingErrors
	case confidence < minConfidence:
		return domain.CategoryLowConfidence
	default:
		return domain.CategoryManualReview
	}
}

// normalizeIdentity makes sure the configured buyer ends up on the buyer side
// and carries its registered tax number.
func (e *Evaluator) normalizeIdentity(fs *recognition.FieldSet) {
	if fs.BuyerName != "" && !strings.Contains(fs.BuyerName, e.ident.CompanyName) {
		if fs.SellerName != "" && strings.Contains(fs.SellerName, e.ident.CompanyName) {
			fs.BuyerName, fs.SellerName = fs.SellerName, fs.BuyerName
			fs.BuyerTaxNumber, fs.SellerTaxNumber = fs.SellerTaxNumber, fs.BuyerTaxNumber
		}
	}
	if fs.BuyerName != "" && strings.Contains(fs.BuyerName, e.ident.CompanyName) {
		fs.BuyerTaxNumber = e.ident.TaxNumber
	}
}
