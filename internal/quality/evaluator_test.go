package quality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fapiao/internal/domain"
	"fapiao/internal/recognition"
)

var testIdent = recognition.Identity{
	CompanyName: "宁波牧柏科技咨询有限公司",
	TaxNumber:   "91330225MA2J4X2M2B",
}

func newTestEvaluator() *Evaluator {
	return NewEvaluator(testIdent, 4, 0.6)
}

func ptr(v float64) *float64 { return &v }

func completeFieldSet() recognition.FieldSet {
	return recognition.FieldSet{
		InvoiceNumber:       "25447000000123456789",
		InvoiceDate:         "2024-03-15",
		SellerName:          "杭州云服科技有限公司",
		SellerTaxNumber:     "91330106MA27XYZ12D",
		BuyerName:           "宁波牧柏科技咨询有限公司",
		BuyerTaxNumber:      "91330225MA2J4X2M2B",
		AmountWithoutTax:    ptr(1000.00),
		TaxAmount:           ptr(130.00),
		TotalAmount:         ptr(1130.00),
		InvoiceContent:      "技术服务费",
		InvoiceType:         domain.InvoiceTypeElectronic,
		RecognitionAttempts: 1,
	}
}

func TestIsValidTaxNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"18-char credit code", "91330225MA2J4X2M2B", true},
		{"legacy 15-digit", "123456789012345", true},
		{"16 chars rejected", "1234567890123456", false},
		{"18 chars with symbol rejected", "91330225MA2J4X2M!B", false},
		{"15 chars with letter rejected", "12345678901234A", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidTaxNumber(tt.input))
		})
	}
}

func TestEvaluate_CompleteInvoicePasses(t *testing.T) {
	fs := completeFieldSet()
	v := newTestEvaluator().Evaluate(&fs)

	assert.True(t, v.Valid)
	assert.InDelta(t, 1.0, v.Confidence, 1e-9)
	assert.Equal(t, PassReason, v.Reason)
	assert.Empty(t, v.Category)
}

func TestEvaluate_MissingBuyerIsCritical(t *testing.T) {
	fs := completeFieldSet()
	fs.BuyerName = ""
	fs.BuyerTaxNumber = ""

	v := newTestEvaluator().Evaluate(&fs)

	assert.False(t, v.Valid)
	assert.Equal(t, domain.CategoryMissingCriticalFields, v.Category)
	assert.Contains(t, v.Reason, "缺少关键字段: buyer_name")
}

func TestEvaluate_MissingTotalIsCritical(t *testing.T) {
	fs := completeFieldSet()
	fs.TotalAmount = nil
	fs.AmountWithoutTax = nil
	fs.TaxAmount = nil

	v := newTestEvaluator().Evaluate(&fs)

	assert.False(t, v.Valid)
	assert.Equal(t, domain.CategoryMissingCriticalFields, v.Category)
	assert.Contains(t, v.Reason, "total_amount")
	assert.Contains(t, v.Reason, "缺少总金额")
}

func TestEvaluate_TooFewFields(t *testing.T) {
	fs := recognition.FieldSet{
		BuyerName:           "宁波牧柏科技咨询有限公司",
		TotalAmount:         ptr(100.0),
		RecognitionAttempts: 3,
	}

	v := newTestEvaluator().Evaluate(&fs)

	assert.False(t, v.Valid)
	assert.Contains(t, v.Reason, "识别字段过少: 3/12")
	assert.Equal(t, domain.CategoryParsingErrors, v.Category)
}

func TestEvaluate_AmountMismatchLowersConfidence(t *testing.T) {
	fs := completeFieldSet()
	fs.TaxAmount = ptr(99.00)

	v := newTestEvaluator().Evaluate(&fs)

	assert.Contains(t, v.Reason, "金额计算错误")
	assert.InDelta(t, 0.8, v.Confidence, 1e-9)
}

func TestEvaluate_TaxGreaterThanPreTax(t *testing.T) {
	fs := completeFieldSet()
	fs.AmountWithoutTax = ptr(100.00)
	fs.TaxAmount = ptr(1030.00)

	v := newTestEvaluator().Evaluate(&fs)

	assert.Contains(t, v.Reason, "税额大于不含税金额")
}

func TestEvaluate_SameTaxNumberRejected(t *testing.T) {
	fs := completeFieldSet()
	fs.SellerTaxNumber = fs.BuyerTaxNumber

	v := newTestEvaluator().Evaluate(&fs)

	assert.Contains(t, v.Reason, "买卖方税号相同")
	assert.InDelta(t, 0.9, v.Confidence, 1e-9)
}

func TestEvaluate_AmountIdentityHoldsWhenValid(t *testing.T) {
	fs := completeFieldSet()
	v := newTestEvaluator().Evaluate(&fs)

	require.True(t, v.Valid)
	require.NotNil(t, fs.AmountWithoutTax)
	require.NotNil(t, fs.TaxAmount)
	require.NotNil(t, fs.TotalAmount)
	assert.LessOrEqual(t, math.Abs(*fs.AmountWithoutTax+*fs.TaxAmount-*fs.TotalAmount), 0.01)
}

func TestEvaluate_SwapsBuyerAndSeller(t *testing.T) {
	fs := completeFieldSet()
	fs.BuyerName, fs.SellerName = fs.SellerName, fs.BuyerName
	fs.BuyerTaxNumber, fs.SellerTaxNumber = "91330106MA27XYZ12D", "91330225MA2J4X2M2B"

	newTestEvaluator().Evaluate(&fs)

	assert.Equal(t, "宁波牧柏科技咨询有限公司", fs.BuyerName)
	assert.Equal(t, "91330225MA2J4X2M2B", fs.BuyerTaxNumber)
	assert.Equal(t, "杭州云服科技有限公司", fs.SellerName)
	assert.Equal(t, "91330106MA27XYZ12D", fs.SellerTaxNumber)
}

func TestEvaluate_ForcesCanonicalBuyerTaxNumber(t *testing.T) {
	fs := completeFieldSet()
	fs.BuyerTaxNumber = "91330225MA2J4XOOOO"

	newTestEvaluator().Evaluate(&fs)

	assert.Equal(t, "91330225MA2J4X2M2B", fs.BuyerTaxNumber)
}

func TestEmptyInputVerdict(t *testing.T) {
	v := EmptyInputVerdict()
	assert.False(t, v.Valid)
	assert.Zero(t, v.Confidence)
	assert.Equal(t, domain.CategoryParsingErrors, v.Category)
}
