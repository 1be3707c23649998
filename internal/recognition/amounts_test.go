package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		ok       bool
	}{
		{"plain", "35.02", 35.02, true},
		{"yuan sign", "¥1130.00", 1130.00, true},
		{"fullwidth yuan sign", "￥250.50", 250.50, true},
		{"thousands separator", "1,234.56", 1234.56, true},
		{"ocr artifacts", "壬1130.00垩", 1130.00, true},
		{"integer", "250", 250.0, true},
		{"empty", "", 0, false},
		{"garbage", "abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := parseAmount(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.expected, v, 1e-9)
			}
		})
	}
}

func TestAmountCandidates(t *testing.T) {
	text := "金额：1000.00 税额：130.00 合计 ¥1130.00 重复 1000.00"
	got := amountCandidates(text)
	assert.Equal(t, []float64{130.00, 1000.00, 1130.00}, got)
}

func TestAmountCandidates_DropsImplausible(t *testing.T) {
	text := "0.00 1000000.00 500.00"
	got := amountCandidates(text)
	assert.Equal(t, []float64{500.00}, got)
}

func TestReconcile_ExactPair(t *testing.T) {
	pre, tax, ok := Reconcile([]float64{870.0, 130.0, 1000.0}, 1000.0)
	require.True(t, ok)
	assert.InDelta(t, 870.0, pre, 1e-9)
	assert.InDelta(t, 130.0, tax, 1e-9)
}

func TestReconcile_TaxExempt(t *testing.T) {
	pre, tax, ok := Reconcile([]float64{88.00, 200.00}, 200.00)
	require.True(t, ok)
	assert.InDelta(t, 200.00, pre, 1e-9)
	assert.Zero(t, tax)
}

func TestReconcile_NoMatch(t *testing.T) {
	_, _, ok := Reconcile([]float64{12.34, 56.78}, 500.00)
	assert.False(t, ok)
}

func TestInferByRate_Thirteen(t *testing.T) {
	pre, tax, ok := InferByRate([]float64{1000.00, 130.00}, 1130.00)
	require.True(t, ok)
	assert.InDelta(t, 1000.00, pre, 0.01)
	assert.InDelta(t, 130.00, tax, 0.01)
}

func TestInferByRate_RequiresBothFigures(t *testing.T) {
	// The implied tax figure is missing from the candidates, so no rate applies.
	_, _, ok := InferByRate([]float64{1000.00}, 1130.00)
	assert.False(t, ok)
}

func TestTotalFromLineTable(t *testing.T) {
	text := "汽油92号\n35.40 7.08 221.68 28.82\n其他行"
	v, ok := totalFromLineTable(text)
	require.True(t, ok)
	assert.InDelta(t, 221.68, v, 1e-9)
}

func TestTotalFromLineTable_SingleFigureLinesIgnored(t *testing.T) {
	text := "只有一个金额 221.68\n没有金额的行"
	_, ok := totalFromLineTable(text)
	assert.False(t, ok)
}
