package recognition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fapiao/internal/domain"
)

var testIdent = Identity{
	CompanyName: "宁波牧柏科技咨询有限公司",
	TaxNumber:   "91330225MA2J4X2M2B",
}

const electronicInvoiceText = `电子发票（普通发票）
发票号码：25447000000123456789
开票日期：2024年3月15日
购买方
名称：宁波牧柏科技咨询有限公司
纳税人识别号：91330225MA2J4X2M2B
销售方
名称：杭州云服科技有限公司
纳税人识别号：91330106MA27XYZ12D
项目名称：技术服务费
金额：1000.00 税额：130.00
价税合计（大写）壹仟壹佰叁拾元整 （小写）¥1130.00`

const fuelInvoiceText = `成品油增值税专用发票
发票号码：12345678
开票日期：2024-06-01
购买方
名称：宁波牧柏科技咨询有限公司
纳税人识别号：91330225MA2J4X2M2B
汽油92号 35.40 7.08 221.68 28.82
价税合计（大写）贰佰伍拾元伍角整 （小写）¥250.50
销售方名称：中石化浙江宁波石油有限公司
纳税人识别号：91330203MA2ABCD12X`

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected domain.InvoiceType
	}{
		{"fuel keyword", "某某加油站开具", domain.InvoiceTypeFuel},
		{"fuel wins over special", "成品油增值税专用发票", domain.InvoiceTypeFuel},
		{"special", "增值税专用发票", domain.InvoiceTypeSpecial},
		{"electronic", "电子普通发票", domain.InvoiceTypeElectronic},
		{"default", "没有任何关键词的文本", domain.InvoiceTypeElectronic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.text))
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"chinese form", "2024年3月5日", "2024-03-05"},
		{"dashed form", "2024-3-5", "2024-03-05"},
		{"slashed form", "2024/03/05", "2024-03-05"},
		{"already normalized", "2024-12-31", "2024-12-31"},
		{"implausible month kept verbatim", "2024年13月5日", "2024年13月5日"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeDate(tt.input))
		})
	}
}

func TestExtract_ElectronicInvoice(t *testing.T) {
	e := NewEngine(testIdent, 3)
	fs := e.Extract(electronicInvoiceText)

	assert.Equal(t, domain.InvoiceTypeElectronic, fs.InvoiceType)
	assert.Equal(t, "25447000000123456789", fs.InvoiceNumber)
	assert.Equal(t, "2024-03-15", fs.InvoiceDate)
	assert.Equal(t, "宁波牧柏科技咨询有限公司", fs.BuyerName)
	assert.Equal(t, "91330225MA2J4X2M2B", fs.BuyerTaxNumber)
	assert.Equal(t, "杭州云服科技有限公司", fs.SellerName)
	assert.Equal(t, "91330106MA27XYZ12D", fs.SellerTaxNumber)
	assert.Equal(t, "技术服务费", fs.InvoiceContent)
	assert.Equal(t, 1, fs.RecognitionAttempts)

	require.NotNil(t, fs.TotalAmount)
	require.NotNil(t, fs.AmountWithoutTax)
	require.NotNil(t, fs.TaxAmount)
	assert.InDelta(t, 1130.00, *fs.TotalAmount, 1e-9)
	assert.InDelta(t, 1000.00, *fs.AmountWithoutTax, 1e-9)
	assert.InDelta(t, 130.00, *fs.TaxAmount, 1e-9)
}

func TestExtract_FuelInvoice(t *testing.T) {
	e := NewEngine(testIdent, 3)
	fs := e.Extract(fuelInvoiceText)

	assert.Equal(t, domain.InvoiceTypeFuel, fs.InvoiceType)
	assert.Equal(t, "12345678", fs.InvoiceNumber)
	assert.Equal(t, "2024-06-01", fs.InvoiceDate)
	assert.Equal(t, "宁波牧柏科技咨询有限公司", fs.BuyerName)
	assert.Equal(t, "91330225MA2J4X2M2B", fs.BuyerTaxNumber)
	assert.Equal(t, "中石化浙江宁波石油有限公司", fs.SellerName)
	assert.Equal(t, "91330203MA2ABCD12X", fs.SellerTaxNumber)
	assert.Contains(t, fs.InvoiceContent, "汽油92号")

	require.NotNil(t, fs.TotalAmount)
	require.NotNil(t, fs.AmountWithoutTax)
	require.NotNil(t, fs.TaxAmount)
	assert.InDelta(t, 250.50, *fs.TotalAmount, 1e-9)
	assert.InDelta(t, 221.68, *fs.AmountWithoutTax, 1e-9)
	assert.InDelta(t, 28.82, *fs.TaxAmount, 1e-9)
}

func TestExtract_Idempotent(t *testing.T) {
	e := NewEngine(testIdent, 3)
	first := e.Extract(electronicInvoiceText)
	second := e.Extract(electronicInvoiceText)
	assert.Equal(t, first, second)
}

func TestExtract_RetryRecoversInvoiceNumber(t *testing.T) {
	text := `电子发票
No：12345678
开票日期：2024年1月5日
名称：宁波牧柏科技咨询有限公司
名称：杭州测试科技有限公司
金额：88.50 税额：11.50
（小写）¥100.00`

	e := NewEngine(testIdent, 3)
	fs := e.Extract(text)

	assert.Equal(t, "12345678", fs.InvoiceNumber)
	assert.Equal(t, 2, fs.RecognitionAttempts)
}

func TestExtract_AttemptsCapped(t *testing.T) {
	// Nothing recognizable: the correction loop must stop at the cap.
	e := NewEngine(testIdent, 3)
	fs := e.Extract("完全无法识别的文本内容")
	assert.LessOrEqual(t, fs.RecognitionAttempts, 3)
	assert.True(t, fs.Missing(FieldInvoiceNumber))
	assert.Nil(t, fs.TotalAmount)
}

func TestFilledCount(t *testing.T) {
	fs := FieldSet{
		InvoiceNumber:       "12345678",
		InvoiceType:         domain.InvoiceTypeElectronic,
		TotalAmount:         ptr(100.0),
		RecognitionAttempts: 1,
	}
	assert.Equal(t, 4, fs.FilledCount())

	fs.TaxAmount = ptr(0.0)
	assert.Equal(t, 5, fs.FilledCount(), "a present zero tax amount counts as filled")
}

func TestMissingCritical(t *testing.T) {
	fs := FieldSet{
		InvoiceNumber:       "12345678",
		InvoiceDate:         "2024-01-05",
		SellerName:          "某某有限公司",
		RecognitionAttempts: 1,
	}
	assert.Equal(t, []string{FieldBuyerName, FieldTotalAmount}, fs.MissingCritical())
}
