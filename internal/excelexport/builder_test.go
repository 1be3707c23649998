package excelexport

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fapiao/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestBuild(t *testing.T) {
	invoices := []domain.Invoice{
		{
			FileName:         "inv1.pdf",
			InvoiceNumber:    "25447000000123456789",
			InvoiceDate:      "2024-03-15",
			InvoiceType:      domain.InvoiceTypeElectronic,
			BuyerName:        "宁波牧柏科技咨询有限公司",
			AmountWithoutTax: ptr(1000.0),
			TaxAmount:        ptr(130.0),
			TotalAmount:      ptr(1130.0),
			IsValid:          true,
		},
		{
			FileName:      "blank.pdf",
			ErrorReason:   "解析错误: 未能从文件中提取文本",
			ErrorCategory: domain.CategoryParsingErrors,
		},
	}

	data, err := Build(invoices)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "文件名", header)

	number, err := f.GetCellValue(sheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "25447000000123456789", number)

	valid, err := f.GetCellValue(sheet, "N2")
	require.NoError(t, err)
	assert.Equal(t, "是", valid)

	reason, err := f.GetCellValue(sheet, "O3")
	require.NoError(t, err)
	assert.Equal(t, "解析错误: 未能从文件中提取文本", reason)

	summary, err := f.GetCellValue(sheet, "A4")
	require.NoError(t, err)
	assert.Contains(t, summary, "合计")
	assert.Contains(t, summary, "有效 1 张")

	total, err := f.GetCellValue(sheet, "K4")
	require.NoError(t, err)
	assert.Equal(t, "1130", total)
}

func TestBuildFilename(t *testing.T) {
	name := BuildFilename()
	assert.Contains(t, name, "invoices_")
	assert.Contains(t, name, time.Now().Format("2006-01-02"))
	assert.Contains(t, name, ".xlsx")
}
