package csvexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fapiao/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, columns, records[0])
	assert.Equal(t, "文件名", records[0][0])
}

func TestWriteInvoices(t *testing.T) {
	created := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	invoices := []domain.Invoice{
		{
			FileName:            "inv1.pdf",
			InvoiceNumber:       "25447000000123456789",
			InvoiceDate:         "2024-03-15",
			InvoiceType:         domain.InvoiceTypeElectronic,
			SellerName:          "杭州云服科技有限公司",
			SellerTaxNumber:     "91330106MA27XYZ12D",
			BuyerName:           "宁波牧柏科技咨询有限公司",
			BuyerTaxNumber:      "91330225MA2J4X2M2B",
			AmountWithoutTax:    ptr(1000.0),
			TaxAmount:           ptr(130.0),
			TotalAmount:         ptr(1130.0),
			InvoiceContent:      "技术服务费",
			ConfidenceScore:     1.0,
			IsValid:             true,
			RecognitionAttempts: 1,
			CreatedAt:           created,
		},
		{
			FileName:      "blank.pdf",
			InvoiceType:   domain.InvoiceTypeElectronic,
			ErrorReason:   "解析错误: 未能从文件中提取文本",
			ErrorCategory: domain.CategoryParsingErrors,
			CreatedAt:     created,
		},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteInvoices(invoices))
	w.Flush()
	require.NoError(t, w.Error())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	row := records[1]
	assert.Equal(t, "inv1.pdf", row[0])
	assert.Equal(t, "25447000000123456789", row[1])
	assert.Equal(t, "1000.00", row[8])
	assert.Equal(t, "130.00", row[9])
	assert.Equal(t, "1130.00", row[10])
	assert.Equal(t, "1.00", row[12])
	assert.Equal(t, "是", row[13])
	assert.Equal(t, "1", row[15])
	assert.Equal(t, created.Format(time.RFC3339), row[16])

	blank := records[2]
	assert.Empty(t, blank[8], "nil amounts export as empty, not zero")
	assert.Empty(t, blank[9])
	assert.Empty(t, blank[10])
	assert.Equal(t, "否", blank[13])
	assert.Equal(t, "解析错误: 未能从文件中提取文本", blank[14])
}

func TestBuildFilename(t *testing.T) {
	name := BuildFilename()
	assert.Contains(t, name, "invoices_")
	assert.Contains(t, name, time.Now().Format("2006-01-02"))
	assert.Contains(t, name, ".csv")
}
