package routing

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fapiao/internal/domain"
	"fapiao/internal/quality"
	"fapiao/internal/recognition"
)

func writeTempInvoice(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644))
	return path
}

func TestDirMover_CreatesCategoryTree(t *testing.T) {
	base := filepath.Join(t.TempDir(), "unrecognized")
	_, err := NewDirMover(base)
	require.NoError(t, err)

	for _, cat := range domain.AllErrorCategories {
		fi, err := os.Stat(filepath.Join(base, string(cat)))
		require.NoError(t, err)
		assert.True(t, fi.IsDir())
	}
}

func TestDirMover_Relocate(t *testing.T) {
	tmp := t.TempDir()
	base := filepath.Join(tmp, "unrecognized")
	mover, err := NewDirMover(base)
	require.NoError(t, err)

	src := writeTempInvoice(t, tmp, "invoice.pdf")
	newPath, err := mover.Relocate(src, domain.CategoryLowConfidence)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "low_confidence", "invoice.pdf"), newPath)
	assert.NoFileExists(t, src)
	assert.FileExists(t, newPath)
}

func TestDirMover_RelocateCollisionAddsTimestamp(t *testing.T) {
	tmp := t.TempDir()
	mover, err := NewDirMover(filepath.Join(tmp, "unrecognized"))
	require.NoError(t, err)

	first := writeTempInvoice(t, tmp, "invoice.pdf")
	firstPath, err := mover.Relocate(first, domain.CategoryManualReview)
	require.NoError(t, err)

	second := writeTempInvoice(t, tmp, "invoice.pdf")
	secondPath, err := mover.Relocate(second, domain.CategoryManualReview)
	require.NoError(t, err)

	assert.NotEqual(t, firstPath, secondPath)
	assert.Contains(t, filepath.Base(secondPath), "invoice_")
	assert.FileExists(t, firstPath)
	assert.FileExists(t, secondPath)
}

func TestErrorLog_AppendAndStats(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "error_log.json")
	errLog := NewErrorLog(logPath, 1000)

	require.NoError(t, errLog.Append(Entry{
		Timestamp:       time.Now(),
		OriginalPath:    "invoices/a.pdf",
		ErrorType:       domain.CategoryLowConfidence,
		ErrorReason:     "置信度不足",
		ConfidenceScore: 0.4,
	}))
	require.NoError(t, errLog.Append(Entry{
		Timestamp:       time.Now(),
		OriginalPath:    "invoices/b.pdf",
		ErrorType:       domain.CategoryMissingCriticalFields,
		ErrorReason:     "缺少关键字段: buyer_name",
		ConfidenceScore: 0.2,
	}))

	stats := errLog.Stats()
	assert.Equal(t, 2, stats.TotalErrors)
	assert.Equal(t, 1, stats.ErrorTypes[domain.CategoryLowConfidence])
	assert.Equal(t, 1, stats.ErrorTypes[domain.CategoryMissingCriticalFields])
	assert.InDelta(t, 0.3, stats.AvgConfidence, 1e-9)
	assert.Len(t, stats.RecentErrors, 2)
}

func TestErrorLog_CapsEntries(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "error_log.json")
	errLog := NewErrorLog(logPath, 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, errLog.Append(Entry{
			Timestamp:    time.Now(),
			OriginalPath: "invoices/x.pdf",
			ErrorType:    domain.CategoryManualReview,
		}))
	}

	stats := errLog.Stats()
	assert.Equal(t, 3, stats.TotalErrors)
}

func TestPolicy_AcceptedFileStaysPut(t *testing.T) {
	tmp := t.TempDir()
	mover, err := NewDirMover(filepath.Join(tmp, "unrecognized"))
	require.NoError(t, err)
	policy := NewPolicy(mover, NewErrorLog(filepath.Join(tmp, "error_log.json"), 1000))

	src := writeTempInvoice(t, tmp, "good.pdf")
	got := policy.Route(src, recognition.FieldSet{}, quality.Verdict{Valid: true, Confidence: 0.9})

	assert.Equal(t, src, got)
	assert.FileExists(t, src)
	assert.Zero(t, policy.Stats().TotalErrors)
}

func TestPolicy_RejectedFileQuarantinedAndLogged(t *testing.T) {
	tmp := t.TempDir()
	mover, err := NewDirMover(filepath.Join(tmp, "unrecognized"))
	require.NoError(t, err)
	policy := NewPolicy(mover, NewErrorLog(filepath.Join(tmp, "error_log.json"), 1000))

	src := writeTempInvoice(t, tmp, "bad.pdf")
	verdict := quality.Verdict{
		Valid:      false,
		Confidence: 0.3,
		Reason:     "缺少关键字段: buyer_name",
		Category:   domain.CategoryMissingCriticalFields,
	}
	got := policy.Route(src, recognition.FieldSet{RecognitionAttempts: 3}, verdict)

	assert.Equal(t, filepath.Join(tmp, "unrecognized", "missing_critical_fields", "bad.pdf"), got)
	assert.NoFileExists(t, src)

	stats := policy.Stats()
	require.Equal(t, 1, stats.TotalErrors)
	assert.Equal(t, verdict.Reason, stats.RecentErrors[0].ErrorReason)
	assert.Equal(t, int64(len("%PDF-1.4 fake")), stats.RecentErrors[0].FileSize)
}

func TestBuildReviewReport(t *testing.T) {
	tmp := t.TempDir()
	mover, err := NewDirMover(filepath.Join(tmp, "unrecognized"))
	require.NoError(t, err)

	src := writeTempInvoice(t, tmp, "review.pdf")
	_, err = mover.Relocate(src, domain.CategoryManualReview)
	require.NoError(t, err)

	stats := Stats{
		TotalErrors:   1,
		ErrorTypes:    map[domain.ErrorCategory]int{domain.CategoryManualReview: 1},
		AvgConfidence: 0.42,
	}
	report := BuildReviewReport(stats, mover.BaseDir())

	assert.Contains(t, report, "发票识别错误处理报告")
	assert.Contains(t, report, "总错误数量: 1")
	assert.Contains(t, report, "平均置信度: 0.42")
	assert.Contains(t, report, "manual_review: 1")
	assert.Contains(t, report, "review.pdf")
}
