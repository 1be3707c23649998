package routing

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// BuildReviewReport renders a plain-text summary of the quarantine state for
// human reviewers: totals, category distribution and the quarantine directory
// tree (log and report files excluded).
func BuildReviewReport(stats Stats, quarantineDir string) string {
	var b strings.Builder

	b.WriteString("发票识别错误处理报告\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	b.WriteString(fmt.Sprintf("生成时间: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	b.WriteString(fmt.Sprintf("总错误数量: %d\n", stats.TotalErrors))
	b.WriteString(fmt.Sprintf("平均置信度: %.2f\n\n", stats.AvgConfidence))

	b.WriteString("错误类型分布:\n")
	for errType, count := range stats.ErrorTypes {
		b.WriteString(fmt.Sprintf("  %s: %d\n", errType, count))
	}

	b.WriteString("\n未识别文件目录结构:\n")
	_ = filepath.WalkDir(quarantineDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(quarantineDir, path)
		if err != nil {
			return nil
		}
		depth := 0
		if rel != "." {
			depth = strings.Count(rel, string(filepath.Separator)) + 1
		}
		indent := strings.Repeat("  ", depth)
		if d.IsDir() {
			b.WriteString(fmt.Sprintf("%s%s/\n", indent, d.Name()))
			return nil
		}
		if strings.HasSuffix(d.Name(), ".txt") || strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		b.WriteString(fmt.Sprintf("%s%s\n", indent, d.Name()))
		return nil
	})

	return b.String()
}
