package routing

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"fapiao/internal/domain"
	"fapiao/internal/recognition"
)

// Entry is one rejected-document record in the error log.
type Entry struct {
	Timestamp       time.Time            `json:"timestamp"`
	OriginalPath    string               `json:"original_path"`
	NewPath         string               `json:"new_path"`
	ErrorType       domain.ErrorCategory `json:"error_type"`
	ErrorReason     string               `json:"error_reason"`
	ConfidenceScore float64              `json:"confidence_score"`
	InvoiceInfo     recognition.FieldSet `json:"invoice_info"`
	FileSize        int64                `json:"file_size"`
}

// Stats aggregates the error log.
type Stats struct {
	TotalErrors   int                          `json:"total_errors"`
	ErrorTypes    map[domain.ErrorCategory]int `json:"error_types"`
	RecentErrors  []Entry                      `json:"recent_errors"`
	AvgConfidence float64                      `json:"avg_confidence"`
}

// ErrorLog is a JSON-file-backed log of rejected documents, capped at the
// most recent maxEntries records. It serializes concurrent appends.
type ErrorLog struct {
	mu         sync.Mutex
	path       string
	maxEntries int
}

// NewErrorLog creates a log stored at path, keeping at most maxEntries
// records.
func NewErrorLog(path string, maxEntries int) *ErrorLog {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &ErrorLog{path: path, maxEntries: maxEntries}
}

func (l *ErrorLog) load() []Entry {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt log is abandoned rather than blocking the pipeline.
		return nil
	}
	return entries
}

// Append records a rejection, trimming the log to the cap.
func (l *ErrorLog) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := append(l.load(), e)
	if len(entries) > l.maxEntries {
		entries = entries[len(entries)-l.maxEntries:]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("routing.ErrorLog.Append: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("routing.ErrorLog.Append: %w", err)
	}
	return nil
}

// Stats summarizes the log: totals, per-category counts, average confidence
// and the ten most recent entries.
func (l *ErrorLog) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.load()
	stats := Stats{
		TotalErrors: len(entries),
		ErrorTypes:  make(map[domain.ErrorCategory]int),
	}
	if len(entries) == 0 {
		return stats
	}

	sum := 0.0
	for _, e := range entries {
		stats.ErrorTypes[e.ErrorType]++
		sum += e.ConfidenceScore
	}
	stats.AvgConfidence = sum / float64(len(entries))

	recent := 10
	if len(entries) < recent {
		recent = len(entries)
	}
	stats.RecentErrors = entries[len(entries)-recent:]
	return stats
}
