package routing

import (
	"log"
	"os"
	"time"

	"fapiao/internal/domain"
	"fapiao/internal/quality"
	"fapiao/internal/recognition"
)

// Mover relocates a rejected file into its category directory.
type Mover interface {
	Relocate(path string, category domain.ErrorCategory) (string, error)
}

// Policy routes evaluated documents: accepted files stay where they are,
// rejected files are quarantined and logged.
type Policy struct {
	mover Mover
	log   *ErrorLog
}

// NewPolicy creates a routing policy over the given mover and error log.
func NewPolicy(mover Mover, errLog *ErrorLog) *Policy {
	return &Policy{mover: mover, log: errLog}
}

// Route applies the verdict to the file. For a rejected document it returns
// the quarantine path the file was moved to; for an accepted one it returns
// the path unchanged. A failed move leaves the file in place and reports the
// original path, matching the recovery behavior of the batch scanner.
func (p *Policy) Route(path string, fields recognition.FieldSet, verdict quality.Verdict) string {
	if verdict.Valid {
		return path
	}

	newPath, err := p.mover.Relocate(path, verdict.Category)
	if err != nil {
		log.Printf("routing.Policy: quarantine move failed for %s: %v", path, err)
		return path
	}
	log.Printf("routing.Policy: quarantined %s -> %s (%s)", path, newPath, verdict.Reason)

	entry := Entry{
		Timestamp:       time.Now(),
		OriginalPath:    path,
		NewPath:         newPath,
		ErrorType:       verdict.Category,
		ErrorReason:     verdict.Reason,
		ConfidenceScore: verdict.Confidence,
		InvoiceInfo:     fields,
		FileSize:        fileSize(newPath),
	}
	if err := p.log.Append(entry); err != nil {
		log.Printf("routing.Policy: error log append failed: %v", err)
	}
	return newPath
}

// Stats exposes the error log summary.
func (p *Policy) Stats() Stats {
	return p.log.Stats()
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
