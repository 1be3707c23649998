// Package textproducer shells out to local OCR and PDF tooling to turn source
// documents into raw text. Extraction quality is the recognition layer's
// problem; this package only ever degrades to an empty string.
package textproducer

import (
	"bytes"
	"context"
	"log"
	"os/exec"
	"time"

	"fapiao/internal/domain"
)

const defaultTimeout = 2 * time.Minute

// Exec produces text via pdftotext for PDFs and tesseract for images.
type Exec struct {
	timeout time.Duration
}

// NewExec creates a producer with the default per-document timeout.
func NewExec() *Exec {
	return &Exec{timeout: defaultTimeout}
}

// Text extracts the raw text of one document. Any failure, including a
// missing binary or a timeout, yields an empty string.
func (e *Exec) Text(ctx context.Context, path string, fileType domain.FileType) string {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var cmd *exec.Cmd
	switch fileType {
	case domain.FileTypePDF:
		cmd = exec.CommandContext(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	case domain.FileTypeImage:
		cmd = exec.CommandContext(ctx, "tesseract", path, "stdout", "-l", "chi_sim+eng")
	default:
		return ""
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		log.Printf("textproducer.Exec: %s failed for %s: %v", cmd.Path, path, err)
		return ""
	}
	return out.String()
}
