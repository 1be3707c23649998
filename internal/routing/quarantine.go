// Package routing decides what happens to a document after quality
// evaluation: accepted files stay in place, rejected files are quarantined by
// error category with a capped JSON audit log.
package routing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fapiao/internal/domain"
)

// DirMover relocates rejected files into per-category subdirectories of a
// quarantine base directory.
type DirMover struct {
	baseDir string
}

// NewDirMover creates the quarantine directory tree up front so a rejection
// never fails on a missing directory.
func NewDirMover(baseDir string) (*DirMover, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("routing.NewDirMover: %w", err)
	}
	for _, cat := range domain.AllErrorCategories {
		if err := os.MkdirAll(filepath.Join(baseDir, string(cat)), 0o755); err != nil {
			return nil, fmt.Errorf("routing.NewDirMover: %w", err)
		}
	}
	return &DirMover{baseDir: baseDir}, nil
}

// BaseDir returns the quarantine root.
func (m *DirMover) BaseDir() string { return m.baseDir }

// Relocate moves the file into the category subdirectory and returns the new
// path. An existing file with the same name gets a timestamp suffix instead
// of being overwritten.
func (m *DirMover) Relocate(path string, category domain.ErrorCategory) (string, error) {
	filename := filepath.Base(path)
	target := filepath.Join(m.baseDir, string(category), filename)

	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(filename)
		name := strings.TrimSuffix(filename, ext)
		stamp := time.Now().Format("20060102_150405")
		target = filepath.Join(m.baseDir, string(category), fmt.Sprintf("%s_%s%s", name, stamp, ext))
	}

	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("routing.DirMover.Relocate: move %s: %w", path, err)
	}
	return target, nil
}
