package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"fapiao/internal/config"
	"fapiao/internal/domain"
	"fapiao/internal/port"
	"fapiao/internal/quality"
	"fapiao/internal/recognition"
	"fapiao/internal/routing"
)

// UploadInput is the DTO for invoice upload requests.
type UploadInput struct {
	File   multipart.File
	Header *multipart.FileHeader
}

// InvoiceService defines the invoice processing contract.
type InvoiceService interface {
	Upload(ctx context.Context, input UploadInput) (*domain.Invoice, error)
	ProcessFile(ctx context.Context, path string) (*domain.Invoice, error)
	ProcessAll(ctx context.Context) (*BatchSummary, error)
	List(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int, error)
	ListAll(ctx context.Context) ([]domain.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ClearAll(ctx context.Context) (int64, error)
	Statistics(ctx context.Context) (*domain.InvoiceStats, error)
	RemoveDuplicates(ctx context.Context) (int, error)
	ReviewReport() string
	SendReviewReport(ctx context.Context) error
}

type invoiceService struct {
	repo      port.InvoiceRepository
	producer  port.TextProducer
	engine    *recognition.Engine
	evaluator *quality.Evaluator
	policy    *routing.Policy
	storage   port.ObjectStorage
	sender    port.EmailSender
	cfg       *config.Config
}

// NewInvoiceService creates a new InvoiceService implementation. storage may
// be nil when archiving is disabled.
func NewInvoiceService(
	repo port.InvoiceRepository,
	producer port.TextProducer,
	engine *recognition.Engine,
	evaluator *quality.Evaluator,
	policy *routing.Policy,
	storage port.ObjectStorage,
	sender port.EmailSender,
	cfg *config.Config,
) InvoiceService {
	return &invoiceService{
		repo:      repo,
		producer:  producer,
		engine:    engine,
		evaluator: evaluator,
		policy:    policy,
		storage:   storage,
		sender:    sender,
		cfg:       cfg,
	}
}

func (s *invoiceService) Upload(ctx context.Context, input UploadInput) (*domain.Invoice, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Header.Filename), "."))
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	maxBytes := s.cfg.S3.MaxFileSizeMB * 1024 * 1024
	if input.Header.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	// Magic-byte check so a renamed executable cannot sneak in as a PDF.
	buf := make([]byte, 512)
	n, err := input.File.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading file header: %w", err)
	}
	if _, ok := domain.AllowedContentTypes[http.DetectContentType(buf[:n])]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file: %w", err)
	}

	dir := "invoices"
	if len(s.cfg.Scan.InvoiceDirs) > 0 {
		dir = s.cfg.Scan.InvoiceDirs[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("invoiceService.Upload: %w", err)
	}

	dest := filepath.Join(dir, filepath.Base(input.Header.Filename))
	if _, err := os.Stat(dest); err == nil {
		return nil, domain.ErrInvoiceAlreadyExists
	}

	out, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("invoiceService.Upload: %w", err)
	}
	if _, err := io.Copy(out, input.File); err != nil {
		out.Close()
		os.Remove(dest)
		return nil, fmt.Errorf("invoiceService.Upload: %w", err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("invoiceService.Upload: %w", err)
	}

	log.Printf("invoiceService.Upload: stored %s (%d bytes)", dest, input.Header.Size)
	return s.ProcessFile(ctx, dest)
}

// ProcessFile runs the full recognition pipeline over one source file and
// persists the outcome. Files already on record are skipped with
// ErrInvoiceAlreadyExists.
func (s *invoiceService) ProcessFile(ctx context.Context, path string) (*domain.Invoice, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	if existing, err := s.repo.GetByFilePath(ctx, path); err == nil {
		return existing, domain.ErrInvoiceAlreadyExists
	}

	text := s.producer.Text(ctx, path, fileType)

	var fields recognition.FieldSet
	var verdict quality.Verdict
	if strings.TrimSpace(text) == "" {
		verdict = quality.EmptyInputVerdict()
	} else {
		fields = s.engine.Extract(text)
		verdict = s.evaluator.Evaluate(&fields)
	}

	finalPath := s.policy.Route(path, fields, verdict)

	inv := &domain.Invoice{
		ID:                  uuid.New(),
		FilePath:            finalPath,
		FileName:            filepath.Base(path),
		FileType:            fileType,
		InvoiceNumber:       fields.InvoiceNumber,
		InvoiceDate:         fields.InvoiceDate,
		SellerName:          fields.SellerName,
		SellerTaxNumber:     fields.SellerTaxNumber,
		BuyerName:           fields.BuyerName,
		BuyerTaxNumber:      fields.BuyerTaxNumber,
		TotalAmount:         fields.TotalAmount,
		TaxAmount:           fields.TaxAmount,
		AmountWithoutTax:    fields.AmountWithoutTax,
		InvoiceContent:      fields.InvoiceContent,
		InvoiceType:         fields.InvoiceType,
		RawText:             text,
		IsValid:             verdict.Valid,
		ConfidenceScore:     verdict.Confidence,
		RecognitionAttempts: fields.RecognitionAttempts,
	}
	if !verdict.Valid {
		inv.ErrorReason = verdict.Reason
		inv.ErrorCategory = verdict.Category
	}

	if verdict.Valid && s.storage != nil && s.cfg.S3.Enabled {
		s.archive(ctx, inv)
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("invoiceService.ProcessFile: %w", err)
	}
	return inv, nil
}

// ProcessAll scans the configured invoice directories and recognizes every
// supported file that is not yet on record.
func (s *invoiceService) ProcessAll(ctx context.Context) (*BatchSummary, error) {
	paths, err := s.collectPaths()
	if err != nil {
		return nil, fmt.Errorf("invoiceService.ProcessAll: %w", err)
	}
	worker := NewScanWorker(s, s.cfg.Scan.Concurrency)
	return worker.Run(ctx, paths), nil
}

func (s *invoiceService) collectPaths() ([]string, error) {
	var paths []string
	for _, dir := range s.cfg.Scan.InvoiceDirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// A quarantine tree nested under an invoice dir must not be rescanned.
				if path != dir && filepath.Base(path) == filepath.Base(s.cfg.Quarantine.BaseDir) {
					return filepath.SkipDir
				}
				return nil
			}
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
			if _, ok := domain.AllowedExtensions[ext]; ok {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				log.Printf("invoiceService: invoice dir %s does not exist, skipping", dir)
				continue
			}
			return nil, err
		}
	}
	return paths, nil
}

func (s *invoiceService) List(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *invoiceService) ListAll(ctx context.Context) ([]domain.Invoice, error) {
	return s.repo.ListAll(ctx)
}

func (s *invoiceService) Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *invoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if inv.ArchiveKey != "" && s.storage != nil {
		if err := s.storage.Delete(ctx, inv.ArchiveBucket, inv.ArchiveKey); err != nil {
			log.Printf("invoiceService.Delete: archive delete failed for %s: %v", id, err)
		}
	}
	return s.repo.Delete(ctx, id)
}

func (s *invoiceService) ClearAll(ctx context.Context) (int64, error) {
	return s.repo.DeleteAll(ctx)
}

func (s *invoiceService) Statistics(ctx context.Context) (*domain.InvoiceStats, error) {
	return s.repo.Stats(ctx)
}

// RemoveDuplicates deletes later records that share an invoice number with an
// earlier one, keeping the oldest. Records without a recognized number are
// left alone.
func (s *invoiceService) RemoveDuplicates(ctx context.Context) (int, error) {
	invoices, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("invoiceService.RemoveDuplicates: %w", err)
	}

	seen := make(map[string]bool)
	removed := 0
	// ListAll is newest-first; walk backwards so the earliest record wins.
	for i := len(invoices) - 1; i >= 0; i-- {
		inv := invoices[i]
		if inv.InvoiceNumber == "" {
			continue
		}
		if !seen[inv.InvoiceNumber] {
			seen[inv.InvoiceNumber] = true
			continue
		}
		if err := s.repo.Delete(ctx, inv.ID); err != nil && !errors.Is(err, domain.ErrInvoiceNotFound) {
			return removed, fmt.Errorf("invoiceService.RemoveDuplicates: %w", err)
		}
		removed++
	}
	if removed > 0 {
		log.Printf("invoiceService.RemoveDuplicates: removed %d duplicate records", removed)
	}
	return removed, nil
}

// ReviewReport builds the plain-text manual-review report over the current
// quarantine state.
func (s *invoiceService) ReviewReport() string {
	return routing.BuildReviewReport(s.policy.Stats(), s.cfg.Quarantine.BaseDir)
}

// SendReviewReport emails the review report to the configured reviewer.
func (s *invoiceService) SendReviewReport(ctx context.Context) error {
	if s.sender == nil || s.cfg.Email.Reviewer == "" {
		return fmt.Errorf("invoiceService.SendReviewReport: no reviewer configured")
	}
	subject := "发票识别审核报告 " + time.Now().Format("2006-01-02")
	if err := s.sender.SendReviewReport(ctx, s.cfg.Email.Reviewer, subject, s.ReviewReport()); err != nil {
		return fmt.Errorf("invoiceService.SendReviewReport: %w", err)
	}
	return nil
}

// archive uploads the accepted original to the archive bucket. Archiving is
// best effort: a failed upload never rejects an accepted invoice.
func (s *invoiceService) archive(ctx context.Context, inv *domain.Invoice) {
	f, err := os.Open(inv.FilePath)
	if err != nil {
		log.Printf("invoiceService.archive: open %s: %v", inv.FilePath, err)
		return
	}
	defer f.Close()

	key := fmt.Sprintf("invoices/%s/%s_%s", time.Now().Format("2006/01"), inv.ID, inv.FileName)
	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.S3.Bucket,
		Key:         key,
		Body:        f,
		ContentType: contentTypeFor(inv.FileName),
	})
	if err != nil {
		log.Printf("invoiceService.archive: upload %s: %v", inv.FilePath, err)
		return
	}
	inv.ArchiveBucket = s.cfg.S3.Bucket
	inv.ArchiveKey = key
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "pdf":
		return "application/pdf"
	case "png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}
