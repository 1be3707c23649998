package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"fapiao/internal/domain"
	"fapiao/internal/port"
)

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	query := `INSERT INTO invoices
		(id, file_path, file_name, file_type, invoice_number, invoice_date,
		 seller_name, seller_tax_number, buyer_name, buyer_tax_number,
		 total_amount, tax_amount, amount_without_tax, invoice_content,
		 invoice_type, raw_text, is_valid, confidence_score, error_reason,
		 error_category, recognition_attempts, archive_bucket, archive_key,
		 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		 $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`

	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.FilePath, inv.FileName, inv.FileType, inv.InvoiceNumber,
		inv.InvoiceDate, inv.SellerName, inv.SellerTaxNumber, inv.BuyerName,
		inv.BuyerTaxNumber, inv.TotalAmount, inv.TaxAmount, inv.AmountWithoutTax,
		inv.InvoiceContent, inv.InvoiceType, inv.RawText, inv.IsValid,
		inv.ConfidenceScore, inv.ErrorReason, inv.ErrorCategory,
		inv.RecognitionAttempts, inv.ArchiveBucket, inv.ArchiveKey,
		inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrInvoiceAlreadyExists
		}
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.GetContext(ctx, &inv, "SELECT * FROM invoices WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	return &inv, nil
}

func (r *invoiceRepo) GetByFilePath(ctx context.Context, filePath string) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.GetContext(ctx, &inv, "SELECT * FROM invoices WHERE file_path = $1", filePath)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByFilePath: %w", err)
	}
	return &inv, nil
}

func (r *invoiceRepo) List(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, int, error) {
	where, args := buildFilter(filter)

	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM invoices"+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List count: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT * FROM invoices%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	var invoices []domain.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) ListAll(ctx context.Context) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := r.db.SelectContext(ctx, &invoices, "SELECT * FROM invoices ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.ListAll: %w", err)
	}
	return invoices, nil
}

func (r *invoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func (r *invoiceRepo) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM invoices")
	if err != nil {
		return 0, fmt.Errorf("invoiceRepo.DeleteAll: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func (r *invoiceRepo) Stats(ctx context.Context) (*domain.InvoiceStats, error) {
	stats := &domain.InvoiceStats{
		ByType:     make(map[string]int64),
		ByCategory: make(map[string]int64),
	}

	err := r.db.GetContext(ctx, stats, `SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE is_valid) AS valid,
		COUNT(*) FILTER (WHERE NOT is_valid) AS invalid,
		COALESCE(AVG(confidence_score), 0) AS avg_confidence,
		COALESCE(SUM(total_amount) FILTER (WHERE is_valid), 0) AS total_amount
		FROM invoices`)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.Stats: %w", err)
	}

	type bucket struct {
		Key   string `db:"key"`
		Count int64  `db:"count"`
	}

	var byType []bucket
	err = r.db.SelectContext(ctx, &byType,
		"SELECT invoice_type AS key, COUNT(*) AS count FROM invoices GROUP BY invoice_type")
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.Stats by type: %w", err)
	}
	for _, b := range byType {
		stats.ByType[b.Key] = b.Count
	}

	var byCategory []bucket
	err = r.db.SelectContext(ctx, &byCategory,
		`SELECT error_category AS key, COUNT(*) AS count FROM invoices
		 WHERE error_category != '' GROUP BY error_category`)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.Stats by category: %w", err)
	}
	for _, b := range byCategory {
		stats.ByCategory[b.Key] = b.Count
	}

	return stats, nil
}

func buildFilter(filter domain.InvoiceFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if filter.InvoiceType != nil {
		args = append(args, *filter.InvoiceType)
		clauses = append(clauses, fmt.Sprintf("invoice_type = $%d", len(args)))
	}
	if filter.IsValid != nil {
		args = append(args, *filter.IsValid)
		clauses = append(clauses, fmt.Sprintf("is_valid = $%d", len(args)))
	}
	if filter.DateFrom != "" {
		args = append(args, filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("invoice_date >= $%d", len(args)))
	}
	if filter.DateTo != "" {
		args = append(args, filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("invoice_date <= $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
