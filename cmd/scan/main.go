// Command scan runs one batch recognition pass over the configured invoice
// directories and prints a summary.
package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"fapiao/internal/config"
	"fapiao/internal/email/noop"
	"fapiao/internal/email/ses"
	"fapiao/internal/port"
	"fapiao/internal/quality"
	"fapiao/internal/recognition"
	"fapiao/internal/repository/postgres"
	"fapiao/internal/routing"
	"fapiao/internal/service"
	s3storage "fapiao/internal/storage/s3"
	"fapiao/internal/textproducer"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	invoiceRepo := postgres.NewInvoiceRepo(db)

	var storage port.ObjectStorage
	if cfg.S3.Enabled {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	var sender port.EmailSender
	switch cfg.Email.Provider {
	case "ses":
		sender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		sender = noop.NewNoopSender()
	}

	ident := recognition.Identity{
		CompanyName: cfg.Buyer.CompanyName,
		TaxNumber:   cfg.Buyer.TaxNumber,
	}
	engine := recognition.NewEngine(ident, cfg.Engine.MaxAttempts)
	evaluator := quality.NewEvaluator(ident, cfg.Engine.MinFilled, cfg.Engine.MinConfidence)

	mover, err := routing.NewDirMover(cfg.Quarantine.BaseDir)
	if err != nil {
		return fmt.Errorf("failed to prepare quarantine directory: %w", err)
	}
	errLog := routing.NewErrorLog(cfg.Quarantine.ErrorLogPath, cfg.Quarantine.MaxLogEntries)
	policy := routing.NewPolicy(mover, errLog)

	producer := textproducer.NewExec()

	invoiceSvc := service.NewInvoiceService(invoiceRepo, producer, engine, evaluator, policy, storage, sender, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := invoiceSvc.ProcessAll(ctx)
	if err != nil {
		return fmt.Errorf("batch scan failed: %w", err)
	}

	fmt.Printf("处理完成: 共 %d 个文件\n", summary.Processed+summary.Skipped+summary.Failed)
	fmt.Printf("  识别成功: %d\n", summary.Accepted)
	fmt.Printf("  已隔离:   %d\n", summary.Rejected)
	fmt.Printf("  已跳过:   %d\n", summary.Skipped)
	fmt.Printf("  处理失败: %d\n", summary.Failed)

	if summary.Rejected > 0 {
		fmt.Println()
		fmt.Println(invoiceSvc.ReviewReport())
		if cfg.Email.Reviewer != "" {
			if err := invoiceSvc.SendReviewReport(ctx); err != nil {
				log.Printf("review report delivery failed: %v", err)
			}
		}
	}
	return nil
}
