package main

import (
	"fmt"
	"log"

	"fapiao/internal/config"
	"fapiao/internal/email/noop"
	"fapiao/internal/email/ses"
	"fapiao/internal/handler"
	"fapiao/internal/port"
	"fapiao/internal/quality"
	"fapiao/internal/recognition"
	"fapiao/internal/repository/postgres"
	"fapiao/internal/router"
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

	// Initialize repositories
	invoiceRepo := postgres.NewInvoiceRepo(db)

	// Initialize storage (optional archive)
	var storage port.ObjectStorage
	if cfg.S3.Enabled {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	// Initialize email
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

	// Initialize the recognition pipeline
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

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWT, cfg.Auth)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, producer, engine, evaluator, policy, storage, sender, cfg)

	// Initialize handlers
	authH := handler.NewAuthHandler(authSvc)
	invoiceH := handler.NewInvoiceHandler(invoiceSvc)
	statsH := handler.NewStatsHandler(invoiceSvc, policy)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(authSvc, authH, invoiceH, statsH, healthH, cfg.CORS.AllowedOrigins)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
