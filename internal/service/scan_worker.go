package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"fapiao/internal/domain"
)

// BatchSummary aggregates the outcome of one batch scan.
type BatchSummary struct {
	Processed int `json:"processed"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// ScanWorker runs invoice recognition over a batch of files with bounded
// concurrency.
type ScanWorker struct {
	svc         InvoiceService
	concurrency int
}

// NewScanWorker creates a new ScanWorker.
func NewScanWorker(svc InvoiceService, concurrency int) *ScanWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ScanWorker{svc: svc, concurrency: concurrency}
}

// Run processes every path and blocks until all in-flight recognitions have
// finished. Cancellation stops dispatching new files; files already running
// are allowed to finish.
func (w *ScanWorker) Run(ctx context.Context, paths []string) *BatchSummary {
	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	summary := &BatchSummary{}

	log.Printf("service.ScanWorker: started (files=%d, concurrency=%d)", len(paths), w.concurrency)

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}

		sem <- struct{}{} // acquire
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }() // release

			inv, err := w.svc.ProcessFile(ctx, path)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, domain.ErrInvoiceAlreadyExists):
				summary.Skipped++
			case err != nil:
				log.Printf("service.ScanWorker: %s failed: %v", path, err)
				summary.Failed++
			case inv.IsValid:
				summary.Processed++
				summary.Accepted++
			default:
				summary.Processed++
				summary.Rejected++
			}
		}(path)
	}

	wg.Wait()
	log.Printf("service.ScanWorker: done (processed=%d accepted=%d rejected=%d skipped=%d failed=%d)",
		summary.Processed, summary.Accepted, summary.Rejected, summary.Skipped, summary.Failed)
	return summary
}
