package noop

import (
	"context"
	"log"

	"fapiao/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs report deliveries to stdout.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendReviewReport(_ context.Context, toEmail, subject, body string) error {
	log.Printf("[NOOP EMAIL] Review report %q for %s (%d bytes)", subject, toEmail, len(body))
	return nil
}
