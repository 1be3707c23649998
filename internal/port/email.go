package port

import "context"

// EmailSender defines the contract for delivering manual-review reports.
type EmailSender interface {
	SendReviewReport(ctx context.Context, toEmail, subject, body string) error
}
