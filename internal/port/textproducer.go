package port

import (
	"context"

	"fapiao/internal/domain"
)

// TextProducer turns a source document into raw text. Implementations never
// fail past this boundary: unreadable or empty documents yield an empty
// string and the quality layer rejects them downstream.
type TextProducer interface {
	Text(ctx context.Context, path string, fileType domain.FileType) string
}
