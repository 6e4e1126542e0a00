package extract

import (
	"context"
	"os"

	"github.com/lesli-ai/leslibot/internal/domain"
)

// TextExtractor reads plain-text files whole, as UTF-8.
type TextExtractor struct{}

func (e *TextExtractor) Extract(ctx context.Context, doc domain.Document) (string, error) {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
