// Package extract converts source documents into plain text for ingestion.
package extract

import (
	"context"
	"fmt"

	"github.com/lesli-ai/leslibot/internal/domain"
)

// Extractor produces a single plain-text string from a source document.
type Extractor interface {
	Extract(ctx context.Context, doc domain.Document) (string, error)
}

// Registry dispatches extraction to a per-format strategy resolved from the
// document's format tag.
type Registry struct {
	extractors map[domain.DocumentFormat]Extractor
}

// NewRegistry creates a Registry covering all supported formats.
func NewRegistry() *Registry {
	return &Registry{
		extractors: map[domain.DocumentFormat]Extractor{
			domain.FormatPDF:  &PDFExtractor{},
			domain.FormatDOCX: &DOCXExtractor{},
			domain.FormatEPUB: &EPUBExtractor{},
			domain.FormatTXT:  &TextExtractor{},
		},
	}
}

// Extract runs the strategy for the document's format. Extraction failures
// are wrapped as EXTRACTION_ERROR domain errors; the caller decides whether
// to treat them as "no text" and continue.
func (r *Registry) Extract(ctx context.Context, doc domain.Document) (string, error) {
	extractor, ok := r.extractors[doc.Format]
	if !ok {
		return "", domain.ErrUnsupportedFormat
	}

	text, err := extractor.Extract(ctx, doc)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(
			domain.ErrCodeExtraction,
			fmt.Sprintf("failed to extract text from %s", doc.Name),
			err,
		)
	}
	return text, nil
}
