package extract

import (
	"context"
	"os"
	"strings"

	docx "github.com/fumiama/go-docx"

	"github.com/lesli-ai/leslibot/internal/domain"
)

// DOCXExtractor extracts paragraph text from DOCX files, one paragraph per
// line. Tables and embedded media are ignored.
type DOCXExtractor struct{}

func (e *DOCXExtractor) Extract(ctx context.Context, doc domain.Document) (string, error) {
	f, err := os.Open(doc.Path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	parsed, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, item := range parsed.Document.Body.Items {
		if paragraph, ok := item.(*docx.Paragraph); ok {
			sb.WriteString(paragraph.String())
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}
