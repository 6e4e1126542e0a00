package extract

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/taylorskalyo/goreader/epub"

	"github.com/lesli-ai/leslibot/internal/domain"
)

// htmlTagPattern strips markup from XHTML chapter content. Plain tag removal
// is enough here since the text goes straight into chunking.
var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// EPUBExtractor extracts text from EPUB files by iterating the XHTML items
// of the book manifest and stripping their markup.
type EPUBExtractor struct{}

func (e *EPUBExtractor) Extract(ctx context.Context, doc domain.Document) (string, error) {
	rc, err := epub.OpenReader(doc.Path)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return "", errors.New("epub has no rootfile")
	}
	book := rc.Rootfiles[0]

	var sb strings.Builder
	for _, item := range book.Manifest.Items {
		if item.MediaType != "application/xhtml+xml" {
			continue
		}
		reader, err := item.Open()
		if err != nil {
			return "", err
		}
		raw, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return "", err
		}
		sb.WriteString(htmlTagPattern.ReplaceAllString(string(raw), ""))
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
