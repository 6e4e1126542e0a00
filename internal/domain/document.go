package domain

import (
	"path/filepath"
	"strings"
)

// DocumentFormat identifies one of the supported source document formats.
// The format is resolved once at the directory-scan boundary; extraction
// dispatches on it instead of re-inspecting the file name.
type DocumentFormat string

const (
	FormatPDF  DocumentFormat = "pdf"
	FormatDOCX DocumentFormat = "docx"
	FormatEPUB DocumentFormat = "epub"
	FormatTXT  DocumentFormat = "txt"
)

// Document is a source file scheduled for ingestion.
type Document struct {
	// Path is the readable location of the file on disk.
	Path string
	// Name is the original file name and serves as the book-level
	// idempotence key.
	Name string
	Format DocumentFormat
}

// NewDocument builds a Document from a file path, resolving its format from
// the file extension. Returns ErrUnsupportedFormat for unknown extensions.
func NewDocument(path string) (Document, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Path:   path,
		Name:   filepath.Base(path),
		Format: format,
	}, nil
}

// DetectFormat maps a file extension to its DocumentFormat.
func DetectFormat(path string) (DocumentFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".epub":
		return FormatEPUB, nil
	case ".txt":
		return FormatTXT, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// IsSupportedFile reports whether the file name carries one of the supported
// extensions.
func IsSupportedFile(name string) bool {
	_, err := DetectFormat(name)
	return err == nil
}
