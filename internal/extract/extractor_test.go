package extract

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesli-ai/leslibot/internal/domain"
)

func writeDocument(t *testing.T, name string, data []byte) domain.Document {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	doc, err := domain.NewDocument(path)
	require.NoError(t, err)
	return doc
}

func TestRegistryExtract(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()

	t.Run("plain text passes through unchanged", func(t *testing.T) {
		content := "Доверие строится медленно.\nФрейм держится постоянно.\n"
		doc := writeDocument(t, "book.txt", []byte(content))

		text, err := registry.Extract(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, content, text)
	})

	t.Run("unknown format is rejected", func(t *testing.T) {
		doc := domain.Document{Path: "book.mobi", Name: "book.mobi", Format: "mobi"}

		_, err := registry.Extract(ctx, doc)
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	})

	t.Run("corrupt pdf fails with an extraction error", func(t *testing.T) {
		doc := writeDocument(t, "broken.pdf", []byte("%PDF-1.4 this is not a real pdf body"))

		text, err := registry.Extract(ctx, doc)
		require.Error(t, err)
		assert.Empty(t, text)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeExtraction, domainErr.Code)
	})

	t.Run("corrupt docx fails with an extraction error", func(t *testing.T) {
		doc := writeDocument(t, "broken.docx", []byte("not a zip archive"))

		text, err := registry.Extract(ctx, doc)
		require.Error(t, err)
		assert.Empty(t, text)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeExtraction, domainErr.Code)
	})

	t.Run("corrupt epub fails with an extraction error", func(t *testing.T) {
		doc := writeDocument(t, "broken.epub", []byte("not a zip archive"))

		_, err := registry.Extract(ctx, doc)
		require.Error(t, err)
	})

	t.Run("epub chapters are read with markup stripped", func(t *testing.T) {
		doc := writeTestEPUB(t)

		text, err := registry.Extract(ctx, doc)
		require.NoError(t, err)
		assert.Contains(t, text, "Доверие и фрейм решают всё.")
		assert.NotContains(t, text, "<p>")
	})
}

// writeTestEPUB assembles a minimal one-chapter EPUB on disk.
func writeTestEPUB(t *testing.T) domain.Document {
	t.Helper()

	path := filepath.Join(t.TempDir(), "book.epub")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	files := []struct {
		name, body string
	}{
		{"mimetype", "application/epub+zip"},
		{"META-INF/container.xml", `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`},
		{"content.opf", `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Тестовая книга</dc:title>
    <dc:identifier id="id">test-book</dc:identifier>
  </metadata>
  <manifest>
    <item id="ch1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
  </spine>
</package>`},
		{"chapter1.xhtml", `<html xmlns="http://www.w3.org/1999/xhtml"><body><p>Доверие и фрейм решают всё.</p></body></html>`},
	}
	for _, file := range files {
		fw, err := w.Create(file.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(file.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	doc, err := domain.NewDocument(path)
	require.NoError(t, err)
	return doc
}
