package ingest

import (
	"strings"
	"unicode/utf8"
)

// ChunkConfig controls how extracted book text is split for storage.
type ChunkConfig struct {
	// ChunkSize is the target maximum chunk length in runes.
	ChunkSize int
	// MinChars drops chunks whose trimmed length does not exceed it, to
	// keep fragments out of search results.
	MinChars int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		ChunkSize: 1000,
		MinChars:  50,
	}
}

// Chunker splits text into word-accumulation chunks: whole words are appended
// to the running chunk until adding the next word would exceed ChunkSize, then
// a new chunk starts. Words are never split across chunks.
type Chunker struct {
	cfg ChunkConfig
}

func NewChunker(cfg ChunkConfig) *Chunker {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkConfig().ChunkSize
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = DefaultChunkConfig().MinChars
	}
	return &Chunker{cfg: cfg}
}

// Config returns the effective chunking configuration.
func (c *Chunker) Config() ChunkConfig {
	return c.cfg
}

// Split breaks text into chunks in stable left-to-right order. Joining the
// result with single spaces reproduces the whitespace-normalized input.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, len(text)/c.cfg.ChunkSize+1)
	var sb strings.Builder
	length := 0

	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		// A single word longer than ChunkSize still becomes its own chunk.
		if length > 0 && length+1+wordLen > c.cfg.ChunkSize {
			chunks = append(chunks, sb.String())
			sb.Reset()
			length = 0
		}
		if length > 0 {
			sb.WriteByte(' ')
			length++
		}
		sb.WriteString(word)
		length += wordLen
	}
	if sb.Len() > 0 {
		chunks = append(chunks, sb.String())
	}

	return chunks
}

// TooShort reports whether a chunk falls below the minimum content floor.
func (c *Chunker) TooShort(chunk string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(chunk)) <= c.cfg.MinChars
}
