package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkerSplit(t *testing.T) {
	t.Run("empty input produces no chunks", func(t *testing.T) {
		c := NewChunker(DefaultChunkConfig())
		assert.Nil(t, c.Split(""))
		assert.Nil(t, c.Split("   \n\t  "))
	})

	t.Run("short text stays in one chunk", func(t *testing.T) {
		c := NewChunker(DefaultChunkConfig())
		chunks := c.Split("одна короткая фраза")
		require.Len(t, chunks, 1)
		assert.Equal(t, "одна короткая фраза", chunks[0])
	})

	t.Run("long text splits without breaking words", func(t *testing.T) {
		// ~2500 chars of 9-char words ends up in 3 chunks of up to 1000.
		word := "эскалация"
		text := strings.Repeat(word+" ", 250)

		c := NewChunker(ChunkConfig{ChunkSize: 1000, MinChars: 50})
		chunks := c.Split(text)
		require.Len(t, chunks, 3)

		for _, chunk := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(chunk), 1000)
			for _, w := range strings.Fields(chunk) {
				assert.Equal(t, word, w)
			}
		}
	})

	t.Run("joined chunks reproduce the normalized input", func(t *testing.T) {
		text := "первое  слово\nвторое\t слово и ещё немного текста для проверки"
		c := NewChunker(ChunkConfig{ChunkSize: 15, MinChars: 1})

		chunks := c.Split(text)
		joined := strings.Join(chunks, " ")
		assert.Equal(t, strings.Join(strings.Fields(text), " "), joined)
	})

	t.Run("oversized single word becomes its own chunk", func(t *testing.T) {
		long := strings.Repeat("а", 30)
		c := NewChunker(ChunkConfig{ChunkSize: 10, MinChars: 1})

		chunks := c.Split("до " + long + " после")
		require.Len(t, chunks, 3)
		assert.Equal(t, long, chunks[1])
	})

	t.Run("zero config falls back to defaults", func(t *testing.T) {
		c := NewChunker(ChunkConfig{})
		assert.Equal(t, DefaultChunkConfig(), c.Config())
	})
}

func TestChunkerTooShort(t *testing.T) {
	c := NewChunker(ChunkConfig{ChunkSize: 1000, MinChars: 5})

	assert.True(t, c.TooShort(""))
	assert.True(t, c.TooShort("абвгд"))
	assert.True(t, c.TooShort("  абвгд  \n"))
	assert.False(t, c.TooShort("абвгде"))
}
