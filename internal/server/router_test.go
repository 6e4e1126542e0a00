package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lesli-ai/leslibot/internal/domain"
)

// stubStats serves canned book summaries.
type stubStats struct {
	books []domain.BookSummary
	err   error
}

func (s *stubStats) Books(ctx context.Context) ([]domain.BookSummary, error) {
	return s.books, s.err
}

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(RouterConfig{Stats: &stubStats{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatsEndpoint(t *testing.T) {
	t.Run("reports per-book and total counts", func(t *testing.T) {
		router := NewRouter(RouterConfig{Stats: &stubStats{
			books: []domain.BookSummary{
				{BookName: "a.txt", ChunkCount: 10},
				{BookName: "b.pdf", ChunkCount: 5},
			},
		}})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Books []struct {
				BookName   string `json:"book_name"`
				ChunkCount int    `json:"chunk_count"`
			} `json:"books"`
			TotalBooks  int `json:"total_books"`
			TotalChunks int `json:"total_chunks"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

		assert.Equal(t, 2, body.TotalBooks)
		assert.Equal(t, 15, body.TotalChunks)
		require.Len(t, body.Books, 2)
		assert.Equal(t, "a.txt", body.Books[0].BookName)
	})

	t.Run("empty knowledge base is not an error", func(t *testing.T) {
		router := NewRouter(RouterConfig{Stats: &stubStats{}})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total_books":0`)
	})

	t.Run("store failure yields 500", func(t *testing.T) {
		router := NewRouter(RouterConfig{Stats: &stubStats{err: errors.New("connection refused")}})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
