// Package server exposes the health endpoints the deployment platform polls.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/lesli-ai/leslibot/internal/domain"
)

// StatsProvider reports knowledge-base contents for the /stats endpoint.
type StatsProvider interface {
	Books(ctx context.Context) ([]domain.BookSummary, error)
}

// RouterConfig holds the router dependencies.
type RouterConfig struct {
	Stats StatsProvider
}

// NewRouter builds the HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		books, err := cfg.Stats.Books(req.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "knowledge base unavailable"})
			return
		}

		total := 0
		for _, b := range books {
			total += b.ChunkCount
		}

		type bookStats struct {
			BookName   string `json:"book_name"`
			ChunkCount int    `json:"chunk_count"`
		}
		stats := make([]bookStats, 0, len(books))
		for _, b := range books {
			stats = append(stats, bookStats{BookName: b.BookName, ChunkCount: b.ChunkCount})
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"books":        stats,
			"total_books":  len(books),
			"total_chunks": total,
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
