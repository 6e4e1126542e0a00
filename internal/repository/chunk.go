package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lesli-ai/leslibot/internal/domain"
)

// ChunkRepository handles persistence of knowledge chunks.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// InsertBatch persists one batch of chunks in a single transaction. The
// transaction is the unit of the retry policy: either the whole batch
// commits or none of it does.
func (r *ChunkRepository) InsertBatch(ctx context.Context, chunks []domain.KnowledgeChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO knowledge_base (book_name, chapter, content, keywords, category, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			c.BookName,
			c.ChapterLabel,
			c.Content,
			c.Keywords,
			c.Category,
			createdAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// CountByBook returns the number of stored chunks for a book.
func (r *ChunkRepository) CountByBook(ctx context.Context, bookName string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM knowledge_base WHERE book_name = $1`,
		bookName,
	).Scan(&count)
	return count, err
}

// DeleteByBook removes all chunks of a book, used to discard partial
// leftovers before re-ingestion.
func (r *ChunkRepository) DeleteByBook(ctx context.Context, bookName string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM knowledge_base WHERE book_name = $1`,
		bookName,
	)
	return err
}

// SearchSubstring returns up to limit chunks whose content or keywords
// contain term as a case-insensitive substring, in insertion order.
func (r *ChunkRepository) SearchSubstring(ctx context.Context, term string, limit int) ([]domain.SearchResult, error) {
	pattern := "%" + escapeLike(term) + "%"
	rows, err := r.pool.Query(ctx,
		`SELECT book_name, chapter, content, keywords, category
		 FROM knowledge_base
		 WHERE content ILIKE $1 OR keywords ILIKE $1
		 ORDER BY id
		 LIMIT $2`,
		pattern, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSearchRows(rows)
}

// ListBooks returns stored books with their chunk counts.
func (r *ChunkRepository) ListBooks(ctx context.Context) ([]domain.BookSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT book_name, COUNT(*)
		 FROM knowledge_base
		 GROUP BY book_name
		 ORDER BY book_name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []domain.BookSummary
	for rows.Next() {
		var b domain.BookSummary
		if err := rows.Scan(&b.BookName, &b.ChunkCount); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// CountAll returns the total number of stored chunks.
func (r *ChunkRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM knowledge_base`).Scan(&count)
	return count, err
}

func scanSearchRows(rows pgx.Rows) ([]domain.SearchResult, error) {
	var results []domain.SearchResult
	for rows.Next() {
		var sr domain.SearchResult
		var keywords, category *string
		if err := rows.Scan(&sr.BookName, &sr.ChapterLabel, &sr.Content, &keywords, &category); err != nil {
			return nil, err
		}
		if keywords != nil {
			sr.Keywords = *keywords
		}
		if category != nil {
			sr.Category = *category
		}
		results = append(results, sr)
	}
	return results, rows.Err()
}

// escapeLike neutralizes LIKE metacharacters so the query term is matched
// literally.
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
