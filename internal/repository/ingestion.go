package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lesli-ai/leslibot/internal/domain"
)

// IngestionRepository tracks per-book ingestion state.
type IngestionRepository struct {
	pool *pgxpool.Pool
}

func NewIngestionRepository(pool *pgxpool.Pool) *IngestionRepository {
	return &IngestionRepository{pool: pool}
}

func (r *IngestionRepository) GetByBook(ctx context.Context, bookName string) (*domain.BookIngestion, error) {
	var ing domain.BookIngestion
	err := r.pool.QueryRow(ctx,
		`SELECT id, book_name, status, chunk_count, error, started_at, completed_at
		 FROM book_ingestions WHERE book_name = $1`,
		bookName,
	).Scan(&ing.ID, &ing.BookName, &ing.Status, &ing.ChunkCount, &ing.Error, &ing.StartedAt, &ing.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrIngestionNotFound
		}
		return nil, err
	}
	return &ing, nil
}

// Start records the beginning of a book's ingestion. A previous record for
// the same book is reset, since its chunks are discarded before re-ingestion.
func (r *IngestionRepository) Start(ctx context.Context, ing *domain.BookIngestion) error {
	startedAt := ing.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO book_ingestions (id, book_name, status, chunk_count, error, started_at, completed_at)
		 VALUES ($1, $2, $3, 0, '', $4, NULL)
		 ON CONFLICT (book_name) DO UPDATE
		 SET status = EXCLUDED.status, chunk_count = 0, error = '', started_at = EXCLUDED.started_at, completed_at = NULL`,
		ing.ID, ing.BookName, domain.IngestionStatusPending, startedAt,
	)
	return err
}

func (r *IngestionRepository) MarkComplete(ctx context.Context, bookName string, chunkCount int) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE book_ingestions
		 SET status = $1, chunk_count = $2, completed_at = $3
		 WHERE book_name = $4`,
		domain.IngestionStatusComplete, chunkCount, time.Now().UTC(), bookName,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrIngestionNotFound
	}
	return nil
}

func (r *IngestionRepository) MarkFailed(ctx context.Context, bookName string, cause string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE book_ingestions
		 SET status = $1, error = $2, completed_at = $3
		 WHERE book_name = $4`,
		domain.IngestionStatusFailed, cause, time.Now().UTC(), bookName,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrIngestionNotFound
	}
	return nil
}
