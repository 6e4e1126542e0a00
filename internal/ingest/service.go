// Package ingest turns extracted book text into persisted, queryable
// knowledge chunks and answers substring queries over them.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lesli-ai/leslibot/internal/domain"
	"github.com/lesli-ai/leslibot/internal/telemetry"
)

// ChunkRepositoryInterface defines the repository interface for chunk persistence
type ChunkRepositoryInterface interface {
	InsertBatch(ctx context.Context, chunks []domain.KnowledgeChunk) error
	CountByBook(ctx context.Context, bookName string) (int, error)
	DeleteByBook(ctx context.Context, bookName string) error
	SearchSubstring(ctx context.Context, term string, limit int) ([]domain.SearchResult, error)
	ListBooks(ctx context.Context) ([]domain.BookSummary, error)
}

// IngestionRepositoryInterface defines the repository interface for per-book
// ingestion state
type IngestionRepositoryInterface interface {
	GetByBook(ctx context.Context, bookName string) (*domain.BookIngestion, error)
	Start(ctx context.Context, ingestion *domain.BookIngestion) error
	MarkComplete(ctx context.Context, bookName string, chunkCount int) error
	MarkFailed(ctx context.Context, bookName string, cause string) error
}

// Extractor converts a source document into plain text.
type Extractor interface {
	Extract(ctx context.Context, doc domain.Document) (string, error)
}

// PoolResetter re-establishes database connections between batch retry
// attempts.
type PoolResetter interface {
	Reset()
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// ServiceConfig tunes ingestion behavior.
type ServiceConfig struct {
	Chunk ChunkConfig
	Tag   TagConfig
	// MinBookChars skips books whose extracted text does not exceed it.
	MinBookChars int
	// BatchSize is the number of chunks committed per batch.
	BatchSize int
	// MaxRetries bounds attempts per batch before the book fails.
	MaxRetries int
	// RetryDelay is slept between batch attempts, after a pool reset.
	RetryDelay time.Duration
}

// DefaultServiceConfig provides the ingestion defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Chunk:        DefaultChunkConfig(),
		Tag:          DefaultTagConfig(),
		MinBookChars: 100,
		BatchSize:    50,
		MaxRetries:   3,
		RetryDelay:   time.Second,
	}
}

// Report summarizes one ingestion run over a directory.
type Report struct {
	// Directory is the candidate path that yielded files, empty when no
	// directory contained any supported file.
	Directory string
	Processed []string
	Skipped   []string
	Failed    []string
}

// Service ingests book files and serves substring search over their chunks.
type Service struct {
	chunks     ChunkRepositoryInterface
	ingestions IngestionRepositoryInterface
	extractor  Extractor
	chunker    *Chunker
	tagger     *Tagger
	resetter   PoolResetter
	cfg        ServiceConfig
	uuidGen    UUIDGenerator
	sleep      func(time.Duration)
}

// NewService creates a new ingestion Service. resetter may be nil when the
// persistence layer has no connections to re-establish (tests).
func NewService(
	chunks ChunkRepositoryInterface,
	ingestions IngestionRepositoryInterface,
	extractor Extractor,
	resetter PoolResetter,
	cfg ServiceConfig,
) *Service {
	if cfg.MinBookChars <= 0 {
		cfg.MinBookChars = DefaultServiceConfig().MinBookChars
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultServiceConfig().BatchSize
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultServiceConfig().MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultServiceConfig().RetryDelay
	}

	return &Service{
		chunks:     chunks,
		ingestions: ingestions,
		extractor:  extractor,
		chunker:    NewChunker(cfg.Chunk),
		tagger:     NewTagger(cfg.Tag),
		resetter:   resetter,
		cfg:        cfg,
		uuidGen:    &DefaultUUIDGenerator{},
		sleep:      time.Sleep,
	}
}

// IngestDirectory scans candidate directories in priority order and ingests
// every supported file of the first directory that contains any. Missing or
// empty directories are not errors. Per-file failures are logged and recorded
// in the report; they never abort the run.
func (s *Service) IngestDirectory(ctx context.Context, paths []string) (*Report, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.IngestDirectory", telemetry.SpanAttributes{
		Operation: "ingest",
	})
	defer span.End()

	for _, dir := range paths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			log.Printf("books: skipping directory %s: %v", dir, err)
			continue
		}

		var docs []domain.Document
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			doc, err := domain.NewDocument(filepath.Join(dir, entry.Name()))
			if err != nil {
				log.Printf("books: skipping unsupported file %s", entry.Name())
				continue
			}
			docs = append(docs, doc)
		}
		if len(docs) == 0 {
			continue
		}

		// First directory with supported files wins; directories are
		// alternatives, not merged sources.
		sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })

		report := &Report{Directory: dir}
		log.Printf("books: found %d files in %s", len(docs), dir)
		for _, doc := range docs {
			s.ingestFile(ctx, doc, report)
		}
		log.Printf("books: done in %s: %d processed, %d skipped, %d failed",
			dir, len(report.Processed), len(report.Skipped), len(report.Failed))
		return report, nil
	}

	log.Printf("books: no supported files found in any candidate directory")
	return &Report{}, nil
}

func (s *Service) ingestFile(ctx context.Context, doc domain.Document, report *Report) {
	done, err := s.alreadyIngested(ctx, doc.Name)
	if err != nil {
		log.Printf("books: %s: failed to check ingestion state: %v", doc.Name, err)
		telemetry.CaptureError(ctx, err)
		report.Failed = append(report.Failed, doc.Name)
		return
	}
	if done {
		log.Printf("books: %s already ingested, skipping", doc.Name)
		report.Skipped = append(report.Skipped, doc.Name)
		return
	}

	text, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		// Extraction failures never propagate past the file boundary.
		log.Printf("books: %s: extraction failed: %v", doc.Name, err)
		telemetry.CaptureError(ctx, err)
		report.Failed = append(report.Failed, doc.Name)
		return
	}
	if utf8.RuneCountInString(text) <= s.cfg.MinBookChars {
		log.Printf("books: %s: too little text extracted (%d chars), skipping", doc.Name, utf8.RuneCountInString(text))
		report.Skipped = append(report.Skipped, doc.Name)
		return
	}

	if err := s.ChunkAndStore(ctx, doc.Name, text); err != nil {
		log.Printf("books: %s: failed to store: %v", doc.Name, err)
		telemetry.CaptureError(ctx, err)
		report.Failed = append(report.Failed, doc.Name)
		return
	}

	report.Processed = append(report.Processed, doc.Name)
}

// alreadyIngested decides whether a book can be skipped. A book is done only
// when its ingestion record says complete; a pending or failed record means a
// previous run stopped mid-book, so its partial chunks are deleted and the
// book is ingested from scratch. Books stored before ingestion tracking
// existed fall back to the chunk-count check.
func (s *Service) alreadyIngested(ctx context.Context, bookName string) (bool, error) {
	ingestion, err := s.ingestions.GetByBook(ctx, bookName)
	if err != nil {
		if errors.Is(err, domain.ErrIngestionNotFound) {
			count, countErr := s.chunks.CountByBook(ctx, bookName)
			if countErr != nil {
				return false, countErr
			}
			return count > 0, nil
		}
		return false, err
	}

	if ingestion.Status == domain.IngestionStatusComplete {
		return true, nil
	}

	log.Printf("books: %s left %s by a previous run, discarding partial chunks", bookName, ingestion.Status)
	if err := s.chunks.DeleteByBook(ctx, bookName); err != nil {
		return false, err
	}
	return false, nil
}

// ChunkAndStore splits text into chunks, tags each one, and persists them in
// batches with retry-on-failure. Chunks from committed batches stay persisted
// even when a later batch exhausts its retries; the ingestion record is then
// marked failed so the next run redoes the book.
func (s *Service) ChunkAndStore(ctx context.Context, bookName, text string) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.ChunkAndStore", telemetry.SpanAttributes{
		BookName:  bookName,
		Operation: "chunk_and_store",
	})
	defer span.End()

	if err := s.ingestions.Start(ctx, &domain.BookIngestion{
		ID:        s.uuidGen.NewString(),
		BookName:  bookName,
		Status:    domain.IngestionStatusPending,
		StartedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}

	pieces := s.chunker.Split(text)
	batch := make([]domain.KnowledgeChunk, 0, s.cfg.BatchSize)
	stored := 0

	for i, piece := range pieces {
		if s.chunker.TooShort(piece) {
			continue
		}
		batch = append(batch, domain.KnowledgeChunk{
			BookName: bookName,
			// Numbering follows the split index, so dropped short pieces
			// leave gaps in the stored labels.
			ChapterLabel: fmt.Sprintf("Part %d", i+1),
			Content:      piece,
			Keywords:     s.tagger.Keywords(piece),
			Category:     s.tagger.Category(piece),
		})
		if len(batch) >= s.cfg.BatchSize {
			if err := s.storeBatch(ctx, batch); err != nil {
				span.SetError(err)
				s.markFailed(ctx, bookName, err)
				return err
			}
			stored += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := s.storeBatch(ctx, batch); err != nil {
			span.SetError(err)
			s.markFailed(ctx, bookName, err)
			return err
		}
		stored += len(batch)
	}

	if err := s.ingestions.MarkComplete(ctx, bookName, stored); err != nil {
		return err
	}

	log.Printf("books: %s stored as %d chunks", bookName, stored)
	return nil
}

// storeBatch commits one batch, retrying with a connection reset and a short
// delay between attempts.
func (s *Service) storeBatch(ctx context.Context, batch []domain.KnowledgeChunk) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		lastErr = s.chunks.InsertBatch(ctx, batch)
		if lastErr == nil {
			return nil
		}
		log.Printf("books: batch insert failed (attempt %d/%d): %v", attempt, s.cfg.MaxRetries, lastErr)
		if attempt == s.cfg.MaxRetries {
			break
		}
		telemetry.AddBreadcrumb(ctx, "ingest",
			fmt.Sprintf("batch insert attempt %d/%d failed, resetting connection", attempt, s.cfg.MaxRetries))
		if s.resetter != nil {
			s.resetter.Reset()
		}
		s.sleep(s.cfg.RetryDelay)
	}
	return domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "batch insert retries exhausted", lastErr)
}

func (s *Service) markFailed(ctx context.Context, bookName string, cause error) {
	if err := s.ingestions.MarkFailed(ctx, bookName, cause.Error()); err != nil {
		log.Printf("books: %s: failed to record ingestion failure: %v", bookName, err)
	}
}
