package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lesli-ai/leslibot/internal/domain"
)

// MockChunkRepository is a mock implementation of ChunkRepositoryInterface
type MockChunkRepository struct {
	mock.Mock
}

func (m *MockChunkRepository) InsertBatch(ctx context.Context, chunks []domain.KnowledgeChunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

func (m *MockChunkRepository) CountByBook(ctx context.Context, bookName string) (int, error) {
	args := m.Called(ctx, bookName)
	return args.Int(0), args.Error(1)
}

func (m *MockChunkRepository) DeleteByBook(ctx context.Context, bookName string) error {
	args := m.Called(ctx, bookName)
	return args.Error(0)
}

func (m *MockChunkRepository) SearchSubstring(ctx context.Context, term string, limit int) ([]domain.SearchResult, error) {
	args := m.Called(ctx, term, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchResult), args.Error(1)
}

func (m *MockChunkRepository) ListBooks(ctx context.Context) ([]domain.BookSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BookSummary), args.Error(1)
}

// MockIngestionRepository is a mock implementation of IngestionRepositoryInterface
type MockIngestionRepository struct {
	mock.Mock
}

func (m *MockIngestionRepository) GetByBook(ctx context.Context, bookName string) (*domain.BookIngestion, error) {
	args := m.Called(ctx, bookName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookIngestion), args.Error(1)
}

func (m *MockIngestionRepository) Start(ctx context.Context, ingestion *domain.BookIngestion) error {
	args := m.Called(ctx, ingestion)
	return args.Error(0)
}

func (m *MockIngestionRepository) MarkComplete(ctx context.Context, bookName string, chunkCount int) error {
	args := m.Called(ctx, bookName, chunkCount)
	return args.Error(0)
}

func (m *MockIngestionRepository) MarkFailed(ctx context.Context, bookName string, cause string) error {
	args := m.Called(ctx, bookName, cause)
	return args.Error(0)
}

// stubExtractor serves canned text or errors per book name.
type stubExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (s *stubExtractor) Extract(_ context.Context, doc domain.Document) (string, error) {
	if err := s.errs[doc.Name]; err != nil {
		return "", err
	}
	return s.texts[doc.Name], nil
}

// stubResetter counts connection resets between batch retries.
type stubResetter struct {
	resets int
}

func (r *stubResetter) Reset() {
	r.resets++
}

func newTestService(chunks *MockChunkRepository, ingestions *MockIngestionRepository, extractor Extractor, cfg ServiceConfig) *Service {
	svc := NewService(chunks, ingestions, extractor, nil, cfg)
	svc.sleep = func(time.Duration) {}
	return svc
}

func longText(word string, n int) string {
	return strings.Repeat(word+" ", n)
}

func TestChunkAndStore(t *testing.T) {
	ctx := context.Background()

	t.Run("stores tagged chunks with part labels", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		svc := newTestService(chunks, ingestions, nil, ServiceConfig{
			Chunk: ChunkConfig{ChunkSize: 120, MinChars: 10},
		})

		ingestions.On("Start", mock.Anything, mock.MatchedBy(func(in *domain.BookIngestion) bool {
			return in.BookName == "book.txt" && in.Status == domain.IngestionStatusPending && in.ID != ""
		})).Return(nil)

		var stored []domain.KnowledgeChunk
		chunks.On("InsertBatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			stored = append(stored, args.Get(1).([]domain.KnowledgeChunk)...)
		}).Return(nil)
		ingestions.On("MarkComplete", mock.Anything, "book.txt", mock.Anything).Return(nil)

		text := longText("эскалация", 30)
		err := svc.ChunkAndStore(ctx, "book.txt", text)
		require.NoError(t, err)

		require.NotEmpty(t, stored)
		assert.Equal(t, "Part 1", stored[0].ChapterLabel)
		for i, chunk := range stored {
			assert.Equal(t, "book.txt", chunk.BookName)
			assert.Equal(t, "Part "+string(rune('1'+i)), chunk.ChapterLabel)
			assert.Contains(t, chunk.Keywords, "эскалация")
			assert.Equal(t, "общее", chunk.Category)
		}

		ingestions.AssertCalled(t, "MarkComplete", mock.Anything, "book.txt", len(stored))
	})

	t.Run("short tail chunk is dropped but counted chunks persist", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		svc := newTestService(chunks, ingestions, nil, ServiceConfig{
			Chunk: ChunkConfig{ChunkSize: 100, MinChars: 20},
		})

		ingestions.On("Start", mock.Anything, mock.Anything).Return(nil)
		chunks.On("InsertBatch", mock.Anything, mock.MatchedBy(func(batch []domain.KnowledgeChunk) bool {
			return len(batch) == 1
		})).Return(nil)
		ingestions.On("MarkComplete", mock.Anything, "book.txt", 1).Return(nil)

		// Splits into one full chunk and a tail below the content floor.
		text := longText("слово", 16) + " хвост"
		err := svc.ChunkAndStore(ctx, "book.txt", text)
		require.NoError(t, err)

		chunks.AssertExpectations(t)
		ingestions.AssertExpectations(t)
	})

	t.Run("batches are committed at the batch size", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		svc := newTestService(chunks, ingestions, nil, ServiceConfig{
			Chunk:     ChunkConfig{ChunkSize: 60, MinChars: 10},
			BatchSize: 2,
		})

		ingestions.On("Start", mock.Anything, mock.Anything).Return(nil)
		chunks.On("InsertBatch", mock.Anything, mock.Anything).Return(nil)
		ingestions.On("MarkComplete", mock.Anything, "book.txt", mock.Anything).Return(nil)

		// 5 chunks at BatchSize 2 means 3 InsertBatch calls.
		text := longText("наполнение", 25)
		err := svc.ChunkAndStore(ctx, "book.txt", text)
		require.NoError(t, err)

		chunks.AssertNumberOfCalls(t, "InsertBatch", 3)
	})

	t.Run("transient insert failures are retried with a pool reset", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		resetter := &stubResetter{}

		svc := NewService(chunks, ingestions, nil, resetter, ServiceConfig{
			Chunk:      ChunkConfig{ChunkSize: 200, MinChars: 10},
			MaxRetries: 3,
		})
		slept := 0
		svc.sleep = func(time.Duration) { slept++ }

		ingestions.On("Start", mock.Anything, mock.Anything).Return(nil)
		chunks.On("InsertBatch", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Twice()
		chunks.On("InsertBatch", mock.Anything, mock.Anything).Return(nil).Once()
		ingestions.On("MarkComplete", mock.Anything, "book.txt", mock.Anything).Return(nil)

		err := svc.ChunkAndStore(ctx, "book.txt", longText("слово", 20))
		require.NoError(t, err)

		assert.Equal(t, 2, resetter.resets)
		assert.Equal(t, 2, slept)
		ingestions.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("exhausted retries fail the book and mark the ingestion", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		svc := newTestService(chunks, ingestions, nil, ServiceConfig{
			Chunk:      ChunkConfig{ChunkSize: 200, MinChars: 10},
			MaxRetries: 3,
		})

		ingestions.On("Start", mock.Anything, mock.Anything).Return(nil)
		chunks.On("InsertBatch", mock.Anything, mock.Anything).Return(errors.New("database down"))
		ingestions.On("MarkFailed", mock.Anything, "book.txt", mock.Anything).Return(nil)

		err := svc.ChunkAndStore(ctx, "book.txt", longText("слово", 20))
		require.Error(t, err)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodePersistence, domainErr.Code)

		chunks.AssertNumberOfCalls(t, "InsertBatch", 3)
		ingestions.AssertCalled(t, "MarkFailed", mock.Anything, "book.txt", mock.Anything)
		ingestions.AssertNotCalled(t, "MarkComplete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAlreadyIngested(t *testing.T) {
	ctx := context.Background()

	t.Run("complete record skips the book", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		svc := newTestService(chunks, ingestions, nil, ServiceConfig{})

		ingestions.On("GetByBook", mock.Anything, "book.txt").Return(&domain.BookIngestion{
			BookName: "book.txt",
			Status:   domain.IngestionStatusComplete,
		}, nil)

		done, err := svc.alreadyIngested(ctx, "book.txt")
		require.NoError(t, err)
		assert.True(t, done)
	})

	t.Run("pending record discards partial chunks and redoes the book", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		svc := newTestService(chunks, ingestions, nil, ServiceConfig{})

		ingestions.On("GetByBook", mock.Anything, "book.txt").Return(&domain.BookIngestion{
			BookName: "book.txt",
			Status:   domain.IngestionStatusPending,
		}, nil)
		chunks.On("DeleteByBook", mock.Anything, "book.txt").Return(nil)

		done, err := svc.alreadyIngested(ctx, "book.txt")
		require.NoError(t, err)
		assert.False(t, done)

		chunks.AssertCalled(t, "DeleteByBook", mock.Anything, "book.txt")
	})

	t.Run("no record falls back to chunk count", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		svc := newTestService(chunks, ingestions, nil, ServiceConfig{})

		ingestions.On("GetByBook", mock.Anything, "old.txt").Return(nil, domain.ErrIngestionNotFound)
		chunks.On("CountByBook", mock.Anything, "old.txt").Return(42, nil)

		done, err := svc.alreadyIngested(ctx, "old.txt")
		require.NoError(t, err)
		assert.True(t, done)
	})

	t.Run("no record and no chunks means fresh book", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		svc := newTestService(chunks, ingestions, nil, ServiceConfig{})

		ingestions.On("GetByBook", mock.Anything, "new.txt").Return(nil, domain.ErrIngestionNotFound)
		chunks.On("CountByBook", mock.Anything, "new.txt").Return(0, nil)

		done, err := svc.alreadyIngested(ctx, "new.txt")
		require.NoError(t, err)
		assert.False(t, done)
	})
}

func TestIngestDirectory(t *testing.T) {
	ctx := context.Background()

	freshBook := func(ingestions *MockIngestionRepository, chunks *MockChunkRepository, name string) {
		ingestions.On("GetByBook", mock.Anything, name).Return(nil, domain.ErrIngestionNotFound)
		chunks.On("CountByBook", mock.Anything, name).Return(0, nil)
	}

	t.Run("first directory with supported files wins", func(t *testing.T) {
		empty := t.TempDir()
		books := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(books, "a.txt"), []byte("x"), 0o644))

		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		extractor := &stubExtractor{texts: map[string]string{"a.txt": longText("слово", 40)}}
		svc := newTestService(chunks, ingestions, extractor, ServiceConfig{
			Chunk: ChunkConfig{ChunkSize: 100, MinChars: 10},
		})

		freshBook(ingestions, chunks, "a.txt")
		ingestions.On("Start", mock.Anything, mock.Anything).Return(nil)
		chunks.On("InsertBatch", mock.Anything, mock.Anything).Return(nil)
		ingestions.On("MarkComplete", mock.Anything, "a.txt", mock.Anything).Return(nil)

		report, err := svc.IngestDirectory(ctx, []string{empty, books})
		require.NoError(t, err)

		assert.Equal(t, books, report.Directory)
		assert.Equal(t, []string{"a.txt"}, report.Processed)
	})

	t.Run("no candidate directory yields an empty report", func(t *testing.T) {
		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		svc := newTestService(chunks, ingestions, &stubExtractor{}, ServiceConfig{})

		report, err := svc.IngestDirectory(ctx, []string{"/nonexistent/a", "/nonexistent/b"})
		require.NoError(t, err)

		assert.Empty(t, report.Directory)
		assert.Empty(t, report.Processed)
	})

	t.Run("extraction failure is isolated to its file", func(t *testing.T) {
		books := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(books, "bad.pdf"), []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(books, "good.txt"), []byte("x"), 0o644))

		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		extractor := &stubExtractor{
			texts: map[string]string{"good.txt": longText("слово", 40)},
			errs:  map[string]error{"bad.pdf": errors.New("malformed xref table")},
		}
		svc := newTestService(chunks, ingestions, extractor, ServiceConfig{
			Chunk: ChunkConfig{ChunkSize: 100, MinChars: 10},
		})

		freshBook(ingestions, chunks, "bad.pdf")
		freshBook(ingestions, chunks, "good.txt")
		ingestions.On("Start", mock.Anything, mock.Anything).Return(nil)
		chunks.On("InsertBatch", mock.Anything, mock.Anything).Return(nil)
		ingestions.On("MarkComplete", mock.Anything, "good.txt", mock.Anything).Return(nil)

		report, err := svc.IngestDirectory(ctx, []string{books})
		require.NoError(t, err)

		assert.Equal(t, []string{"bad.pdf"}, report.Failed)
		assert.Equal(t, []string{"good.txt"}, report.Processed)
	})

	t.Run("books with too little text are skipped", func(t *testing.T) {
		books := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(books, "tiny.txt"), []byte("x"), 0o644))

		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		extractor := &stubExtractor{texts: map[string]string{"tiny.txt": "слишком мало текста"}}
		svc := newTestService(chunks, ingestions, extractor, ServiceConfig{MinBookChars: 100})

		freshBook(ingestions, chunks, "tiny.txt")

		report, err := svc.IngestDirectory(ctx, []string{books})
		require.NoError(t, err)

		assert.Equal(t, []string{"tiny.txt"}, report.Skipped)
		chunks.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
	})

	t.Run("already ingested books are skipped", func(t *testing.T) {
		books := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(books, "done.txt"), []byte("x"), 0o644))

		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		svc := newTestService(chunks, ingestions, &stubExtractor{}, ServiceConfig{})

		ingestions.On("GetByBook", mock.Anything, "done.txt").Return(&domain.BookIngestion{
			BookName: "done.txt",
			Status:   domain.IngestionStatusComplete,
		}, nil)

		report, err := svc.IngestDirectory(ctx, []string{books})
		require.NoError(t, err)

		assert.Equal(t, []string{"done.txt"}, report.Skipped)
		chunks.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
	})

	t.Run("unsupported files are ignored", func(t *testing.T) {
		books := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(books, "notes.md"), []byte("x"), 0o644))

		chunks := new(MockChunkRepository)
		ingestions := new(MockIngestionRepository)
		svc := newTestService(chunks, ingestions, &stubExtractor{}, ServiceConfig{})

		report, err := svc.IngestDirectory(ctx, []string{books})
		require.NoError(t, err)

		assert.Empty(t, report.Directory)
		assert.Empty(t, report.Processed)
		assert.Empty(t, report.Failed)
	})
}
