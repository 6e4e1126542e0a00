package domain

import "time"

// IngestionStatus tracks how far a book has progressed through ingestion.
type IngestionStatus string

const (
	IngestionStatusPending  IngestionStatus = "pending"
	IngestionStatusComplete IngestionStatus = "complete"
	IngestionStatusFailed   IngestionStatus = "failed"
)

// BookIngestion records per-book ingestion state. A book counts as ingested
// only when Status is complete; a pending or failed record means a previous
// run stopped mid-book and its partial chunks are discarded before the book
// is ingested again.
type BookIngestion struct {
	ID          string
	BookName    string
	Status      IngestionStatus
	ChunkCount  int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}
