package domain

import "time"

// KnowledgeChunk is one stored unit of retrievable book text.
type KnowledgeChunk struct {
	ID           int64
	BookName     string
	ChapterLabel string
	Content      string
	// Keywords is a comma-joined list of vocabulary terms found in Content.
	Keywords  string
	Category  string
	CreatedAt time.Time
}

// SearchResult is the record returned to the bot layer for prompt assembly.
// Content is returned untruncated; trimming to prompt size is the caller's
// concern.
type SearchResult struct {
	BookName     string
	ChapterLabel string
	Content      string
	Keywords     string
	Category     string
}

// BookSummary reports how many chunks a stored book has.
type BookSummary struct {
	BookName   string
	ChunkCount int
}
