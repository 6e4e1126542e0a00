package ingest

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/lesli-ai/leslibot/internal/domain"
	"github.com/lesli-ai/leslibot/internal/telemetry"
)

const (
	// minSearchWordRunes drops very short query words in the per-word
	// pass; the fallback pass still sees the full query.
	minSearchWordRunes = 3
	// fallbackPoolMultiplier widens the candidate pool for the secondary
	// pass when the per-word pass finds nothing.
	fallbackPoolMultiplier = 4
)

// Search returns up to limit chunks whose content or keywords contain the
// query as a case-insensitive substring. Multi-word queries are searched
// per word and the results unioned, deduplicated by content. An empty result
// is not an error: the caller must present "no knowledge" explicitly.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Search", telemetry.SpanAttributes{
		Operation: "search",
	})
	defer span.End()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return []domain.SearchResult{}, nil
	}

	seen := make(map[string]struct{})
	results := make([]domain.SearchResult, 0, limit)

	for _, word := range strings.Fields(query) {
		if utf8.RuneCountInString(word) < minSearchWordRunes {
			continue
		}
		matches, err := s.chunks.SearchSubstring(ctx, word, limit)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			if _, ok := seen[match.Content]; ok {
				continue
			}
			seen[match.Content] = struct{}{}
			results = append(results, match)
			if len(results) >= limit {
				return results, nil
			}
		}
	}
	if len(results) > 0 {
		return results, nil
	}

	// Secondary pass: the whole raw query against a larger candidate pool.
	// This also covers queries made entirely of words too short for the
	// per-word pass.
	matches, err := s.chunks.SearchSubstring(ctx, query, limit*fallbackPoolMultiplier)
	if err != nil {
		return nil, err
	}
	for _, match := range matches {
		if _, ok := seen[match.Content]; ok {
			continue
		}
		seen[match.Content] = struct{}{}
		results = append(results, match)
		if len(results) >= limit {
			break
		}
	}

	return results, nil
}

// Books lists ingested books with their stored chunk counts.
func (s *Service) Books(ctx context.Context) ([]domain.BookSummary, error) {
	return s.chunks.ListBooks(ctx)
}
