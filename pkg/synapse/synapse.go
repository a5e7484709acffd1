// Package synapse is the narrow call surface offered to embedding callers.
// Every result set is bounded by a caller-supplied maximum; results beyond
// the maximum are dropped and the full count is returned alongside.
package synapse

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/extractor"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/store"
)

// Version identifies the call surface, not the build.
const Version = "1.0.0-synapse"

type Hit struct {
	ID      int64   `json:"id"`
	Score   float32 `json:"score"`
	Snippet string  `json:"snippet"`
}

type Service struct {
	engine    *indexer.Engine
	extractor *extractor.Extractor
}

// New wires a Service to an existing engine and extractor. A nil
// extractor selects the built-in rules.
func New(engine *indexer.Engine, ext *extractor.Extractor) *Service {
	if ext == nil {
		ext = extractor.Default()
	}
	return &Service{
		engine:    engine,
		extractor: ext,
	}
}

// Add indexes one document. timestamp is in unix seconds; zero means now.
func (s *Service) Add(id int64, content, subject, sender string, timestamp int64) error {
	doc := store.Document{
		ID:     id,
		Title:  subject,
		Body:   content,
		Sender: sender,
	}
	if timestamp != 0 {
		doc.Timestamp = time.Unix(timestamp, 0).UTC()
	}
	return s.engine.Add(doc)
}

// Query returns at most limit ranked hits. limit <= 0 yields no hits.
func (s *Service) Query(text string, limit int) []Hit {
	if limit <= 0 {
		return []Hit{}
	}
	results := s.engine.Search(text, limit)
	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			ID:      r.ID,
			Score:   float32(r.Score),
			Snippet: r.Snippet,
		}
	}
	return hits
}

// Extract returns at most limit pattern matches and the number found.
func (s *Service) Extract(text string, limit int) ([]extractor.Match, int) {
	matches := s.extractor.Extract(text)
	return truncate(matches, limit), len(matches)
}

// Numbers returns at most limit quantities and the number found.
func (s *Service) Numbers(text string, limit int) ([]extractor.Quantity, int) {
	quantities := extractor.Numbers(text)
	return truncate(quantities, limit), len(quantities)
}

func (s *Service) Count() int64 {
	return s.engine.Count()
}

func (s *Service) Version() string {
	return Version
}

func truncate[T any](items []T, limit int) []T {
	if limit <= 0 {
		return items[:0]
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
