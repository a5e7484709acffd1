// Package indexer owns the process-wide search index: the inverted index,
// the document store and the document counter, guarded by one lock.
package indexer

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
)

const (
	// DefaultLimit is used when Search is called with a non-positive limit.
	DefaultLimit = 20
	// SnippetLength is the number of body bytes returned with each result.
	SnippetLength = 200
)

// Result is one ranked search hit.
type Result struct {
	ID        int64     `json:"id"`
	Score     float64   `json:"score"`
	Title     string    `json:"title"`
	Snippet   string    `json:"snippet"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats is a point-in-time view of the index size.
type Stats struct {
	Documents int64 `json:"documents"`
	Stored    int   `json:"stored"`
	Terms     int   `json:"terms"`
	Postings  int   `json:"postings"`
	Tokens    int64 `json:"tokens"`
}

// TermStat describes one indexed term. DocFreq counts distinct documents;
// Postings also counts the extra postings left by re-added ids.
type TermStat struct {
	Term     string `json:"term"`
	DocFreq  int    `json:"doc_freq"`
	Postings int    `json:"postings"`
}

// Engine is safe for concurrent use. Add and Search serialise on a single
// mutex; Count is a lock-free read.
type Engine struct {
	mu          sync.Mutex
	memIndex    *index.MemoryIndex
	docs        *store.Store
	totalTokens int64
	docCount    atomic.Int64
	logger      *slog.Logger
}

func NewEngine() *Engine {
	return &Engine{
		memIndex: index.NewMemoryIndex(),
		docs:     store.New(),
		logger:   slog.Default().With("component", "indexer"),
	}
}

// Add indexes doc. It fails with ErrInvalidDocument when the id is zero or
// the title is blank. Re-adding an existing id replaces the stored text and
// appends a second set of postings; both sets keep contributing to scores.
func (e *Engine) Add(doc store.Document) error {
	if doc.ID == 0 {
		return fmt.Errorf("%w: id must be non-zero", apperrors.ErrInvalidDocument)
	}
	if strings.TrimSpace(doc.Title) == "" {
		return fmt.Errorf("%w: document %d has an empty title", apperrors.ErrInvalidDocument, doc.ID)
	}
	if doc.Timestamp.IsZero() {
		doc.Timestamp = time.Now().UTC()
	}

	e.mu.Lock()
	replaced := e.docs.Put(doc)
	tokenCount := e.memIndex.AddDocument(doc.ID, doc.Text())
	e.totalTokens += int64(tokenCount)
	count := e.docCount.Add(1)
	e.mu.Unlock()

	if replaced {
		e.logger.Warn("document id re-added, stored text replaced",
			"doc_id", doc.ID,
		)
	}
	e.logger.Debug("document indexed",
		"doc_id", doc.ID,
		"token_count", tokenCount,
		"doc_count", count,
	)
	return nil
}

// Search returns up to limit documents ranked by TF-IDF for query. A query
// with no indexable terms, or whose terms are all unknown, yields an empty
// slice.
func (e *Engine) Search(query string, limit int) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}
	terms := tokenizer.Unique(tokenizer.Tokenize(query))
	if len(terms) == 0 {
		return []Result{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	postingsPerTerm := make(map[string]index.PostingList, len(terms))
	for _, term := range terms {
		if postings := e.memIndex.Postings(term); len(postings) > 0 {
			postingsPerTerm[term] = postings
		}
	}
	if len(postingsPerTerm) == 0 {
		return []Result{}
	}

	ranked := ranker.Rank(postingsPerTerm, e.docCount.Load(), limit)
	results := make([]Result, 0, len(ranked))
	for _, scored := range ranked {
		doc, ok := e.docs.Get(scored.DocID)
		if !ok {
			// Postings are only written together with the document.
			panic(fmt.Sprintf("indexer: posting references unknown document %d", scored.DocID))
		}
		results = append(results, Result{
			ID:        doc.ID,
			Score:     scored.Score,
			Title:     doc.Title,
			Snippet:   Snippet(doc.Body),
			Timestamp: doc.Timestamp,
		})
	}
	return results
}

// Count is the number of successful Add calls so far.
func (e *Engine) Count() int64 {
	return e.docCount.Load()
}

// Get returns the stored document with the given id.
func (e *Engine) Get(id int64) (store.Document, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.docs.Get(id)
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Documents: e.docCount.Load(),
		Stored:    e.docs.Len(),
		Terms:     e.memIndex.Terms(),
		Postings:  e.memIndex.PostingCount(),
		Tokens:    e.totalTokens,
	}
}

// Terms lists up to limit indexed terms starting with prefix, in term
// order. limit <= 0 lists them all.
func (e *Engine) Terms(prefix string, limit int) []TermStat {
	e.mu.Lock()
	entries := e.memIndex.Snapshot(prefix)
	e.mu.Unlock()

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	stats := make([]TermStat, 0, len(entries))
	for _, entry := range entries {
		docs := make(map[int64]struct{}, len(entry.Postings))
		for _, p := range entry.Postings {
			docs[p.DocID] = struct{}{}
		}
		stats = append(stats, TermStat{
			Term:     entry.Term,
			DocFreq:  len(docs),
			Postings: len(entry.Postings),
		})
	}
	return stats
}

// Snippet returns the first SnippetLength bytes of body. The cut is
// byte-based and may split a multi-byte character.
func Snippet(body string) string {
	if len(body) <= SnippetLength {
		return body
	}
	return body[:SnippetLength]
}
