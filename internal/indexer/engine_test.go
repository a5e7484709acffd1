package indexer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
)

func seed(t *testing.T, e *Engine, docs ...store.Document) {
	t.Helper()
	for _, doc := range docs {
		require.NoError(t, e.Add(doc))
	}
}

func TestAddRejectsInvalidDocuments(t *testing.T) {
	e := NewEngine()

	err := e.Add(store.Document{ID: 0, Title: "no id"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidDocument))

	err = e.Add(store.Document{ID: 5, Title: "   ", Body: "body only"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidDocument))

	assert.Equal(t, int64(0), e.Count())
	assert.Empty(t, e.Search("body", 10))
}

func TestAddIncrementsCount(t *testing.T) {
	e := NewEngine()
	for i := int64(1); i <= 5; i++ {
		before := e.Count()
		require.NoError(t, e.Add(store.Document{ID: i, Title: fmt.Sprintf("doc %d", i)}))
		assert.Equal(t, before+1, e.Count())
	}
}

func TestSearchUniqueTerm(t *testing.T) {
	e := NewEngine()
	seed(t, e,
		store.Document{ID: 1, Title: "Quarterly report", Body: "revenue grew in the third quarter"},
		store.Document{ID: 2, Title: "Travel itinerary", Body: "flight to paris on monday"},
		store.Document{ID: 3, Title: "Meeting notes", Body: "discussed the quarterly revenue"},
	)

	results := e.Search("paris", 10)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].ID)
	assert.Greater(t, results[0].Score, 0.0)
	assert.Equal(t, "Travel itinerary", results[0].Title)
	assert.Equal(t, "flight to paris on monday", results[0].Snippet)
}

func TestSearchRanksByRelevance(t *testing.T) {
	e := NewEngine()
	seed(t, e,
		store.Document{ID: 1, Title: "Revenue", Body: "revenue revenue revenue summary"},
		store.Document{ID: 2, Title: "Summary", Body: "short revenue mention"},
		store.Document{ID: 3, Title: "Unrelated", Body: "nothing to see"},
	)

	results := e.Search("revenue summary", 10)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].ID)
	assert.Equal(t, int64(2), results[1].ID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestSearchTieBreaksByID(t *testing.T) {
	e := NewEngine()
	seed(t, e,
		store.Document{ID: 30, Title: "same words", Body: "alpha"},
		store.Document{ID: 10, Title: "same words", Body: "alpha"},
		store.Document{ID: 20, Title: "same words", Body: "alpha"},
	)

	results := e.Search("alpha", 10)
	require.Len(t, results, 3)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, []int64{10, 20, 30}, []int64{results[0].ID, results[1].ID, results[2].ID})
}

func TestSearchIsRepeatable(t *testing.T) {
	e := NewEngine()
	for i := int64(1); i <= 50; i++ {
		seed(t, e, store.Document{
			ID:    i,
			Title: fmt.Sprintf("ledger entry %d", i%7),
			Body:  strings.Repeat("transfer ", int(i%5)+1) + "account balance",
		})
	}
	first := e.Search("transfer balance ledger", 20)
	require.NotEmpty(t, first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, e.Search("transfer balance ledger", 20))
	}
}

func TestSearchNoMatches(t *testing.T) {
	e := NewEngine()
	seed(t, e, store.Document{ID: 1, Title: "hello", Body: "world"})

	assert.Empty(t, e.Search("absent missing", 10))
	assert.NotNil(t, e.Search("absent", 10))
	assert.Empty(t, e.Search("", 10))
	assert.Empty(t, e.Search("!! ? a", 10))
}

func TestSearchLimit(t *testing.T) {
	e := NewEngine()
	for i := int64(1); i <= 30; i++ {
		seed(t, e, store.Document{ID: i, Title: "common term"})
	}
	assert.Len(t, e.Search("common", 5), 5)
	assert.Len(t, e.Search("common", 0), DefaultLimit)
	assert.Len(t, e.Search("common", -1), DefaultLimit)
}

func TestSearchSnippetTruncation(t *testing.T) {
	e := NewEngine()
	body := strings.Repeat("x", 150) + " needle " + strings.Repeat("y", 150)
	seed(t, e, store.Document{ID: 1, Title: "long", Body: body})

	results := e.Search("needle", 1)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Snippet, SnippetLength)
	assert.Equal(t, body[:SnippetLength], results[0].Snippet)
}

func TestSearchMatchesTitleAndSender(t *testing.T) {
	e := NewEngine()
	seed(t, e, store.Document{ID: 9, Title: "Invoice", Body: "see attached", Sender: "billing"})

	require.Len(t, e.Search("invoice", 10), 1)
	require.Len(t, e.Search("billing", 10), 1)
}

func TestReAddReplacesStoredDocument(t *testing.T) {
	e := NewEngine()
	seed(t, e,
		store.Document{ID: 1, Title: "first version", Body: "apple"},
		store.Document{ID: 1, Title: "second version", Body: "banana"},
	)

	assert.Equal(t, int64(2), e.Count())
	doc, ok := e.Get(1)
	require.True(t, ok)
	assert.Equal(t, "second version", doc.Title)

	// Both generations of postings stay searchable and point at the
	// replacement text.
	results := e.Search("apple", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "banana", results[0].Snippet)
}

func TestGetAndStats(t *testing.T) {
	e := NewEngine()
	seed(t, e,
		store.Document{ID: 1, Title: "hello world", Body: "hello"},
		store.Document{ID: 2, Title: "goodbye", Body: "world"},
	)

	_, ok := e.Get(3)
	assert.False(t, ok)
	doc, ok := e.Get(2)
	require.True(t, ok)
	assert.False(t, doc.Timestamp.IsZero())

	stats := e.Stats()
	assert.Equal(t, int64(2), stats.Documents)
	assert.Equal(t, 2, stats.Stored)
	assert.Equal(t, 3, stats.Terms)
	assert.Equal(t, 4, stats.Postings)
	assert.Equal(t, int64(5), stats.Tokens)
}

func TestTerms(t *testing.T) {
	e := NewEngine()
	seed(t, e,
		store.Document{ID: 1, Title: "budget review", Body: "budget"},
		store.Document{ID: 2, Title: "budget plan"},
		store.Document{ID: 1, Title: "budget again"},
	)

	terms := e.Terms("b", 0)
	require.Len(t, terms, 1)
	assert.Equal(t, TermStat{Term: "budget", DocFreq: 2, Postings: 3}, terms[0])

	all := e.Terms("", 2)
	require.Len(t, all, 2)
	assert.Equal(t, "again", all[0].Term)
	assert.Equal(t, "budget", all[1].Term)
	assert.Empty(t, e.Terms("zzz", 10))
}

func TestConcurrentAdd(t *testing.T) {
	const n = 64
	e := NewEngine()

	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			assert.NoError(t, e.Add(store.Document{
				ID:    id,
				Title: fmt.Sprintf("report%d", id),
				Body:  "shared body text",
			}))
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, int64(n), e.Count())
	for i := int64(1); i <= n; i++ {
		results := e.Search(fmt.Sprintf("report%d", i), 5)
		require.Len(t, results, 1, "document %d", i)
		assert.Equal(t, i, results[0].ID)
	}
}

func TestConcurrentAddAndSearch(t *testing.T) {
	e := NewEngine()
	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			_ = e.Add(store.Document{ID: id, Title: "concurrent", Body: "payload"})
		}(int64(i))
		go func() {
			defer wg.Done()
			before := e.Count()
			_ = e.Search("payload", 10)
			assert.GreaterOrEqual(t, e.Count(), before)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(20), e.Count())
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", Snippet("short"))
	assert.Equal(t, "", Snippet(""))
	assert.Len(t, Snippet(strings.Repeat("z", 500)), SnippetLength)
}

func BenchmarkSearch(b *testing.B) {
	e := NewEngine()
	for i := int64(1); i <= 5000; i++ {
		_ = e.Add(store.Document{
			ID:    i,
			Title: fmt.Sprintf("document %d", i),
			Body:  fmt.Sprintf("wire transfer batch %d cleared account %d", i%97, i%13),
		})
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Search("transfer account cleared", 20)
	}
}
