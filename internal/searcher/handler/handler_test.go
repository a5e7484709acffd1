package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/extractor"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-core/pkg/redis"
)

type mapStore struct {
	data map[string]string
}

func (s *mapStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", pkgredis.ErrNil
	}
	return v, nil
}

func (s *mapStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.data[key] = string(value.([]byte))
	return nil
}

type fixture struct {
	engine  *indexer.Engine
	metrics *metrics.Metrics
	mux     *http.ServeMux
	handler *Handler
}

func newFixture(t *testing.T, withCache bool) *fixture {
	t.Helper()
	engine := indexer.NewEngine()
	docs := []store.Document{
		{ID: 1, Title: "Budget review", Body: "The quarterly budget review is scheduled for 2024-01-15.", Sender: "alice@example.com"},
		{ID: 2, Title: "Travel plans", Body: "Bob Jones travels to Paris. Budget approved at $1,200.00."},
		{ID: 3, Title: "Lunch", Body: "Sandwiches at noon."},
	}
	for _, d := range docs {
		require.NoError(t, engine.Add(d))
	}

	m := metrics.New(prometheus.NewRegistry())
	opts := Options{Metrics: m, Version: "test"}
	if withCache {
		opts.Cache = cache.New(&mapStore{data: map[string]string{}}, time.Minute, nil, m)
	}
	h := New(engine, extractor.Default(), config.SearchConfig{DefaultLimit: 10, MaxResults: 2}, opts)
	mux := http.NewServeMux()
	h.Register(mux)
	return &fixture{engine: engine, metrics: m, mux: mux, handler: h}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestSearchPost(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/search", map[string]any{"query": "budget"})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[searchResponse](t, rec)
	assert.Equal(t, "budget", resp.Query)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Results, 2)
	// Document 1 mentions budget twice and wins.
	assert.Equal(t, int64(1), resp.Results[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SearchQueriesTotal.WithLabelValues("hit")))
}

func TestSearchGet(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/search?q=paris&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[searchResponse](t, rec)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(2), resp.Results[0].ID)
}

func TestSearchLimitCappedAtMaxResults(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/search", map[string]any{"query": "budget travel lunch", "limit": 50})
	resp := decodeBody[searchResponse](t, rec)
	assert.Len(t, resp.Results, 2)
}

func TestSearchEmptyQuery(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/search", map[string]any{"query": "  !! "})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[searchResponse](t, rec)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.Total)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SearchQueriesTotal.WithLabelValues("zero_result")))
}

func TestSearchBadRequests(t *testing.T) {
	f := newFixture(t, false)

	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/search", map[string]any{"query": "budget", "limit": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/search?q=budget&limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchCached(t *testing.T) {
	f := newFixture(t, true)

	first := decodeBody[searchResponse](t, f.do(t, http.MethodPost, "/search", map[string]any{"query": "budget"}))
	second := decodeBody[searchResponse](t, f.do(t, http.MethodPost, "/search", map[string]any{"query": "Budget!"}))
	assert.False(t, first.CacheHit)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Results[0].ID, second.Results[0].ID)

	// A new document bumps the generation, so the next query recomputes.
	require.NoError(t, f.engine.Add(store.Document{ID: 9, Title: "Budget budget budget"}))
	third := decodeBody[searchResponse](t, f.do(t, http.MethodPost, "/search", map[string]any{"query": "budget"}))
	assert.False(t, third.CacheHit)
	assert.Equal(t, int64(9), third.Results[0].ID)
}

func TestExtract(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/extract", map[string]any{
		"text": "Mail alice@example.com about $1,200.00 before 2024-01-15.",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[extractResponse](t, rec)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, []extractor.Match{
		{Type: extractor.TypeEmail, Value: "alice@example.com"},
		{Type: extractor.TypeAmount, Value: "$1,200.00"},
		{Type: extractor.TypeDate, Value: "2024-01-15"},
	}, resp.Patterns)
	assert.Equal(t, 1, resp.ByType[extractor.TypeEmail])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PatternsExtracted.WithLabelValues(extractor.TypeEmail)))
}

func TestExtractEmptyText(t *testing.T) {
	f := newFixture(t, false)
	resp := decodeBody[extractResponse](t, f.do(t, http.MethodPost, "/extract", map[string]any{"text": ""}))
	assert.NotNil(t, resp.Patterns)
	assert.Equal(t, 0, resp.Count)
}

func TestExtractBatch(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/extract", map[string]any{
		"texts": []string{"bob@example.com", "nothing here", "2024-03-10 and 2024-03-12"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[batchExtractResponse](t, rec)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, 1, resp.Results[0].Count)
	assert.Equal(t, 0, resp.Results[1].Count)
	assert.Equal(t, 2, resp.Results[2].Count)
	assert.Equal(t, 3, resp.Count)
}

func TestNumbers(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/numbers", map[string]any{"text": "Revenue hit $2.5M, up 18%."})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Numbers []extractor.Quantity `json:"numbers"`
		Count   int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, 2500000.0, resp.Numbers[0].Value)
	assert.Equal(t, "%", resp.Numbers[1].Unit)
}

func TestAnalyze(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodPost, "/analyze", map[string]any{
		"text": "The cat sat. The cat ran! Where is the cat?",
		"top":  1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[analyzeResponse](t, rec)
	assert.Equal(t, 3, resp.SentenceCount)
	assert.Equal(t, "en", resp.Language)
	require.Len(t, resp.Keywords, 1)
	assert.Equal(t, "cat", resp.Keywords[0].Word)
	assert.Equal(t, 3, resp.Keywords[0].Count)
	assert.Len(t, resp.Bigrams, 1)
}

func TestStats(t *testing.T) {
	f := newFixture(t, true)
	rec := f.do(t, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Index indexer.Stats    `json:"index"`
		Rules []string         `json:"rules"`
		Cache map[string]int64 `json:"cache"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Index.Documents)
	assert.Equal(t, []string{"email", "amount", "date", "person"}, resp.Rules)
	assert.Contains(t, resp.Cache, "hits")
}

func TestTerms(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/terms?prefix=BUD", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Terms []indexer.TermStat `json:"terms"`
		Count int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, indexer.TermStat{Term: "budget", DocFreq: 2, Postings: 2}, resp.Terms[0])

	rec = f.do(t, http.MethodGet, "/terms?limit=3", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)

	rec = f.do(t, http.MethodGet, "/terms?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	var requests atomic.Int64
	requests.Store(41)
	engine := indexer.NewEngine()
	require.NoError(t, engine.Add(store.Document{ID: 1, Title: "one"}))
	h := New(engine, extractor.Default(), config.SearchConfig{DefaultLimit: 10, MaxResults: 100}, Options{
		Requests: &requests,
		Version:  "1.2.3",
	})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, ServiceName, resp["service"])
	assert.Equal(t, "1.2.3", resp["version"])
	assert.Equal(t, 41.0, resp["requests"])
	assert.Equal(t, 1.0, resp["documents"])
	assert.Contains(t, resp, "uptime")
}

func TestSearchLogsSpans(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	f := newFixture(t, true)
	rec := f.do(t, http.MethodPost, "/search", map[string]any{"query": "budget"})
	require.Equal(t, http.StatusOK, rec.Code)

	out := logs.String()
	assert.Contains(t, out, "span=search")
	assert.Contains(t, out, "span=cache")
	assert.Contains(t, out, "span=rank")
	assert.Contains(t, out, "query=budget")
	assert.Contains(t, out, "hit=false")
}
