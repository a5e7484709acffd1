package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion/pipeline"
)

func newMux(t *testing.T) (*http.ServeMux, *indexer.Engine) {
	t.Helper()
	engine := indexer.NewEngine()
	h := New(pipeline.New(engine), engine)
	mux := http.NewServeMux()
	h.Register(mux)
	return mux, engine
}

func post(mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(body)))
	return rec
}

func TestIngestCreated(t *testing.T) {
	mux, engine := newMux(t)
	rec := post(mux, `{"id": 7, "title": "Board minutes", "content": "Budget approved", "sender": "board@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp ingestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, int64(1), resp.Documents)

	results := engine.Search("budget", 10)
	require.Len(t, results, 1)
	assert.Equal(t, int64(7), results[0].ID)
}

func TestIngestValidationFailure(t *testing.T) {
	mux, engine := newMux(t)
	rec := post(mux, `{"id": 0, "title": "   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Error)
	assert.Contains(t, resp.Fields, "id")
	assert.Contains(t, resp.Fields, "title")
	assert.Equal(t, int64(0), engine.Count())
}

func TestIngestMalformedBody(t *testing.T) {
	mux, _ := newMux(t)
	rec := post(mux, `{"id": "seven"`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type failingIngester struct{ err error }

func (f failingIngester) Ingest(context.Context, ingestion.Record) error { return f.err }

func TestIngestInternalFailure(t *testing.T) {
	engine := indexer.NewEngine()
	h := New(failingIngester{err: errors.New("disk on fire")}, engine)
	rec := httptest.NewRecorder()
	h.Ingest(rec, httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(`{"id": 1, "title": "t"}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDocumentLookup(t *testing.T) {
	mux, _ := newMux(t)
	require.Equal(t, http.StatusCreated, post(mux, `{"id": 3, "title": "Travel", "content": "Paris"}`).Code)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Travel", doc["title"])
	assert.Equal(t, "Paris", doc["body"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
