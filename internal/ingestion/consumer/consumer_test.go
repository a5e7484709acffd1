package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion/pipeline"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/metrics"
)

type erroringIngester struct{ err error }

func (e erroringIngester) Ingest(context.Context, ingestion.Record) error { return e.err }

func encode(t *testing.T, event ingestion.IngestEvent) []byte {
	t.Helper()
	b, err := json.Marshal(event)
	require.NoError(t, err)
	return b
}

func TestHandleMessageIndexes(t *testing.T) {
	engine := indexer.NewEngine()
	m := metrics.New(prometheus.NewRegistry())
	handle := HandleMessage(pipeline.New(engine), m)

	at := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	err := handle(context.Background(), []byte("42"), encode(t, ingestion.IngestEvent{
		ID:         42,
		Title:      "Shipping manifest",
		Content:    "containers unloaded at dock seven",
		IngestedAt: at,
	}))
	require.NoError(t, err)

	doc, ok := engine.Get(42)
	require.True(t, ok)
	assert.Equal(t, at, doc.Timestamp)
	assert.Len(t, engine.Search("manifest", 5), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestEventsProcessed.WithLabelValues("indexed")))
}

func TestHandleMessageSkipsBadEvents(t *testing.T) {
	engine := indexer.NewEngine()
	m := metrics.New(prometheus.NewRegistry())
	handle := HandleMessage(pipeline.New(engine), m)

	assert.NoError(t, handle(context.Background(), nil, []byte("{not json")))
	assert.NoError(t, handle(context.Background(), nil, encode(t, ingestion.IngestEvent{ID: 0, Title: "no id"})))

	assert.Equal(t, int64(0), engine.Count())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestEventsProcessed.WithLabelValues("undecodable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestEventsProcessed.WithLabelValues("invalid")))
}

func TestHandleMessagePropagatesOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	handle := HandleMessage(erroringIngester{err: boom}, nil)

	err := handle(context.Background(), nil, encode(t, ingestion.IngestEvent{ID: 1, Title: "t"}))
	assert.ErrorIs(t, err, boom)
}
