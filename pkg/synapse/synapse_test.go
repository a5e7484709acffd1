package synapse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
)

func newService(t *testing.T) (*Service, *indexer.Engine) {
	t.Helper()
	engine := indexer.NewEngine()
	return New(engine, nil), engine
}

func TestAddAndQuery(t *testing.T) {
	svc, engine := newService(t)

	require.NoError(t, svc.Add(1, "wire transfer to offshore account", "Transfer", "ops", 1700000000))
	require.NoError(t, svc.Add(2, "lunch menu for friday", "Menu", "", 0))
	assert.Equal(t, int64(2), svc.Count())

	doc, ok := engine.Get(1)
	require.True(t, ok)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), doc.Timestamp)
	assert.Equal(t, "Transfer", doc.Title)

	hits := svc.Query("offshore", 10)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.Greater(t, hits[0].Score, float32(0))
	assert.Equal(t, "wire transfer to offshore account", hits[0].Snippet)
}

func TestAddInvalid(t *testing.T) {
	svc, _ := newService(t)
	assert.ErrorIs(t, svc.Add(0, "body", "subject", "", 0), apperrors.ErrInvalidDocument)
	assert.ErrorIs(t, svc.Add(1, "body", "", "", 0), apperrors.ErrInvalidDocument)
	assert.Equal(t, int64(0), svc.Count())
}

func TestQueryBoundedByMax(t *testing.T) {
	svc, _ := newService(t)
	for i := int64(1); i <= 10; i++ {
		require.NoError(t, svc.Add(i, "shared term", "doc", "", 0))
	}
	assert.Len(t, svc.Query("shared", 3), 3)
	assert.Empty(t, svc.Query("shared", 0))
	assert.Empty(t, svc.Query("absent", 3))
}

func TestExtractTruncates(t *testing.T) {
	svc, _ := newService(t)
	text := "Alice Smith paid $500,000 to Bob Jones on 2024-01-15"

	all, total := svc.Extract(text, 100)
	assert.Equal(t, 4, total)
	assert.Len(t, all, 4)

	some, total := svc.Extract(text, 2)
	assert.Equal(t, 4, total)
	assert.Equal(t, all[:2], some)

	none, total := svc.Extract(text, 0)
	assert.Equal(t, 4, total)
	assert.Empty(t, none)
}

func TestNumbersTruncates(t *testing.T) {
	svc, _ := newService(t)
	got, total := svc.Numbers("$2.5M and 3k and 40%", 2)
	assert.Equal(t, 3, total)
	require.Len(t, got, 2)
	assert.InDelta(t, 2500000.0, got[0].Value, 1e-6)
	assert.InDelta(t, 3000.0, got[1].Value, 1e-6)
}

func TestVersion(t *testing.T) {
	svc, _ := newService(t)
	assert.Equal(t, Version, svc.Version())
}
