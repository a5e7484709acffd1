package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutGet(t *testing.T) {
	s := New()
	replaced := s.Put(Document{ID: 1, Title: "first", Body: "body"})
	assert.False(t, replaced)

	doc, ok := s.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "first", doc.Title)

	_, ok = s.Get(2)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestPutReplaces(t *testing.T) {
	s := New()
	s.Put(Document{ID: 1, Title: "old"})
	replaced := s.Put(Document{ID: 1, Title: "new"})

	assert.True(t, replaced)
	doc, _ := s.Get(1)
	assert.Equal(t, "new", doc.Title)
	assert.Equal(t, 1, s.Len())
}

func TestDocumentText(t *testing.T) {
	doc := Document{Title: "Alice Smith", Body: "paid Bob", Sender: "ops"}
	assert.Equal(t, "Alice Smith paid Bob ops", doc.Text())
}
