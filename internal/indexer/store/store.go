// Package store holds the canonical text of every ingested document keyed
// by its caller-assigned id. A Store is not safe for concurrent use; the
// indexer engine serialises access under its own lock.
package store

import "time"

// Document is one ingested record. It is never modified after Put.
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Sender    string    `json:"sender,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Text is the concatenation of every indexed field.
func (d Document) Text() string {
	return d.Title + " " + d.Body + " " + d.Sender
}

type Store struct {
	docs map[int64]Document
}

func New() *Store {
	return &Store{docs: make(map[int64]Document)}
}

// Put stores doc, replacing any document with the same id. It reports
// whether a previous entry was replaced.
func (s *Store) Put(doc Document) (replaced bool) {
	_, replaced = s.docs[doc.ID]
	s.docs[doc.ID] = doc
	return replaced
}

func (s *Store) Get(id int64) (Document, bool) {
	doc, ok := s.docs[id]
	return doc, ok
}

func (s *Store) Len() int {
	return len(s.docs)
}
