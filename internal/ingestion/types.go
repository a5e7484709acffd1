// Package ingestion defines the record and event types of the document
// ingestion pipeline and drives records from a source into the index.
package ingestion

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/store"
)

// Record is one document as delivered by a source, the HTTP endpoint or a
// Kafka event.
type Record struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Document converts the record into its stored form.
func (r Record) Document() store.Document {
	return store.Document{
		ID:        r.ID,
		Title:     r.Title,
		Body:      r.Content,
		Sender:    r.Sender,
		Timestamp: r.Timestamp,
	}
}

// IngestEvent is the Kafka message payload on the document-ingest topic.
type IngestEvent struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Sender     string    `json:"sender,omitempty"`
	IngestedAt time.Time `json:"ingested_at"`
}

func (e IngestEvent) Record() Record {
	return Record{
		ID:        e.ID,
		Title:     e.Title,
		Content:   e.Content,
		Sender:    e.Sender,
		Timestamp: e.IngestedAt,
	}
}

// Result summarises one bulk load.
type Result struct {
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}
