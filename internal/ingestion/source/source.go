// Package source provides the record streams a bulk load reads from.
package source

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion"
)

// Source streams records in order. Each stops at the first error returned
// by fn and returns it unchanged.
type Source interface {
	Name() string
	Each(ctx context.Context, fn func(ingestion.Record) error) error
}

// Slice serves records from memory.
type Slice struct {
	name    string
	records []ingestion.Record
}

func NewSlice(name string, records []ingestion.Record) *Slice {
	return &Slice{name: name, records: records}
}

func (s *Slice) Name() string {
	return s.name
}

func (s *Slice) Each(ctx context.Context, fn func(ingestion.Record) error) error {
	for _, rec := range s.records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// Sample serves the built-in demonstration corpus.
func Sample() *Slice {
	return NewSlice("sample", ingestion.SampleRecords())
}
