package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion"
)

// JSONFile streams a JSON array of records from disk without loading the
// whole file.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

func (j *JSONFile) Name() string {
	return "json:" + j.path
}

func (j *JSONFile) Each(ctx context.Context, fn func(ingestion.Record) error) error {
	f, err := os.Open(j.path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", j.path, err)
	}
	defer f.Close()
	return DecodeJSON(ctx, f, fn)
}

// DecodeJSON reads a JSON array of records from r one element at a time.
// An element that is valid JSON but does not fit a Record, such as a
// string or fractional id, is passed on as a zero Record so the caller's
// skip path counts it. Broken JSON syntax still ends the stream.
func DecodeJSON(ctx context.Context, r io.Reader, fn func(ingestion.Record) error) error {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading array start: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("expected a JSON array, found %v", tok)
	}
	for index := 0; dec.More(); index++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decoding record %d: %w", index, err)
		}
		var rec ingestion.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			rec = ingestion.Record{}
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("reading array end: %w", err)
	}
	return nil
}
