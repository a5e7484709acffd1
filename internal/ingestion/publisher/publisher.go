// Package publisher streams records from a source onto the document-ingest
// topic, optionally persisting them to PostgreSQL first so a later bulk
// load from the documents table sees the same corpus.
package publisher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/postgres"
)

const (
	defaultBatchSize = 100

	upsertDocument = `INSERT INTO documents (id, title, content, sender, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, content = EXCLUDED.content,
		    sender = EXCLUDED.sender, created_at = EXCLUDED.created_at`
)

// EventWriter is the batch side of a Kafka producer.
type EventWriter interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

type Publisher struct {
	producer  EventWriter
	db        *postgres.Client
	batchSize int
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a Publisher. db may be nil to skip persistence.
func New(producer EventWriter, db *postgres.Client) *Publisher {
	return &Publisher{
		producer:  producer,
		db:        db,
		batchSize: defaultBatchSize,
		now:       time.Now,
		logger:    slog.Default().With("component", "publisher"),
	}
}

// Publish validates every record of src and sends the valid ones in
// batches. Invalid records are skipped and counted, matching the bulk
// load policy of the indexer.
func (p *Publisher) Publish(ctx context.Context, src source.Source) (ingestion.Result, error) {
	var result ingestion.Result
	batch := make([]ingestion.Record, 0, p.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.send(ctx, batch); err != nil {
			return err
		}
		result.Loaded += len(batch)
		batch = batch[:0]
		return nil
	}

	err := src.Each(ctx, func(rec ingestion.Record) error {
		if err := validator.ValidateRecord(&rec); err != nil {
			var verr *validator.ValidationError
			if errors.As(err, &verr) {
				result.Skipped++
				p.logger.Debug("record skipped", "record_id", rec.ID, "error", err)
				return nil
			}
			return err
		}
		if rec.Timestamp.IsZero() {
			rec.Timestamp = p.now().UTC()
		}
		batch = append(batch, rec)
		if len(batch) >= p.batchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		return result, fmt.Errorf("publishing from %s: %w", src.Name(), err)
	}
	p.logger.Info("publish complete",
		"source", src.Name(),
		"published", result.Loaded,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (p *Publisher) send(ctx context.Context, batch []ingestion.Record) error {
	if p.db != nil {
		if err := p.persist(ctx, batch); err != nil {
			return err
		}
	}
	events := make([]kafka.Event, len(batch))
	for i, rec := range batch {
		events[i] = kafka.Event{
			Key: strconv.FormatInt(rec.ID, 10),
			Value: ingestion.IngestEvent{
				ID:         rec.ID,
				Title:      rec.Title,
				Content:    rec.Content,
				Sender:     rec.Sender,
				IngestedAt: rec.Timestamp,
			},
		}
	}
	return p.producer.PublishBatch(ctx, events)
}

func (p *Publisher) persist(ctx context.Context, batch []ingestion.Record) error {
	return p.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertDocument)
		if err != nil {
			return fmt.Errorf("preparing upsert: %w", err)
		}
		defer stmt.Close()
		for _, rec := range batch {
			if _, err := stmt.ExecContext(ctx, rec.ID, rec.Title, rec.Content, nullableString(rec.Sender), rec.Timestamp); err != nil {
				return fmt.Errorf("upserting document %d: %w", rec.ID, err)
			}
		}
		return nil
	})
}

// nullableString stores the empty string as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
