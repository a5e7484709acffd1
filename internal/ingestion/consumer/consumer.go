// Package consumer reads ingest events from Kafka and feeds them to the
// ingestion pipeline.
package consumer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/metrics"
)

// Ingester is the single-record write path of the pipeline.
type Ingester interface {
	Ingest(ctx context.Context, rec ingestion.Record) error
}

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start consumes until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that ingests every event.
// Undecodable and invalid events are logged and acknowledged so one bad
// message cannot stall the partition; any other failure leaves the
// message uncommitted.
func HandleMessage(ing Ingester, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	record := func(outcome string) {
		if m != nil {
			m.IngestEventsProcessed.WithLabelValues(outcome).Inc()
		}
	}
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event",
				"error", err,
				"key", string(key),
			)
			record("undecodable")
			return nil
		}
		logger.Debug("processing ingest event", "doc_id", event.ID)

		if err := ing.Ingest(ctx, event.Record()); err != nil {
			if errors.Is(err, apperrors.ErrInvalidDocument) {
				logger.Warn("invalid ingest event skipped",
					"doc_id", event.ID,
					"error", err,
				)
				record("invalid")
				return nil
			}
			return err
		}
		record("indexed")
		logger.Info("document indexed", "doc_id", event.ID)
		return nil
	}
}
