package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion"
)

const selectDocuments = `SELECT id, title, content, sender, created_at FROM documents ORDER BY id`

// Postgres streams rows of the documents table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Name() string {
	return "postgres:documents"
}

func (p *Postgres) Each(ctx context.Context, fn func(ingestion.Record) error) error {
	rows, err := p.db.QueryContext(ctx, selectDocuments)
	if err != nil {
		return fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec       ingestion.Record
			title     sql.NullString
			content   sql.NullString
			sender    sql.NullString
			createdAt sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &title, &content, &sender, &createdAt); err != nil {
			return fmt.Errorf("scanning document row: %w", err)
		}
		// A NULL title leaves Title empty and the record is skipped downstream.
		rec.Title = title.String
		rec.Content = content.String
		rec.Sender = sender.String
		if createdAt.Valid {
			rec.Timestamp = createdAt.Time.UTC()
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating document rows: %w", err)
	}
	return nil
}
