// Package validator checks ingestion records before they reach the index
// and returns per-field error details.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
)

const (
	maxTitleLength  = 1024
	maxSenderLength = 320
	maxBodyLength   = 1048576
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

// Unwrap lets callers match a ValidationError with ErrInvalidDocument.
func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidDocument
}

// ValidateRecord rejects records the index would refuse: a zero id or a
// blank title. Oversized fields are rejected as well.
func ValidateRecord(rec *ingestion.Record) error {
	errs := make(map[string]string)

	if rec.ID == 0 {
		errs["id"] = "id is required and must be non-zero"
	}
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		errs["title"] = "title is required"
	} else if len(title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	}
	if len(rec.Content) > maxBodyLength {
		errs["content"] = fmt.Sprintf("content must be at most %d characters", maxBodyLength)
	}
	if len(rec.Sender) > maxSenderLength {
		errs["sender"] = fmt.Sprintf("sender must be at most %d characters", maxSenderLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
