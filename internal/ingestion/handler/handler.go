// Package handler serves the write side of the search core over HTTP:
// direct document ingestion and lookup by id.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/logger"
)

const maxBodyBytes = 2 << 20

// Ingester validates and indexes a single record.
type Ingester interface {
	Ingest(ctx context.Context, rec ingestion.Record) error
}

// DocumentGetter looks up stored documents.
type DocumentGetter interface {
	Get(id int64) (store.Document, bool)
	Count() int64
}

type Handler struct {
	ingester Ingester
	docs     DocumentGetter
	logger   *slog.Logger
}

func New(ing Ingester, docs DocumentGetter) *Handler {
	return &Handler{
		ingester: ing,
		docs:     docs,
		logger:   logger.WithComponent("ingestion-handler"),
	}
}

// Register mounts the document routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /documents", h.Ingest)
	mux.HandleFunc("GET /documents/{id}", h.Document)
}

type ingestResponse struct {
	ID        int64 `json:"id"`
	Documents int64 `json:"documents"`
}

// Ingest indexes the JSON record in the body. It answers 201 with the new
// document count, or 400 with per-field messages when the record is invalid.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var rec ingestion.Record
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.ingester.Ingest(ctx, rec); err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("ingestion failed",
			"doc_id", rec.ID,
			"error", err,
			"status_code", statusCode,
		)
		h.writeError(w, statusCode, "ingestion failed")
		return
	}

	log.Info("document ingested", "doc_id", rec.ID)
	h.writeJSON(w, http.StatusCreated, ingestResponse{
		ID:        rec.ID,
		Documents: h.docs.Count(),
	})
}

// Document returns the stored form of one document.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	doc, ok := h.docs.Get(id)
	if !ok {
		h.writeError(w, apperrors.HTTPStatusCode(apperrors.ErrNotFound), "document not found")
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
