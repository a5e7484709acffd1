// Package handler serves the query side of the search core over HTTP:
// ranked search, pattern and number extraction, text analysis and the
// service health summary.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/extractor"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/textstats"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/tracing"
)

const (
	ServiceName = "search-core"

	defaultTopWords = 10
	maxTopWords     = 100
	defaultTerms    = 100
	maxTerms        = 1000
	maxBodyBytes    = 2 << 20
)

// Index is the read side of the index engine.
type Index interface {
	Search(query string, limit int) []indexer.Result
	Count() int64
	Stats() indexer.Stats
	Terms(prefix string, limit int) []indexer.TermStat
}

// Options carries the optional collaborators of a Handler.
type Options struct {
	Cache    *cache.QueryCache
	Metrics  *metrics.Metrics
	Requests *atomic.Int64
	Version  string
}

type Handler struct {
	index        Index
	extractor    *extractor.Extractor
	cache        *cache.QueryCache
	metrics      *metrics.Metrics
	requests     *atomic.Int64
	version      string
	started      time.Time
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

func New(idx Index, ext *extractor.Extractor, cfg config.SearchConfig, opts Options) *Handler {
	requests := opts.Requests
	if requests == nil {
		requests = new(atomic.Int64)
	}
	return &Handler{
		index:        idx,
		extractor:    ext,
		cache:        opts.Cache,
		metrics:      opts.Metrics,
		requests:     requests,
		version:      opts.Version,
		started:      time.Now(),
		defaultLimit: cfg.DefaultLimit,
		maxResults:   cfg.MaxResults,
		logger:       logger.WithComponent("search-handler"),
	}
}

// Register mounts every route of the handler on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /search", h.Search)
	mux.HandleFunc("POST /search", h.Search)
	mux.HandleFunc("POST /extract", h.Extract)
	mux.HandleFunc("POST /numbers", h.Numbers)
	mux.HandleFunc("POST /analyze", h.Analyze)
	mux.HandleFunc("GET /stats", h.Stats)
	mux.HandleFunc("GET /terms", h.Terms)
	mux.HandleFunc("GET /health", h.Health)
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Results  []indexer.Result `json:"results"`
	Total    int              `json:"total"`
	Query    string           `json:"query"`
	CacheHit bool             `json:"cache_hit"`
	TookMs   int64            `json:"took_ms"`
}

// Search accepts either a JSON body {query, limit} or, on GET, the q and
// limit query parameters. An empty query returns no results.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req searchRequest
	if r.Method == http.MethodGet {
		req.Query = r.URL.Query().Get("q")
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil {
				h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			req.Limit = parsed
		}
	} else if !h.decode(w, r, &req) {
		return
	}

	if req.Limit < 0 {
		h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	limit := h.clampLimit(req.Limit)

	ctx, span := tracing.Start(ctx, "search", logger.RequestID(ctx))
	defer func() {
		span.End()
		span.Log(log)
	}()
	span.SetAttr("query", req.Query)
	span.SetAttr("limit", limit)

	rank := func() ([]indexer.Result, error) {
		_, rs := tracing.Start(ctx, "rank", "")
		defer rs.End()
		return h.index.Search(req.Query, limit), nil
	}

	var (
		results  []indexer.Result
		cacheHit bool
		err      error
	)
	cacheStatus := "disabled"
	if h.cache != nil {
		cctx, cs := tracing.Start(ctx, "cache", "")
		results, cacheHit, err = h.cache.GetOrCompute(cctx, req.Query, limit, h.index.Count(), rank)
		cs.SetAttr("hit", cacheHit)
		cs.End()
		cacheStatus = "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
	} else {
		results, err = rank()
	}
	if err != nil {
		log.Error("search failed", "query", req.Query, "error", err)
		h.observeSearch("error", cacheStatus, 0, start)
		h.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	resultType := "hit"
	if len(results) == 0 {
		resultType = "zero_result"
	}
	h.observeSearch(resultType, cacheStatus, len(results), start)

	took := time.Since(start)
	log.Info("search completed",
		"query", req.Query,
		"limit", limit,
		"returned", len(results),
		"cache_hit", cacheHit,
		"latency_ms", took.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, searchResponse{
		Results:  results,
		Total:    len(results),
		Query:    req.Query,
		CacheHit: cacheHit,
		TookMs:   took.Milliseconds(),
	})
}

type extractRequest struct {
	Text  string   `json:"text"`
	Texts []string `json:"texts"`
}

type extractResponse struct {
	Patterns []extractor.Match `json:"patterns"`
	Count    int               `json:"count"`
	ByType   map[string]int    `json:"by_type"`
}

type batchExtractResponse struct {
	Results []extractResponse `json:"results"`
	Count   int               `json:"count"`
}

// Extract runs the pattern rules over text. When texts is set instead, each
// entry is scanned on the extractor's worker pool and results come back in
// input order.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !h.decode(w, r, &req) {
		return
	}

	if len(req.Texts) > 0 {
		batches, err := h.extractor.ExtractBatch(r.Context(), req.Texts)
		if err != nil {
			logger.FromContext(r.Context()).Warn("batch extraction aborted", "error", err)
			h.writeError(w, http.StatusServiceUnavailable, "extraction cancelled")
			return
		}
		resp := batchExtractResponse{Results: make([]extractResponse, 0, len(batches))}
		for _, matches := range batches {
			h.observeMatches(matches)
			resp.Results = append(resp.Results, newExtractResponse(matches))
			resp.Count += len(matches)
		}
		h.writeJSON(w, http.StatusOK, resp)
		return
	}

	matches := h.extractor.Extract(req.Text)
	h.observeMatches(matches)
	h.writeJSON(w, http.StatusOK, newExtractResponse(matches))
}

func newExtractResponse(matches []extractor.Match) extractResponse {
	return extractResponse{
		Patterns: matches,
		Count:    len(matches),
		ByType:   extractor.CountByType(matches),
	}
}

type textRequest struct {
	Text string `json:"text"`
	Top  int    `json:"top"`
}

// Numbers returns every numeric quantity found in text.
func (h *Handler) Numbers(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}
	numbers := extractor.Numbers(req.Text)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"numbers": numbers,
		"count":   len(numbers),
	})
}

type analyzeResponse struct {
	textstats.Stats
	Keywords []textstats.WordFrequency `json:"keywords"`
	Bigrams  []textstats.NGram         `json:"bigrams"`
}

// Analyze returns descriptive statistics of text plus its top keywords and
// bigrams. top defaults to 10 and is capped at 100.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !h.decode(w, r, &req) {
		return
	}
	top := req.Top
	if top <= 0 {
		top = defaultTopWords
	}
	if top > maxTopWords {
		top = maxTopWords
	}

	report := textstats.Analyze(req.Text)
	bigrams := report.NGrams(2)
	if len(bigrams) > top {
		bigrams = bigrams[:top]
	}
	h.writeJSON(w, http.StatusOK, analyzeResponse{
		Stats:    report.Stats,
		Keywords: report.TopWords(top),
		Bigrams:  bigrams,
	})
}

// Stats reports the size of the index and, when enabled, cache counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"index": h.index.Stats(),
		"rules": h.extractor.Rules(),
	}
	if h.cache != nil {
		hits, misses := h.cache.Stats()
		resp["cache"] = map[string]int64{"hits": hits, "misses": misses}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Terms lists indexed terms with their document frequency. prefix filters
// them and limit defaults to 100, capped at 1000.
func (h *Handler) Terms(w http.ResponseWriter, r *http.Request) {
	limit := defaultTerms
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxTerms)
	}
	prefix := strings.ToLower(r.URL.Query().Get("prefix"))
	terms := h.index.Terms(prefix, limit)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"terms": terms,
		"count": len(terms),
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   ServiceName,
		"version":   h.version,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"requests":  h.requests.Load(),
		"documents": h.index.Count(),
	})
}

func (h *Handler) clampLimit(limit int) int {
	if limit == 0 {
		limit = h.defaultLimit
	}
	if h.maxResults > 0 && limit > h.maxResults {
		limit = h.maxResults
	}
	return limit
}

func (h *Handler) observeSearch(resultType, cacheStatus string, returned int, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	if resultType != "error" {
		h.metrics.SearchResultsCount.Observe(float64(returned))
	}
}

func (h *Handler) observeMatches(matches []extractor.Match) {
	if h.metrics == nil {
		return
	}
	for _, m := range matches {
		h.metrics.PatternsExtracted.WithLabelValues(m.Type).Inc()
	}
}

// decode reads a JSON body into dst, answering 400 itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
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
