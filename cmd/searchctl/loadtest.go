package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var defaultLoadQueries = []string{
	"quarterly budget",
	"meeting schedule",
	"invoice payment",
	"project deadline",
	"contract review",
	"travel expenses",
	"team offsite",
	"customer feedback",
}

type loadRecorder struct {
	mu        sync.Mutex
	total     int64
	latencies []time.Duration
	statuses  map[int]int64
	failed    int64
	cacheHits int64
}

func newLoadRecorder() *loadRecorder {
	return &loadRecorder{statuses: make(map[int]int64)}
}

func (r *loadRecorder) record(took time.Duration, status int, cacheHit bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total++
	if err != nil {
		r.failed++
		return
	}
	r.latencies = append(r.latencies, took)
	r.statuses[status]++
	if status < 200 || status >= 300 {
		r.failed++
	}
	if cacheHit {
		r.cacheHits++
	}
}

type latencySummary struct {
	MinMs float64 `json:"min_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P90Ms float64 `json:"p90_ms"`
	P99Ms float64 `json:"p99_ms"`
	MaxMs float64 `json:"max_ms"`
}

type loadReport struct {
	Target      string         `json:"target"`
	Requests    int64          `json:"requests"`
	Failed      int64          `json:"failed"`
	CacheHits   int64          `json:"cache_hits"`
	PerSecond   float64        `json:"requests_per_second"`
	Latency     latencySummary `json:"latency"`
	StatusCodes map[int]int64  `json:"status_codes"`
}

func (r *loadRecorder) report(target string, elapsed time.Duration) loadReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := loadReport{
		Target:      target,
		Requests:    r.total,
		Failed:      r.failed,
		CacheHits:   r.cacheHits,
		StatusCodes: make(map[int]int64, len(r.statuses)),
	}
	for code, n := range r.statuses {
		rep.StatusCodes[code] = n
	}
	if elapsed > 0 {
		rep.PerSecond = math.Round(float64(rep.Requests)/elapsed.Seconds()*100) / 100
	}
	if len(r.latencies) == 0 {
		return rep
	}

	sorted := slices.Clone(r.latencies)
	slices.Sort(sorted)
	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	rep.Latency = latencySummary{
		MinMs: ms(sorted[0]),
		AvgMs: ms(sum / time.Duration(len(sorted))),
		P50Ms: ms(percentile(sorted, 50)),
		P90Ms: ms(percentile(sorted, 90)),
		P99Ms: ms(percentile(sorted, 99)),
		MaxMs: ms(sorted[len(sorted)-1]),
	}
	return rep
}

func ms(d time.Duration) float64 {
	return math.Round(float64(d)/float64(time.Millisecond)*1000) / 1000
}

// percentile uses the nearest-rank method on an ascending slice.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

func loadtestCommand(c *cli.Context) error {
	target := strings.TrimRight(c.String("url"), "/") + "/search"
	concurrency := c.Int("concurrency")
	if concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}
	queries := defaultLoadQueries
	if c.NArg() > 0 {
		queries = c.Args().Slice()
	}

	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        concurrency * 2,
			MaxIdleConnsPerHost: concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	defer client.CloseIdleConnections()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("duration"))
	defer cancel()

	rec := newLoadRecorder()
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < concurrency; w++ {
		next := w
		g.Go(func() error {
			for gctx.Err() == nil {
				query := queries[next%len(queries)]
				next++
				took, status, hit, err := searchOnce(gctx, client, target, query, c.Int("limit"))
				if gctx.Err() != nil {
					return nil
				}
				rec.record(took, status, hit, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	rep := rec.report(target, time.Since(start))
	if err := printJSON(c, rep); err != nil {
		return err
	}
	if rep.Requests == rep.Failed {
		return fmt.Errorf("no successful requests against %s", target)
	}
	return nil
}

func searchOnce(ctx context.Context, client *http.Client, target, query string, limit int) (time.Duration, int, bool, error) {
	body, err := json.Marshal(map[string]any{"query": query, "limit": limit})
	if err != nil {
		return 0, 0, false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, 0, false, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return time.Since(start), 0, false, err
	}
	defer resp.Body.Close()

	var decoded struct {
		CacheHit bool `json:"cache_hit"`
	}
	if resp.StatusCode == http.StatusOK {
		_ = json.NewDecoder(resp.Body).Decode(&decoded)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return time.Since(start), resp.StatusCode, decoded.CacheHit, nil
}
