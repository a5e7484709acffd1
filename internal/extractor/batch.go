package extractor

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// ExtractBatch runs Extract over texts on a bounded worker pool. Result i
// holds the matches of texts[i]. Cancelling ctx stops new work from being
// submitted; texts already in flight finish before ExtractBatch returns.
func (e *Extractor) ExtractBatch(ctx context.Context, texts []string) ([][]Match, error) {
	results := make([][]Match, len(texts))
	if len(texts) == 0 {
		return results, nil
	}

	size := e.workers
	if size > len(texts) {
		size = len(texts)
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("creating extraction pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var submitErr error
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			submitErr = err
			break
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i] = e.Extract(text)
		}); err != nil {
			wg.Done()
			submitErr = fmt.Errorf("submitting text %d: %w", i, err)
			break
		}
	}
	wg.Wait()

	if submitErr != nil {
		return nil, submitErr
	}
	return results, nil
}
