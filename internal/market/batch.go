package market

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	// batchChunkSize bounds memory and logging noise per pass.
	batchChunkSize = 20
	// maxInFlight caps simultaneous fetches across the whole batch,
	// regardless of batch size.
	maxInFlight = 10
)

// QuoteBatch fetches quotes for all symbols concurrently, chunked and gated
// by a weighted semaphore. The returned map holds exactly one entry per
// distinct input symbol; symbols whose chain was exhausted map to nil so the
// caller can pick its own fallback pricing.
func (a *Aggregator) QuoteBatch(ctx context.Context, symbols []string) map[string]*Quote {
	out := make(map[string]*Quote, len(symbols))
	if len(symbols) == 0 {
		return out
	}

	// Deduplicate while preserving order; duplicate symbols share one fetch.
	uniq := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, seen := out[s]; !seen {
			out[s] = nil
			uniq = append(uniq, s)
		}
	}

	start := time.Now()
	sem := semaphore.NewWeighted(maxInFlight)
	var mu sync.Mutex

	for _, chunk := range chunkSymbols(uniq, batchChunkSize) {
		var wg sync.WaitGroup
		for _, symbol := range chunk {
			if err := sem.Acquire(ctx, 1); err != nil {
				break // context canceled; remaining symbols stay nil
			}
			wg.Add(1)
			go func(symbol string) {
				defer wg.Done()
				defer sem.Release(1)
				q := a.Quote(ctx, symbol)
				mu.Lock()
				out[symbol] = q
				mu.Unlock()
			}(symbol)
		}
		wg.Wait()
	}

	resolved := 0
	for _, q := range out {
		if q != nil {
			resolved++
		}
	}
	a.log.Info().Int("symbols", len(uniq)).Int("resolved", resolved).
		Dur("elapsed", time.Since(start)).Msg("batch quote fetch complete")
	return out
}

func chunkSymbols(in []string, size int) [][]string {
	if size <= 0 || len(in) <= size {
		return [][]string{in}
	}
	out := make([][]string, 0, (len(in)+size-1)/size)
	for i := 0; i < len(in); i += size {
		j := i + size
		if j > len(in) {
			j = len(in)
		}
		out = append(out, in[i:j])
	}
	return out
}
