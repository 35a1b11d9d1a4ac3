// Package scheduler runs the periodic quote refresh.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"finledger/internal/market"
)

// SymbolSource lists the symbols worth keeping warm.
type SymbolSource interface {
	RefreshSymbols(ctx context.Context) ([]string, error)
}

// Fetcher is the batch quote entry point the refresher drives.
type Fetcher interface {
	QuoteBatch(ctx context.Context, symbols []string) map[string]*market.Quote
}

// Refresher periodically fetches quotes for all active symbols so
// interactive requests hit a warm cache and provider quota use is smoothed
// instead of bursty.
type Refresher struct {
	cron    *cron.Cron
	source  SymbolSource
	fetcher Fetcher
	timeout time.Duration
	log     zerolog.Logger
}

func NewRefresher(source SymbolSource, fetcher Fetcher, log zerolog.Logger) *Refresher {
	return &Refresher{
		cron:    cron.New(),
		source:  source,
		fetcher: fetcher,
		timeout: 2 * time.Minute,
		log:     log.With().Str("component", "scheduler").Logger(),
	}
}

// Start registers the refresh job and starts the cron loop. An empty spec
// disables the refresher.
func (r *Refresher) Start(spec string) error {
	if spec == "" {
		r.log.Info().Msg("quote refresh disabled, no cron spec configured")
		return nil
	}
	if _, err := r.cron.AddFunc(spec, r.refresh); err != nil {
		return err
	}
	r.cron.Start()
	r.log.Info().Str("spec", spec).Msg("quote refresh scheduled")
	return nil
}

// Stop halts the cron loop and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info().Msg("quote refresh stopped")
}

func (r *Refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	symbols, err := r.source.RefreshSymbols(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("refresh skipped, symbol listing failed")
		return
	}
	if len(symbols) == 0 {
		return
	}

	start := time.Now()
	quotes := r.fetcher.QuoteBatch(ctx, symbols)

	resolved := 0
	for _, q := range quotes {
		if q != nil {
			resolved++
		}
	}
	r.log.Info().Int("symbols", len(symbols)).Int("resolved", resolved).
		Dur("elapsed", time.Since(start)).Msg("quote refresh complete")
}
