// Package market turns several unreliable, rate-limited quote providers
// into one best-effort service with bounded latency.
package market

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"finledger/internal/market/brandfetch"
	"finledger/internal/market/ratelimit"
)

// ChainEntry pairs a provider with its own limiter. A nil limiter means the
// provider is never denied (the terminal mock provider runs ungated).
type ChainEntry struct {
	Provider   Provider
	Limiter    *ratelimit.SlidingWindow
	Configured bool
}

// ProviderStatus is the diagnostics view of one chain entry.
type ProviderStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Available  bool   `json:"available"`
	Calls      int    `json:"calls_in_window"`
	Limit      int    `json:"limit"`
	Remaining  int    `json:"remaining"`
}

// Aggregator walks an ordered provider chain per operation, consulting each
// provider's limiter before the attempt and falling through on denial,
// transport failure, throttling, or empty data. Fallback is strictly
// sequential so worst-case latency stays bounded at one round trip per
// available provider.
type Aggregator struct {
	chain []ChainEntry
	logos *brandfetch.Client
	cache *quoteCache
	log   zerolog.Logger
}

// Config assembles an Aggregator. CacheTTL <= 0 disables the quote cache.
type Config struct {
	Chain    []ChainEntry
	Logos    *brandfetch.Client
	CacheTTL time.Duration
	CacheMax int
	Log      zerolog.Logger
}

func NewAggregator(cfg Config) *Aggregator {
	a := &Aggregator{
		chain: cfg.Chain,
		logos: cfg.Logos,
		log:   cfg.Log.With().Str("component", "market").Logger(),
	}
	if cfg.CacheTTL > 0 {
		a.cache = newQuoteCache(cfg.CacheTTL, cfg.CacheMax)
	}
	return a
}

// Quote resolves one symbol through the fallback chain. It returns nil only
// when the whole chain, terminal mock included, produced nothing, which in
// the default wiring cannot happen.
func (a *Aggregator) Quote(ctx context.Context, symbol string) *Quote {
	if a.cache != nil {
		if q, ok := a.cache.get(symbol); ok {
			return q
		}
	}

	for _, entry := range a.chain {
		if !entry.Configured {
			continue
		}
		if entry.Limiter != nil && !entry.Limiter.Allow() {
			a.log.Debug().Str("provider", entry.Provider.Name()).Str("symbol", symbol).
				Msg("rate limit reached, skipping provider")
			continue
		}
		if entry.Limiter != nil {
			entry.Limiter.Record()
		}

		q, err := entry.Provider.Quote(ctx, symbol)
		if err != nil {
			a.logAttempt(entry.Provider.Name(), symbol, err)
			continue
		}
		if q == nil {
			a.log.Debug().Str("provider", entry.Provider.Name()).Str("symbol", symbol).
				Msg("no quote data, trying next provider")
			continue
		}
		if a.cache != nil {
			a.cache.put(symbol, q)
		}
		return q
	}

	a.log.Warn().Str("symbol", symbol).Msg("provider chain exhausted for quote")
	return nil
}

// Search resolves keyword search through the fallback chain. An empty slice
// means every provider, mock included, had nothing.
func (a *Aggregator) Search(ctx context.Context, keywords string) []SearchResult {
	for _, entry := range a.chain {
		if !entry.Configured {
			continue
		}
		if entry.Limiter != nil && !entry.Limiter.Allow() {
			a.log.Debug().Str("provider", entry.Provider.Name()).
				Msg("rate limit reached, skipping provider for search")
			continue
		}
		if entry.Limiter != nil {
			entry.Limiter.Record()
		}

		results, err := entry.Provider.Search(ctx, keywords)
		if err != nil {
			a.logAttempt(entry.Provider.Name(), keywords, err)
			continue
		}
		if len(results) == 0 {
			continue
		}
		return results
	}

	a.log.Warn().Str("keywords", keywords).Msg("provider chain exhausted for search")
	return nil
}

// Logo resolves a ticker logo. There is no mock fallback here: absence is
// the legitimate terminal answer.
func (a *Aggregator) Logo(ctx context.Context, ticker string) brandfetch.Result {
	return a.logos.Logo(ctx, ticker)
}

// Status reports the limiter verdict for every chain entry at this instant.
func (a *Aggregator) Status() []ProviderStatus {
	out := make([]ProviderStatus, 0, len(a.chain))
	for _, entry := range a.chain {
		s := ProviderStatus{Name: entry.Provider.Name(), Configured: entry.Configured, Available: entry.Configured}
		if entry.Limiter != nil {
			s.Available = entry.Configured && entry.Limiter.Allow()
			s.Calls = entry.Limiter.Used()
			s.Limit = entry.Limiter.Limit()
			s.Remaining = entry.Limiter.Remaining()
		}
		out = append(out, s)
	}
	return out
}

func (a *Aggregator) logAttempt(provider, subject string, err error) {
	if errors.Is(err, ErrThrottled) {
		a.log.Warn().Str("provider", provider).Str("subject", subject).
			Msg("provider throttled, falling back")
		return
	}
	a.log.Warn().Err(err).Str("provider", provider).Str("subject", subject).
		Msg("provider attempt failed, falling back")
}
