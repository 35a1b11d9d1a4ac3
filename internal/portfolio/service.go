package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"finledger/internal/ledger"
	"finledger/internal/market"
)

// Quoter fetches quotes for a set of symbols; absent symbols map to nil.
type Quoter interface {
	QuoteBatch(ctx context.Context, symbols []string) map[string]*market.Quote
}

// Store is the position persistence the service depends on.
type Store interface {
	Create(ctx context.Context, p *ledger.Position) error
	GetByID(ctx context.Context, id uuid.UUID) (*ledger.Position, error)
	List(ctx context.Context, status *ledger.Status) ([]ledger.Position, error)
	Update(ctx context.Context, id uuid.UUID, upd ledger.Update) (*ledger.Position, error)
	Sell(ctx context.Context, id uuid.UUID, price decimal.Decimal, date time.Time) (*ledger.Position, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ActiveSymbols(ctx context.Context) ([]string, error)
}

// Overview is the full portfolio payload: valued positions plus derived
// summary and insights.
type Overview struct {
	Positions []EnrichedPosition `json:"positions"`
	Summary   Summary            `json:"summary"`
	Insights  []Insight          `json:"insights"`
}

// Service orchestrates positions and market data.
type Service struct {
	store  Store
	quotes Quoter
	log    zerolog.Logger
}

func NewService(store Store, quotes Quoter, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		quotes: quotes,
		log:    log.With().Str("component", "portfolio").Logger(),
	}
}

// Overview lists positions (optionally filtered by status), values them
// against live quotes, and derives the summary and insights.
func (s *Service) Overview(ctx context.Context, status *ledger.Status) (*Overview, error) {
	positions, err := s.store.List(ctx, status)
	if err != nil {
		return nil, err
	}

	enriched := EnrichAll(positions, s.fetchQuotes(ctx, positions))
	summary := Summarize(enriched)
	insights := GenerateInsights(enriched, summary)

	s.log.Debug().Int("positions", len(enriched)).
		Int("insights", len(insights)).Msg("portfolio overview built")
	return &Overview{Positions: enriched, Summary: summary, Insights: insights}, nil
}

// GetEnriched values a single position.
func (s *Service) GetEnriched(ctx context.Context, id uuid.UUID) (*EnrichedPosition, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	quotes := s.fetchQuotes(ctx, []ledger.Position{*p})
	e := Enrich(*p, quotes[p.Symbol])
	return &e, nil
}

func (s *Service) Create(ctx context.Context, p *ledger.Position) error {
	return s.store.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, upd ledger.Update) (*ledger.Position, error) {
	return s.store.Update(ctx, id, upd)
}

// Sell closes a position at the given price.
func (s *Service) Sell(ctx context.Context, id uuid.UUID, price decimal.Decimal, date time.Time) (*ledger.Position, error) {
	return s.store.Sell(ctx, id, price, date)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// RefreshSymbols returns the distinct symbols that need live pricing.
func (s *Service) RefreshSymbols(ctx context.Context) ([]string, error) {
	symbols, err := s.store.ActiveSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh symbols: %w", err)
	}
	return symbols, nil
}

// fetchQuotes requests quotes for every position that needs live pricing.
// Sold positions are valued at their recorded sale price, so their symbols
// are excluded from the batch.
func (s *Service) fetchQuotes(ctx context.Context, positions []ledger.Position) map[string]*market.Quote {
	var symbols []string
	seen := make(map[string]struct{})
	for _, p := range positions {
		if p.Status == ledger.StatusSold {
			continue
		}
		if _, ok := seen[p.Symbol]; ok {
			continue
		}
		seen[p.Symbol] = struct{}{}
		symbols = append(symbols, p.Symbol)
	}
	if len(symbols) == 0 {
		return nil
	}
	return s.quotes.QuoteBatch(ctx, symbols)
}
