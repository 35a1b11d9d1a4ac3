// Package portfolio derives valuation, summary and insight data from stored
// positions combined with live market quotes. Everything here is a pure
// function of its inputs; nothing derived is ever persisted.
package portfolio

import (
	"github.com/shopspring/decimal"

	"finledger/internal/ledger"
	"finledger/internal/market"
)

var hundred = decimal.NewFromInt(100)

// EnrichedPosition is a position valued against current market data.
// Priced is false when no live quote resolved and the cost basis was
// substituted as the current price.
type EnrichedPosition struct {
	ledger.Position
	CurrentPrice         decimal.Decimal `json:"current_price"`
	ChangePercent        decimal.Decimal `json:"change_percent"`
	TotalValue           decimal.Decimal `json:"total_value"`
	TotalInvested        decimal.Decimal `json:"total_invested"`
	TotalGainLoss        decimal.Decimal `json:"total_gain_loss"`
	TotalGainLossPercent decimal.Decimal `json:"total_gain_loss_percent"`
	DayChange            decimal.Decimal `json:"day_change"`
	Priced               bool            `json:"priced"`
}

// Enrich values one position against q. A nil quote falls back to the cost
// basis as current price with zero change. Sold positions are valued at
// their recorded sale price and carry no day change, a closed position has
// no "today".
func Enrich(p ledger.Position, q *market.Quote) EnrichedPosition {
	var (
		currentPrice  decimal.Decimal
		changePercent decimal.Decimal
		dayChangePer  decimal.Decimal
		priced        bool
	)
	switch {
	case p.Status == ledger.StatusSold && p.SalePrice != nil:
		currentPrice = *p.SalePrice
		priced = true
	case q != nil:
		currentPrice = q.Price
		changePercent = q.ChangePercent
		dayChangePer = q.Change
		priced = true
	default:
		currentPrice = p.AveragePrice
	}

	totalValue := p.Shares.Mul(currentPrice)
	totalInvested := p.Shares.Mul(p.AveragePrice)
	gainLoss := totalValue.Sub(totalInvested)

	var gainLossPercent decimal.Decimal
	if totalInvested.IsPositive() {
		gainLossPercent = gainLoss.Div(totalInvested).Mul(hundred).Round(2)
	}

	return EnrichedPosition{
		Position:             p,
		CurrentPrice:         currentPrice,
		ChangePercent:        changePercent,
		TotalValue:           totalValue,
		TotalInvested:        totalInvested,
		TotalGainLoss:        gainLoss,
		TotalGainLossPercent: gainLossPercent,
		DayChange:            p.Shares.Mul(dayChangePer),
		Priced:               priced,
	}
}

// EnrichAll values each position against the quote map keyed by symbol.
func EnrichAll(positions []ledger.Position, quotes map[string]*market.Quote) []EnrichedPosition {
	enriched := make([]EnrichedPosition, 0, len(positions))
	for _, p := range positions {
		enriched = append(enriched, Enrich(p, quotes[p.Symbol]))
	}
	return enriched
}
