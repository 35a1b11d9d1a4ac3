package portfolio

import "github.com/shopspring/decimal"

// Summary aggregates a set of enriched positions at one instant. Totals are
// exact sums over the positions; only percent fields are rounded.
type Summary struct {
	TotalValue           decimal.Decimal `json:"total_value"`
	TotalInvested        decimal.Decimal `json:"total_invested"`
	TotalGainLoss        decimal.Decimal `json:"total_gain_loss"`
	TotalGainLossPercent decimal.Decimal `json:"total_gain_loss_percent"`
	DayChange            decimal.Decimal `json:"day_change"`
	DayChangePercent     decimal.Decimal `json:"day_change_percent"`
	PositionsCount       int             `json:"positions_count"`
}

// Summarize reduces enriched positions into portfolio totals. An empty set
// yields an all-zero summary, never an error.
func Summarize(positions []EnrichedPosition) Summary {
	if len(positions) == 0 {
		return Summary{}
	}

	var totalValue, totalInvested, dayChange decimal.Decimal
	for _, p := range positions {
		totalValue = totalValue.Add(p.TotalValue)
		totalInvested = totalInvested.Add(p.TotalInvested)
		dayChange = dayChange.Add(p.DayChange)
	}
	gainLoss := totalValue.Sub(totalInvested)

	var gainLossPercent decimal.Decimal
	if totalInvested.IsPositive() {
		gainLossPercent = gainLoss.Div(totalInvested).Mul(hundred).Round(2)
	}

	// Portfolio value at the start of the day.
	openValue := totalValue.Sub(dayChange)
	var dayChangePercent decimal.Decimal
	if openValue.IsPositive() {
		dayChangePercent = dayChange.Div(openValue).Mul(hundred).Round(2)
	}

	return Summary{
		TotalValue:           totalValue,
		TotalInvested:        totalInvested,
		TotalGainLoss:        gainLoss,
		TotalGainLossPercent: gainLossPercent,
		DayChange:            dayChange,
		DayChangePercent:     dayChangePercent,
		PositionsCount:       len(positions),
	}
}
