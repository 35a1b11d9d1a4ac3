// Package mockdata is the terminal fallback provider. It fabricates quotes
// and search results from a static table and never fails, so a fully
// exhausted provider chain still resolves to usable data.
package mockdata

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finledger/internal/market"
)

type entry struct {
	name          string
	price         string
	change        string
	changePercent string
	high          string
	low           string
}

// table holds approximate prices for common tickers. Values are static by
// design: they only exist so the UI has something to render when every real
// provider is down or exhausted.
var table = map[string]entry{
	"AAPL":  {"Apple Inc.", "178.50", "2.35", "1.33", "180.25", "176.80"},
	"MSFT":  {"Microsoft Corporation", "412.30", "-1.20", "-0.29", "415.50", "410.00"},
	"GOOGL": {"Alphabet Inc. Class A", "142.80", "3.45", "2.48", "143.90", "139.50"},
	"AMZN":  {"Amazon.com Inc.", "178.20", "0.90", "0.51", "179.30", "176.50"},
	"META":  {"Meta Platforms Inc.", "485.60", "8.30", "1.74", "488.50", "478.20"},
	"TSLA":  {"Tesla Inc.", "242.80", "-5.40", "-2.18", "248.90", "241.20"},
	"NVDA":  {"NVIDIA Corporation", "875.30", "12.50", "1.45", "880.00", "865.00"},
	"NFLX":  {"Netflix Inc.", "625.40", "-3.80", "-0.60", "630.00", "622.00"},
	"AMD":   {"Advanced Micro Devices Inc.", "165.80", "3.25", "2.00", "167.50", "163.20"},
	"INTC":  {"Intel Corporation", "42.15", "-0.85", "-1.98", "43.20", "41.90"},
	"QCOM":  {"Qualcomm Inc.", "148.90", "2.10", "1.43", "149.80", "147.00"},
	"JPM":   {"JPMorgan Chase & Co.", "185.50", "1.20", "0.65", "186.00", "183.50"},
	"BAC":   {"Bank of America Corp.", "38.75", "0.35", "0.91", "39.00", "38.20"},
	"V":     {"Visa Inc.", "285.30", "2.80", "0.99", "286.50", "283.00"},
	"WMT":   {"Walmart Inc.", "165.20", "1.10", "0.67", "166.00", "164.00"},
	"PG":    {"Procter & Gamble Co.", "158.90", "0.50", "0.32", "159.50", "157.80"},
	"KO":    {"Coca-Cola Co.", "62.30", "0.25", "0.40", "62.60", "61.90"},
	"MCD":   {"McDonald's Corp.", "295.40", "-1.50", "-0.51", "297.50", "294.00"},
	"CMG":   {"Chipotle Mexican Grill Inc.", "2850.75", "45.30", "1.61", "2875.00", "2810.50"},
	"SBUX":  {"Starbucks Corporation", "98.50", "-0.80", "-0.81", "99.50", "97.80"},
	"JNJ":   {"Johnson & Johnson", "162.80", "0.90", "0.56", "163.50", "161.50"},
	"UNH":   {"UnitedHealth Group Inc.", "548.30", "3.20", "0.59", "550.00", "545.00"},
}

var generic = entry{"", "100.00", "0.00", "0.00", "105.00", "95.00"}

type Provider struct{}

func New() *Provider { return &Provider{} }

func (p *Provider) Name() string { return "mock" }

func (p *Provider) Quote(_ context.Context, symbol string) (*market.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	e, ok := table[symbol]
	if !ok {
		e = generic
	}
	name := e.name
	if name == "" {
		name = symbol
	}

	price := mustDecimal(e.price)
	change := mustDecimal(e.change)

	return &market.Quote{
		Symbol:        symbol,
		Name:          name,
		Price:         price,
		Change:        change,
		ChangePercent: mustDecimal(e.changePercent),
		High:          mustDecimal(e.high),
		Low:           mustDecimal(e.low),
		Open:          price,
		PreviousClose: price.Sub(change),
		Volume:        1_000_000,
		Currency:      "USD",
		Timestamp:     time.Now().UTC(),
	}, nil
}

func (p *Provider) Search(_ context.Context, keywords string) ([]market.SearchResult, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return nil, nil
	}
	upper := strings.ToUpper(keywords)
	lower := strings.ToLower(keywords)

	var results []market.SearchResult
	for symbol, e := range table {
		if strings.Contains(symbol, upper) || strings.Contains(strings.ToLower(e.name), lower) {
			results = append(results, market.SearchResult{
				Symbol:   symbol,
				Name:     e.name,
				Type:     "Equity",
				Region:   "United States",
				Currency: "USD",
			})
		}
	}
	if len(results) > 0 {
		sort.Slice(results, func(i, j int) bool { return results[i].Symbol < results[j].Symbol })
		return results, nil
	}

	// No table match: hand back the query itself so the caller can still
	// add the ticker manually.
	return []market.SearchResult{{
		Symbol:   upper,
		Name:     upper + " - not found in any provider",
		Type:     "Equity",
		Region:   "United States",
		Currency: "USD",
	}}, nil
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
