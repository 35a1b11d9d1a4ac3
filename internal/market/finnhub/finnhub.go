// Package finnhub implements the primary quote provider.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"finledger/internal/market"
)

const maxSearchResults = 10

// Doer issues HTTP requests. Satisfied by *httpx.Client.
//
//go:generate mockgen -package=finnhub_test -destination=mock_doer_test.go -source=finnhub.go Doer
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

type Config struct {
	Name     string
	BaseURL  string
	APIKey   string
	Currency string
}

type Provider struct {
	cfg    Config
	client Doer
	log    zerolog.Logger
}

func New(cfg Config, hc Doer, log zerolog.Logger) *Provider {
	if cfg.Name == "" {
		cfg.Name = "finnhub"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://finnhub.io/api/v1"
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &Provider{cfg: cfg, client: hc, log: log.With().Str("provider", cfg.Name).Logger()}
}

func (p *Provider) Name() string { return p.cfg.Name }

// quoteResponse is Finnhub's compact quote shape. The current price "c" is
// the presence marker: without it the response carries no data.
type quoteResponse struct {
	Current       *json.Number `json:"c"`
	High          json.Number  `json:"h"`
	Low           json.Number  `json:"l"`
	Open          json.Number  `json:"o"`
	PreviousClose json.Number  `json:"pc"`
	Volume        json.Number  `json:"v"`
	Timestamp     int64        `json:"t"`
}

func (p *Provider) Quote(ctx context.Context, symbol string) (*market.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	body, err := p.get(ctx, "/quote", url.Values{"symbol": {symbol}, "token": {p.cfg.APIKey}})
	if err != nil {
		return nil, err
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("finnhub: decode quote: %w", err)
	}
	if resp.Current == nil {
		return nil, nil // well-formed, no data for this symbol
	}

	price, err := decimal.NewFromString(resp.Current.String())
	if err != nil {
		return nil, fmt.Errorf("finnhub: bad price %q: %w", resp.Current.String(), err)
	}
	prevClose := numToDecimal(resp.PreviousClose)
	change := price.Sub(prevClose)
	changePercent := decimal.Zero
	if prevClose.IsPositive() {
		changePercent = change.Div(prevClose).Mul(decimal.NewFromInt(100))
	}

	ts := time.Now().UTC()
	if resp.Timestamp > 0 {
		ts = time.Unix(resp.Timestamp, 0).UTC()
	}
	volume, _ := resp.Volume.Int64()

	return &market.Quote{
		Symbol:        symbol,
		Name:          symbol, // Finnhub's quote endpoint carries no display name
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
		High:          numToDecimal(resp.High),
		Low:           numToDecimal(resp.Low),
		Open:          numToDecimal(resp.Open),
		PreviousClose: prevClose,
		Volume:        volume,
		Currency:      p.cfg.Currency,
		Timestamp:     ts,
	}, nil
}

type searchResponse struct {
	Count  int `json:"count"`
	Result []struct {
		Symbol        string `json:"symbol"`
		Description   string `json:"description"`
		DisplaySymbol string `json:"displaySymbol"`
		Type          string `json:"type"`
	} `json:"result"`
}

func (p *Provider) Search(ctx context.Context, keywords string) ([]market.SearchResult, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return nil, nil
	}

	body, err := p.get(ctx, "/search", url.Values{"q": {keywords}, "token": {p.cfg.APIKey}})
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("finnhub: decode search: %w", err)
	}

	results := make([]market.SearchResult, 0, maxSearchResults)
	for _, item := range resp.Result {
		if len(results) == maxSearchResults {
			break
		}
		name := item.Description
		if name == "" {
			name = item.Symbol
		}
		results = append(results, market.SearchResult{
			Symbol:   item.Symbol,
			Name:     name,
			Type:     orUnknown(item.Type),
			Region:   regionOf(item.DisplaySymbol),
			Currency: p.cfg.Currency,
		})
	}
	return results, nil
}

func (p *Provider) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, market.ErrThrottled
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return nil, fmt.Errorf("finnhub: GET %s -> %d: %s", path, resp.StatusCode, string(b))
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

// regionOf derives an exchange suffix region from a display symbol,
// defaulting to US for plain tickers.
func regionOf(displaySymbol string) string {
	if idx := strings.LastIndex(displaySymbol, "."); idx > 0 && idx < len(displaySymbol)-1 {
		return displaySymbol[idx+1:]
	}
	return "US"
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func numToDecimal(n json.Number) decimal.Decimal {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
