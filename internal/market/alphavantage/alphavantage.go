// Package alphavantage implements the secondary (fallback) quote provider.
//
// Alpha Vantage signals errors inside HTTP 200 bodies: an "Error Message"
// key for bad requests and a "Note" key when the daily quota is exhausted.
// Both are mapped to uniform signals here so nothing upstream ever inspects
// the provider's wire shape.
package alphavantage

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
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

type Config struct {
	Name    string
	BaseURL string
	APIKey  string
}

type Provider struct {
	cfg    Config
	client Doer
	log    zerolog.Logger
}

func New(cfg Config, hc Doer, log zerolog.Logger) *Provider {
	if cfg.Name == "" {
		cfg.Name = "alphavantage"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.alphavantage.co/query"
	}
	return &Provider{cfg: cfg, client: hc, log: log.With().Str("provider", cfg.Name).Logger()}
}

func (p *Provider) Name() string { return p.cfg.Name }

// envelope captures the three top-level shapes a 200 response can carry.
type envelope struct {
	ErrorMessage string              `json:"Error Message"`
	Note         string              `json:"Note"`
	GlobalQuote  map[string]string   `json:"Global Quote"`
	BestMatches  []map[string]string `json:"bestMatches"`
}

func (p *Provider) Quote(ctx context.Context, symbol string) (*market.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	env, err := p.query(ctx, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
		"apikey":   {p.cfg.APIKey},
	})
	if err != nil {
		return nil, err
	}

	q := env.GlobalQuote
	if len(q) == 0 {
		return nil, nil
	}
	priceStr, ok := q["05. price"]
	if !ok {
		return nil, nil // response shape present but empty: no data
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: bad price %q: %w", priceStr, err)
	}

	change := fieldDecimal(q, "09. change", decimal.Zero)
	percentStr := strings.TrimSuffix(q["10. change percent"], "%")
	changePercent, err := decimal.NewFromString(percentStr)
	if err != nil {
		changePercent = decimal.Zero
	}

	volume := int64(0)
	if v, err := decimal.NewFromString(q["06. volume"]); err == nil {
		volume = v.IntPart()
	}

	outSymbol := q["01. symbol"]
	if outSymbol == "" {
		outSymbol = symbol
	}

	return &market.Quote{
		Symbol:        strings.ToUpper(outSymbol),
		Name:          symbol, // GLOBAL_QUOTE carries no company name
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
		High:          fieldDecimal(q, "03. high", price),
		Low:           fieldDecimal(q, "04. low", price),
		Open:          fieldDecimal(q, "02. open", price),
		PreviousClose: fieldDecimal(q, "08. previous close", price.Sub(change)),
		Volume:        volume,
		Currency:      "USD",
		Timestamp:     time.Now().UTC(),
	}, nil
}

func (p *Provider) Search(ctx context.Context, keywords string) ([]market.SearchResult, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return nil, nil
	}

	env, err := p.query(ctx, url.Values{
		"function": {"SYMBOL_SEARCH"},
		"keywords": {keywords},
		"apikey":   {p.cfg.APIKey},
	})
	if err != nil {
		return nil, err
	}

	results := make([]market.SearchResult, 0, maxSearchResults)
	for _, match := range env.BestMatches {
		if len(results) == maxSearchResults {
			break
		}
		results = append(results, market.SearchResult{
			Symbol:   match["1. symbol"],
			Name:     match["2. name"],
			Type:     orDefault(match["3. type"], "Unknown"),
			Region:   orDefault(match["4. region"], "Unknown"),
			Currency: orDefault(match["8. currency"], "USD"),
		})
	}
	return results, nil
}

func (p *Provider) query(ctx context.Context, params url.Values) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return nil, fmt.Errorf("alphavantage: GET -> %d: %s", resp.StatusCode, string(b))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("alphavantage: decode: %w", err)
	}
	if env.Note != "" {
		p.log.Debug().Str("note", env.Note).Msg("rate limit note in response body")
		return nil, market.ErrThrottled
	}
	if env.ErrorMessage != "" {
		return nil, fmt.Errorf("alphavantage: api error: %s", env.ErrorMessage)
	}
	return &env, nil
}

func fieldDecimal(m map[string]string, key string, fallback decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(m[key])
	if err != nil {
		return fallback
	}
	return d
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
