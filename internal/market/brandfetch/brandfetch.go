// Package brandfetch resolves company logos from the Brandfetch CDN.
//
// Logo lookups have no mock fallback on purpose: a fabricated logo URL
// would be user-visible and misleading, so absence is a terminal answer.
package brandfetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Doer issues HTTP requests. Satisfied by *httpx.Client.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

type Config struct {
	BaseURL  string
	ClientID string
}

// Result reports whether a logo exists and where.
type Result struct {
	Ticker      string `json:"ticker"`
	LogoURL     string `json:"logo_url,omitempty"`
	Available   bool   `json:"available"`
	ContentType string `json:"content_type,omitempty"`
	Message     string `json:"message,omitempty"`
}

type Client struct {
	cfg    Config
	client Doer
	log    zerolog.Logger
}

func New(cfg Config, hc Doer, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://cdn.brandfetch.io"
	}
	return &Client{cfg: cfg, client: hc, log: log.With().Str("component", "brandfetch").Logger()}
}

// Configured reports whether a client id is present; without one every
// lookup answers "unavailable".
func (c *Client) Configured() bool { return c.cfg.ClientID != "" }

// Logo checks the CDN for a logo. HTTP 200 means the logo lives at the
// probed URL, 404 means no logo exists, anything else is unavailable with
// a diagnostic message.
func (c *Client) Logo(ctx context.Context, ticker string) Result {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if !c.Configured() {
		return Result{Ticker: ticker, Available: false, Message: "logo service not configured"}
	}

	logoURL := fmt.Sprintf("%s/%s?c=%s", c.cfg.BaseURL, ticker, c.cfg.ClientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logoURL, nil)
	if err != nil {
		return Result{Ticker: ticker, Available: false, Message: err.Error()}
	}
	resp, err := c.client.Do(ctx, req)
	if err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("logo fetch failed")
		return Result{Ticker: ticker, Available: false, Message: "error retrieving logo: " + err.Error()}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{
			Ticker:      ticker,
			LogoURL:     logoURL,
			Available:   true,
			ContentType: orDefault(resp.Header.Get("Content-Type"), "image/png"),
		}
	case http.StatusNotFound:
		return Result{Ticker: ticker, Available: false, Message: "logo not available for " + ticker}
	default:
		c.log.Warn().Int("status", resp.StatusCode).Str("ticker", ticker).Msg("unexpected logo status")
		return Result{
			Ticker:    ticker,
			Available: false,
			Message:   fmt.Sprintf("error retrieving logo: HTTP %d", resp.StatusCode),
		}
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
