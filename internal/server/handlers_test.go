package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finledger/internal/ledger"
	"finledger/internal/market"
	"finledger/internal/market/brandfetch"
	"finledger/internal/market/mockdata"
	"finledger/internal/market/ratelimit"
	"finledger/internal/portfolio"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	db, err := ledger.Open("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := ledger.NewRepository(db, zerolog.Nop())
	require.NoError(t, repo.Init(context.Background()))

	agg := market.NewAggregator(market.Config{
		Chain: []market.ChainEntry{
			{Provider: mockdata.New(), Configured: true,
				Limiter: ratelimit.NewSlidingWindow(1000, time.Minute)},
		},
		Logos: brandfetch.New(brandfetch.Config{}, nil, zerolog.Nop()),
		Log:   zerolog.Nop(),
	})

	svc := portfolio.NewService(repo, agg, zerolog.Nop())
	return New(Config{Port: "0", Log: zerolog.Nop(), Market: agg, Portfolio: svc})
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func createInvestment(t *testing.T, srv *Server) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/investments", map[string]any{
		"symbol":        "AAPL",
		"company_name":  "Apple Inc.",
		"shares":        "10",
		"average_price": "150.50",
		"purchase_date": "2024-03-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	return created.ID
}

func TestHealthz(t *testing.T) {
	rec := doJSON(t, testServer(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndListInvestments(t *testing.T) {
	srv := testServer(t)
	createInvestment(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/investments", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var overview struct {
		Positions []struct {
			Symbol string `json:"symbol"`
			Priced bool   `json:"priced"`
		} `json:"positions"`
		Summary struct {
			PositionsCount int `json:"positions_count"`
		} `json:"summary"`
		Insights []struct {
			Title string `json:"title"`
		} `json:"insights"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	require.Len(t, overview.Positions, 1)
	assert.Equal(t, "AAPL", overview.Positions[0].Symbol)
	assert.True(t, overview.Positions[0].Priced, "mock chain must price every symbol")
	assert.Equal(t, 1, overview.Summary.PositionsCount)
	require.NotEmpty(t, overview.Insights)
	assert.Equal(t, "Low Diversification", overview.Insights[0].Title)
}

func TestCreateRejectsInvalidBody(t *testing.T) {
	srv := testServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/investments", map[string]any{
		"symbol": "AAPL", "company_name": "Apple", "shares": "1",
		"average_price": "100", "purchase_date": "15/03/2024",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/investments", map[string]any{
		"symbol": "", "company_name": "Apple", "shares": "1", "average_price": "100",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUpdateSellDelete(t *testing.T) {
	srv := testServer(t)
	id := createInvestment(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/investments/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPut, "/api/investments/"+id, map[string]any{
		"shares": "12", "notes": "topped up",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated struct {
		Shares string `json:"shares"`
		Notes  string `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "12", updated.Shares)
	assert.Equal(t, "topped up", updated.Notes)

	rec = doJSON(t, srv, http.MethodPost, "/api/investments/"+id+"/sell", map[string]any{
		"sale_price": "180", "sale_date": "2024-06-01",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var sold struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sold))
	assert.Equal(t, "sold", sold.Status)

	rec = doJSON(t, srv, http.MethodDelete, "/api/investments/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/investments/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	rec := doJSON(t, testServer(t), http.MethodGet, "/api/investments?status=pending", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidIDIsBadRequest(t *testing.T) {
	rec := doJSON(t, testServer(t), http.MethodGet, "/api/investments/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	srv := testServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/investments/search?q=apple", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Results []struct {
			Symbol string `json:"symbol"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Results)
	assert.Equal(t, "AAPL", payload.Results[0].Symbol)

	rec = doJSON(t, srv, http.MethodGet, "/api/investments/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteEndpoint(t *testing.T) {
	srv := testServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/investments/quote?q=AAPL", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var quote struct {
		Symbol string `json:"symbol"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, "AAPL", quote.Symbol)

	rec = doJSON(t, srv, http.MethodGet, "/api/investments/quote", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	rec := doJSON(t, testServer(t), http.MethodGet, "/api/investments/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Providers []struct {
			Name       string `json:"name"`
			Configured bool   `json:"configured"`
			Available  bool   `json:"available"`
		} `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Providers, 1)
	assert.True(t, payload.Providers[0].Available)
}

func TestLogoEndpointUnconfigured(t *testing.T) {
	rec := doJSON(t, testServer(t), http.MethodGet, "/api/investments/logo?q=AAPL", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Available bool   `json:"available"`
		Message   string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.False(t, payload.Available)
	assert.Contains(t, payload.Message, "not configured")
}
