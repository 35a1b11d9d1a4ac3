package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finledger/internal/ledger"
	"finledger/internal/market"
)

const dateLayout = "2006-01-02"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/investments/search?q=
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	results := s.market.Search(r.Context(), q)
	if results == nil {
		results = []market.SearchResult{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"results": results})
}

// GET /api/investments/quote?q=
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	quote := s.market.Quote(r.Context(), q)
	if quote == nil {
		s.respondError(w, http.StatusServiceUnavailable, "no quote available for "+strings.ToUpper(q))
		return
	}
	s.respondJSON(w, http.StatusOK, quote)
}

// GET /api/investments/logo?q=
func (s *Server) handleLogo(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	s.respondJSON(w, http.StatusOK, s.market.Logo(r.Context(), q))
}

// GET /api/investments/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"providers": s.market.Status()})
}

// GET /api/investments?status=
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var status *ledger.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := ledger.ParseStatus(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = &st
	}
	overview, err := s.portfolio.Overview(r.Context(), status)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to build overview")
		s.respondError(w, http.StatusInternalServerError, "failed to list investments")
		return
	}
	s.respondJSON(w, http.StatusOK, overview)
}

// GET /api/investments/{id}
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	enriched, err := s.portfolio.GetEnriched(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, enriched)
}

type createRequest struct {
	Symbol       string          `json:"symbol"`
	CompanyName  string          `json:"company_name"`
	Shares       decimal.Decimal `json:"shares"`
	AveragePrice decimal.Decimal `json:"average_price"`
	PurchaseDate string          `json:"purchase_date"`
	Notes        string          `json:"notes"`
}

// POST /api/investments
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	purchase, err := parseDate(req.PurchaseDate)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := &ledger.Position{
		Symbol:       req.Symbol,
		CompanyName:  req.CompanyName,
		Shares:       req.Shares,
		AveragePrice: req.AveragePrice,
		PurchaseDate: purchase,
		Notes:        req.Notes,
	}
	if err := s.portfolio.Create(r.Context(), p); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, p)
}

type updateRequest struct {
	CompanyName  *string          `json:"company_name"`
	Shares       *decimal.Decimal `json:"shares"`
	AveragePrice *decimal.Decimal `json:"average_price"`
	PurchaseDate *string          `json:"purchase_date"`
	Notes        *string          `json:"notes"`
}

// PUT /api/investments/{id}
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	upd := ledger.Update{
		CompanyName:  req.CompanyName,
		Shares:       req.Shares,
		AveragePrice: req.AveragePrice,
		Notes:        req.Notes,
	}
	if req.PurchaseDate != nil {
		t, err := parseDate(*req.PurchaseDate)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		upd.PurchaseDate = &t
	}

	p, err := s.portfolio.Update(r.Context(), id, upd)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

type sellRequest struct {
	SalePrice decimal.Decimal `json:"sale_price"`
	SaleDate  string          `json:"sale_date"`
}

// POST /api/investments/{id}/sell
func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req sellRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	saleDate, err := parseDate(req.SaleDate)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.portfolio.Sell(r.Context(), id, req.SalePrice, saleDate)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

// DELETE /api/investments/{id}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.portfolio.Delete(r.Context(), id); err != nil {
		s.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid investment id")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ledger.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "investment not found")
		return
	}
	s.respondError(w, http.StatusBadRequest, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

// parseDate accepts a bare date or a full RFC 3339 timestamp; empty means
// "today".
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("invalid date, use YYYY-MM-DD")
}
