package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := Open("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := NewRepository(db, zerolog.Nop())
	require.NoError(t, r.Init(context.Background()))
	return r
}

func newPosition(symbol string, shares, avgPrice string) *Position {
	return &Position{
		Symbol:       symbol,
		CompanyName:  symbol + " Inc.",
		Shares:       decimal.RequireFromString(shares),
		AveragePrice: decimal.RequireFromString(avgPrice),
		PurchaseDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	p := newPosition("aapl", "10.5", "178.33")
	p.Notes = "long term"
	require.NoError(t, r.Create(ctx, p))
	require.NotEqual(t, uuid.Nil, p.ID)

	got, err := r.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, "AAPL Inc.", got.CompanyName)
	assert.True(t, got.Shares.Equal(decimal.RequireFromString("10.5")))
	assert.True(t, got.AveragePrice.Equal(decimal.RequireFromString("178.33")))
	assert.Equal(t, StatusActive, got.Status)
	assert.Equal(t, "2024-03-15", got.PurchaseDate.Format("2006-01-02"))
	assert.Equal(t, "long term", got.Notes)
	assert.Nil(t, got.SalePrice)
	assert.Nil(t, got.SaleDate)
}

func TestCreateValidation(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	p := newPosition("MSFT", "1", "100")
	p.Symbol = ""
	assert.Error(t, r.Create(ctx, p))

	p = newPosition("MSFT", "-1", "100")
	assert.Error(t, r.Create(ctx, p))
}

func TestGetByIDNotFound(t *testing.T) {
	r := testRepo(t)
	_, err := r.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersByStatus(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	a := newPosition("AAPL", "10", "150")
	b := newPosition("MSFT", "5", "300")
	require.NoError(t, r.Create(ctx, a))
	require.NoError(t, r.Create(ctx, b))
	_, err := r.Sell(ctx, b.ID, decimal.RequireFromString("350"), time.Time{})
	require.NoError(t, err)

	all, err := r.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active := StatusActive
	got, err := r.List(ctx, &active)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Symbol)

	sold := StatusSold
	got, err = r.List(ctx, &sold)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "MSFT", got[0].Symbol)
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	p := newPosition("AAPL", "10", "150")
	require.NoError(t, r.Create(ctx, p))

	shares := decimal.RequireFromString("12.5")
	notes := "added on dip"
	got, err := r.Update(ctx, p.ID, Update{Shares: &shares, Notes: &notes})
	require.NoError(t, err)
	assert.True(t, got.Shares.Equal(shares))
	assert.Equal(t, "added on dip", got.Notes)
	assert.True(t, got.AveragePrice.Equal(p.AveragePrice))

	stored, err := r.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.Shares.Equal(shares))
}

func TestSell(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	p := newPosition("AAPL", "10", "150")
	require.NoError(t, r.Create(ctx, p))

	price := decimal.RequireFromString("180.25")
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err := r.Sell(ctx, p.ID, price, date)
	require.NoError(t, err)
	assert.Equal(t, StatusSold, got.Status)
	require.NotNil(t, got.SalePrice)
	assert.True(t, got.SalePrice.Equal(price))
	require.NotNil(t, got.SaleDate)
	assert.Equal(t, "2024-06-01", got.SaleDate.Format("2006-01-02"))

	_, err = r.Sell(ctx, p.ID, price, date)
	assert.Error(t, err, "selling twice must fail")
}

func TestDelete(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	p := newPosition("AAPL", "10", "150")
	require.NoError(t, r.Create(ctx, p))
	require.NoError(t, r.Delete(ctx, p.ID))

	_, err := r.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, p.ID), ErrNotFound)
}

func TestActiveSymbolsDistinct(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()

	for _, sym := range []string{"AAPL", "AAPL", "MSFT", "NVDA"} {
		require.NoError(t, r.Create(ctx, newPosition(sym, "1", "100")))
	}
	sold := newPosition("TSLA", "1", "200")
	require.NoError(t, r.Create(ctx, sold))
	_, err := r.Sell(ctx, sold.ID, decimal.RequireFromString("210"), time.Time{})
	require.NoError(t, err)

	symbols, err := r.ActiveSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, symbols)
}
