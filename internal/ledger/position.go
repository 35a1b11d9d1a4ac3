// Package ledger owns investment positions and their SQLite persistence.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a position.
type Status string

const (
	StatusActive    Status = "active"
	StatusSold      Status = "sold"
	StatusWatchlist Status = "watchlist"
)

// ParseStatus validates a status string from user input.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusSold, StatusWatchlist:
		return Status(s), nil
	default:
		return "", fmt.Errorf("invalid status %q: use active, sold or watchlist", s)
	}
}

// Position is one investment holding. Shares are fractional and
// non-negative; SalePrice and SaleDate stay nil until the position is sold.
type Position struct {
	ID           uuid.UUID        `json:"id"`
	Symbol       string           `json:"symbol"`
	CompanyName  string           `json:"company_name"`
	Shares       decimal.Decimal  `json:"shares"`
	AveragePrice decimal.Decimal  `json:"average_price"`
	PurchaseDate time.Time        `json:"purchase_date"`
	Status       Status           `json:"status"`
	SalePrice    *decimal.Decimal `json:"sale_price,omitempty"`
	SaleDate     *time.Time       `json:"sale_date,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Validate checks the fields a caller controls on create.
func (p *Position) Validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if p.CompanyName == "" {
		return fmt.Errorf("company name is required")
	}
	if p.Shares.IsNegative() {
		return fmt.Errorf("shares must be non-negative")
	}
	if p.AveragePrice.IsNegative() {
		return fmt.Errorf("average price must be non-negative")
	}
	return nil
}

// Update carries a partial position update; nil fields are left unchanged.
type Update struct {
	CompanyName  *string          `json:"company_name,omitempty"`
	Shares       *decimal.Decimal `json:"shares,omitempty"`
	AveragePrice *decimal.Decimal `json:"average_price,omitempty"`
	PurchaseDate *time.Time       `json:"purchase_date,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
}
