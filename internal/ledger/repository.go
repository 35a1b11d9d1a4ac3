package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a position id does not exist.
var ErrNotFound = errors.New("position not found")

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
	id            TEXT PRIMARY KEY,
	symbol        TEXT NOT NULL,
	company_name  TEXT NOT NULL,
	shares        TEXT NOT NULL,
	average_price TEXT NOT NULL,
	purchase_date TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'active',
	sale_price    TEXT,
	sale_date     TEXT,
	notes         TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);
CREATE INDEX IF NOT EXISTS idx_positions_symbol ON positions(symbol);
`

// Repository handles position database operations. Monetary columns are
// stored as decimal TEXT so values round-trip without binary float error.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewRepository creates a position repository on an open database.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "positions").Logger(),
		now: time.Now,
	}
}

// Init creates the schema if it does not exist.
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create positions schema: %w", err)
	}
	return nil
}

// Create inserts a new position, assigning its id and timestamps.
func (r *Repository) Create(ctx context.Context, p *Position) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.ID = uuid.New()
	p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
	if p.Status == "" {
		p.Status = StatusActive
	}
	now := r.now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.PurchaseDate.IsZero() {
		p.PurchaseDate = now
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO positions
		(id, symbol, company_name, shares, average_price, purchase_date,
		 status, sale_price, sale_date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.Symbol, p.CompanyName,
		p.Shares.String(), p.AveragePrice.String(),
		p.PurchaseDate.Format(dateLayout), string(p.Status),
		nullDecimal(p.SalePrice), nullDate(p.SaleDate), p.Notes,
		now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert position: %w", err)
	}

	r.log.Info().Str("id", p.ID.String()).Str("symbol", p.Symbol).Msg("position created")
	return nil
}

// GetByID returns one position or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Position, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id.String())
	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query position: %w", err)
	}
	return p, nil
}

// List returns positions, optionally filtered by status, newest purchase first.
func (r *Repository) List(ctx context.Context, status *Status) ([]Position, error) {
	query := selectColumns
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY purchase_date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}
	return positions, nil
}

// Update applies the non-nil fields of upd and returns the stored position.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, upd Update) (*Position, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.CompanyName != nil {
		p.CompanyName = *upd.CompanyName
	}
	if upd.Shares != nil {
		p.Shares = *upd.Shares
	}
	if upd.AveragePrice != nil {
		p.AveragePrice = *upd.AveragePrice
	}
	if upd.PurchaseDate != nil {
		p.PurchaseDate = *upd.PurchaseDate
	}
	if upd.Notes != nil {
		p.Notes = *upd.Notes
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.UpdatedAt = r.now().UTC()

	_, err = r.db.ExecContext(ctx, `UPDATE positions SET
		company_name = ?, shares = ?, average_price = ?, purchase_date = ?,
		notes = ?, updated_at = ? WHERE id = ?`,
		p.CompanyName, p.Shares.String(), p.AveragePrice.String(),
		p.PurchaseDate.Format(dateLayout), p.Notes,
		p.UpdatedAt.Format(timeLayout), id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to update position: %w", err)
	}
	return p, nil
}

// Sell marks a position sold at the given price and date.
func (r *Repository) Sell(ctx context.Context, id uuid.UUID, price decimal.Decimal, date time.Time) (*Position, error) {
	if price.IsNegative() {
		return nil, fmt.Errorf("sale price must be non-negative")
	}
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusSold {
		return nil, fmt.Errorf("position %s is already sold", id)
	}
	if date.IsZero() {
		date = r.now().UTC()
	}
	p.Status = StatusSold
	p.SalePrice = &price
	p.SaleDate = &date
	p.UpdatedAt = r.now().UTC()

	_, err = r.db.ExecContext(ctx, `UPDATE positions SET
		status = ?, sale_price = ?, sale_date = ?, updated_at = ? WHERE id = ?`,
		string(StatusSold), price.String(), date.Format(dateLayout),
		p.UpdatedAt.Format(timeLayout), id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to mark position sold: %w", err)
	}

	r.log.Info().Str("id", id.String()).Str("symbol", p.Symbol).
		Str("sale_price", price.String()).Msg("position sold")
	return p, nil
}

// Delete removes a position permanently.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM positions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	r.log.Info().Str("id", id.String()).Msg("position deleted")
	return nil
}

// ActiveSymbols returns the distinct symbols of all active positions.
func (r *Repository) ActiveSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT symbol FROM positions WHERE status = ? ORDER BY symbol`,
		string(StatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to query active symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

const selectColumns = `SELECT id, symbol, company_name, shares, average_price,
	purchase_date, status, sale_price, sale_date, notes, created_at, updated_at
	FROM positions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (*Position, error) {
	var (
		p                    Position
		id, shares, avgPrice string
		purchase, created    string
		updated, status      string
		salePrice, saleDate  sql.NullString
	)
	err := row.Scan(&id, &p.Symbol, &p.CompanyName, &shares, &avgPrice,
		&purchase, &status, &salePrice, &saleDate, &p.Notes, &created, &updated)
	if err != nil {
		return nil, err
	}

	if p.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid position id %q: %w", id, err)
	}
	if p.Shares, err = decimal.NewFromString(shares); err != nil {
		return nil, fmt.Errorf("invalid shares %q: %w", shares, err)
	}
	if p.AveragePrice, err = decimal.NewFromString(avgPrice); err != nil {
		return nil, fmt.Errorf("invalid average price %q: %w", avgPrice, err)
	}
	if p.PurchaseDate, err = time.Parse(dateLayout, purchase); err != nil {
		return nil, fmt.Errorf("invalid purchase date %q: %w", purchase, err)
	}
	p.Status = Status(status)
	if salePrice.Valid {
		d, err := decimal.NewFromString(salePrice.String)
		if err != nil {
			return nil, fmt.Errorf("invalid sale price %q: %w", salePrice.String, err)
		}
		p.SalePrice = &d
	}
	if saleDate.Valid {
		t, err := time.Parse(dateLayout, saleDate.String)
		if err != nil {
			return nil, fmt.Errorf("invalid sale date %q: %w", saleDate.String, err)
		}
		p.SaleDate = &t
	}
	if p.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", created, err)
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("invalid updated_at %q: %w", updated, err)
	}
	return &p, nil
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}
