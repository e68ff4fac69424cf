// Package journal persists the per-user trade journal in Postgres.
//
// Every statement binds the owning user's ID, so one user can never read
// or modify another user's rows regardless of what the caller passes in.
// Writes are independent: there is no transactionality across trades.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"tradedesk/internal/domain"
)

const defaultListLimit = 100

// Store is the Postgres-backed trade journal.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, &domain.PersistenceError{Op: "ping", Cause: err}
	}
	return &Store{db: db}, nil
}

// Migrate creates the trades table when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS trades (
    id             UUID PRIMARY KEY,
    user_id        TEXT NOT NULL,
    symbol         TEXT NOT NULL,
    side           TEXT NOT NULL,
    order_type     TEXT NOT NULL,
    quantity       NUMERIC NOT NULL,
    price          NUMERIC NOT NULL,
    executed_price NUMERIC,
    total_amount   NUMERIC,
    fee            NUMERIC NOT NULL DEFAULT 0,
    status         TEXT NOT NULL,
    notes          TEXT,
    tags           TEXT[] NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL,
    executed_at    TIMESTAMPTZ,
    updated_at     TIMESTAMPTZ NOT NULL,
    deleted_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS trades_user_created_idx ON trades (user_id, created_at DESC);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return &domain.PersistenceError{Op: "migrate", Cause: err}
	}
	return nil
}

// SaveTrade inserts a journal entry for its owning user. A missing ID is
// generated. The insert is idempotent on ID, which lets the outbox replay
// the same entry after a crash without duplicating it.
func (s *Store) SaveTrade(ctx context.Context, trade *domain.Trade) error {
	if err := trade.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = now
	}
	trade.UpdatedAt = now

	const query = `
		INSERT INTO trades
		(id, user_id, symbol, side, order_type, quantity, price, executed_price,
		 total_amount, fee, status, notes, tags, created_at, executed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		trade.ID, trade.UserID, trade.Symbol,
		trade.Side.String(), trade.OrderType.String(),
		trade.Quantity, trade.Price, trade.ExecutedPrice,
		trade.TotalAmount, trade.Fee, trade.Status.String(),
		trade.Notes, pq.Array(trade.Tags),
		trade.CreatedAt, trade.ExecutedAt, trade.UpdatedAt,
	)
	if err != nil {
		return &domain.PersistenceError{Op: "save trade", Cause: err}
	}
	return nil
}

// listQuery builds the filtered listing statement. Split out so the filter
// logic is testable without a live database.
func listQuery(userID string, filter domain.TradeFilter) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`SELECT id, user_id, symbol, side, order_type, quantity, price, executed_price,
		total_amount, fee, status, notes, tags, created_at, executed_at, updated_at
		FROM trades WHERE user_id = $1 AND deleted_at IS NULL`)

	args := []interface{}{userID}

	if filter.Symbol != "" {
		args = append(args, filter.Symbol)
		fmt.Fprintf(&b, " AND symbol = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, filter.Status.String())
		fmt.Fprintf(&b, " AND status = $%d", len(args))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		fmt.Fprintf(&b, " AND $%d = ANY(tags)", len(args))
	}

	b.WriteString(" ORDER BY created_at DESC")

	// zero means the default page size; negative means the full journal,
	// which the exporter asks for
	limit := filter.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}

	return b.String(), args
}

// Trades lists the user's journal entries, most recent first.
func (s *Store) Trades(ctx context.Context, userID string, filter domain.TradeFilter) ([]domain.Trade, error) {
	query, args := listQuery(userID, filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list trades", Cause: err}
	}
	defer rows.Close()

	trades := make([]domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "scan trade", Cause: err}
		}
		trades = append(trades, trade)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "list trades", Cause: err}
	}
	return trades, nil
}

// rowScanner is the slice of *sql.Rows scanTrade needs.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(row rowScanner) (domain.Trade, error) {
	var (
		trade         domain.Trade
		side          string
		orderType     string
		status        string
		executedPrice decimal.NullDecimal
		totalAmount   decimal.NullDecimal
		notes         sql.NullString
		tags          []string
		executedAt    sql.NullTime
	)
	err := row.Scan(
		&trade.ID, &trade.UserID, &trade.Symbol, &side, &orderType,
		&trade.Quantity, &trade.Price, &executedPrice,
		&totalAmount, &trade.Fee, &status,
		&notes, pq.Array(&tags),
		&trade.CreatedAt, &executedAt, &trade.UpdatedAt,
	)
	if err != nil {
		return domain.Trade{}, err
	}

	trade.Side, _ = domain.ParseSide(side)
	trade.OrderType, _ = domain.ParseOrderType(orderType)
	trade.Status = domain.ParseOrderStatus(status)
	trade.Notes = notes.String
	trade.Tags = tags
	// executed_price and total_amount are nullable; a NULL means "not
	// filled yet" and maps to the zero decimal
	if executedPrice.Valid {
		trade.ExecutedPrice = executedPrice.Decimal
	}
	if totalAmount.Valid {
		trade.TotalAmount = totalAmount.Decimal
	}
	if executedAt.Valid {
		t := executedAt.Time
		trade.ExecutedAt = &t
	}
	return trade, nil
}

// UpdateTrade rewrites an entry's editable fields. Touching a row that does
// not exist, is deleted, or belongs to another user yields ErrNotFound.
func (s *Store) UpdateTrade(ctx context.Context, trade *domain.Trade) error {
	if err := trade.Validate(); err != nil {
		return err
	}
	if trade.ID == "" {
		return &domain.ValidationError{Field: "id", Reason: "must not be empty"}
	}

	trade.UpdatedAt = time.Now().UTC()

	const query = `
		UPDATE trades
		SET symbol = $1, side = $2, order_type = $3, quantity = $4, price = $5,
		    executed_price = $6, total_amount = $7, fee = $8, status = $9,
		    notes = $10, tags = $11, executed_at = $12, updated_at = $13
		WHERE id = $14 AND user_id = $15 AND deleted_at IS NULL`

	res, err := s.db.ExecContext(ctx, query,
		trade.Symbol, trade.Side.String(), trade.OrderType.String(),
		trade.Quantity, trade.Price, trade.ExecutedPrice, trade.TotalAmount,
		trade.Fee, trade.Status.String(), trade.Notes, pq.Array(trade.Tags),
		trade.ExecutedAt, trade.UpdatedAt,
		trade.ID, trade.UserID,
	)
	if err != nil {
		return &domain.PersistenceError{Op: "update trade", Cause: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &domain.PersistenceError{Op: "update trade", Cause: err}
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteTrade soft-deletes the user's entry.
func (s *Store) DeleteTrade(ctx context.Context, userID, id string) error {
	const query = `
		UPDATE trades SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND user_id = $3 AND deleted_at IS NULL`

	res, err := s.db.ExecContext(ctx, query, time.Now().UTC(), id, userID)
	if err != nil {
		return &domain.PersistenceError{Op: "delete trade", Cause: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &domain.PersistenceError{Op: "delete trade", Cause: err}
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
