// Package desk binds the exchange client and the trade journal into the
// operations the dashboard exposes: submitting orders, closing positions
// and recording journal entries for the owning user.
package desk

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tradedesk/internal/domain"
	"tradedesk/internal/exchange/bybit"
	"tradedesk/internal/journal"
	"tradedesk/internal/market"
)

var pnlTolerance = decimal.RequireFromString("0.01")

// Exchange is the slice of the API client the desk needs.
type Exchange interface {
	WalletBalance(ctx context.Context) ([]domain.Balance, error)
	Positions(ctx context.Context, category, symbol string) ([]domain.Position, error)
	Ticker(ctx context.Context, category, symbol string) (domain.Ticker, error)
	Klines(ctx context.Context, category, symbol, interval string, limit int) ([]domain.Kline, error)
	OrderHistory(ctx context.Context, category, symbol string, limit int) ([]domain.OrderRecord, error)
	PlaceOrder(ctx context.Context, req bybit.OrderRequest) (bybit.OrderAck, error)
	CancelOrder(ctx context.Context, category, symbol, orderID string) (bybit.OrderAck, error)
	ClosePosition(ctx context.Context, category, symbol string, side domain.Side, qty decimal.Decimal) (bybit.OrderAck, error)
}

// Journal is the store surface used for reads and direct writes.
type Journal interface {
	journal.Saver
	Trades(ctx context.Context, userID string, filter domain.TradeFilter) ([]domain.Trade, error)
	UpdateTrade(ctx context.Context, trade *domain.Trade) error
	DeleteTrade(ctx context.Context, userID, id string) error
}

// Outbox is the durable queue sitting in front of the journal.
type Outbox interface {
	Enqueue(trade domain.Trade) error
	Flush(ctx context.Context, store journal.Saver) (int, error)
}

// Desk coordinates order placement and journaling. Calls are single-flight
// per call site; concurrent identical requests are not coalesced.
type Desk struct {
	exchange Exchange
	journal  Journal
	outbox   Outbox
	category string
	logger   *zap.Logger
}

// New builds a desk for the given category ("linear" or "spot").
func New(exchange Exchange, store Journal, outbox Outbox, category string, logger *zap.Logger) *Desk {
	if category == "" {
		category = "linear"
	}
	return &Desk{
		exchange: exchange,
		journal:  store,
		outbox:   outbox,
		category: category,
		logger:   logger,
	}
}

// OrderSubmission is a user-initiated order plus its journal metadata.
type OrderSubmission struct {
	UserID string
	Symbol string
	Side   domain.Side
	Type   domain.OrderType
	Qty    decimal.Decimal
	Price  decimal.Decimal
	Notes  string
	Tags   []string
}

// SubmitOrder validates and places the order, then journals the submission
// for the owning user. The journal write goes through the outbox, so a
// database outage delays the entry but never loses it and never fails the
// already-placed order.
func (d *Desk) SubmitOrder(ctx context.Context, sub OrderSubmission) (bybit.OrderAck, error) {
	if sub.UserID == "" {
		return bybit.OrderAck{}, &domain.ValidationError{Field: "userId", Reason: "must not be empty"}
	}

	ack, err := d.exchange.PlaceOrder(ctx, bybit.OrderRequest{
		Category: d.category,
		Symbol:   sub.Symbol,
		Side:     sub.Side,
		Type:     sub.Type,
		Qty:      sub.Qty,
		Price:    sub.Price,
	})
	if err != nil {
		return bybit.OrderAck{}, err
	}

	entry := domain.Trade{
		UserID:    sub.UserID,
		Symbol:    sub.Symbol,
		Side:      sub.Side,
		OrderType: sub.Type,
		Quantity:  sub.Qty,
		Price:     sub.Price,
		Status:    domain.StatusPending,
		Notes:     sub.Notes,
		Tags:      sub.Tags,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.outbox.Enqueue(entry); err != nil {
		d.logger.Error("order placed but journal enqueue failed",
			zap.String("orderId", ack.OrderID), zap.Error(err))
		return ack, err
	}

	if _, err := d.outbox.Flush(ctx, d.journal); err != nil {
		// entry stays queued; the periodic flush retries it
		d.logger.Warn("journal flush deferred", zap.Error(err))
	}

	d.logger.Info("order submitted",
		zap.String("symbol", sub.Symbol),
		zap.String("side", sub.Side.String()),
		zap.String("qty", sub.Qty.String()),
		zap.String("orderId", ack.OrderID))
	return ack, nil
}

const (
	defaultIndicatorPeriod   = 14
	defaultIndicatorInterval = "60"
)

// TickerSnapshot fetches the REST market snapshot for one symbol. The
// dashboard uses it when the websocket stream has nothing cached yet.
func (d *Desk) TickerSnapshot(ctx context.Context, symbol string) (domain.Ticker, error) {
	return d.exchange.Ticker(ctx, d.category, symbol)
}

// Indicators fetches a kline window and summarizes SMA/EMA/RSI over it.
// Zero period and empty interval fall back to 14 periods of hourly candles.
func (d *Desk) Indicators(ctx context.Context, symbol, interval string, period int) (market.Summary, error) {
	if period <= 0 {
		period = defaultIndicatorPeriod
	}
	if interval == "" {
		interval = defaultIndicatorInterval
	}

	// twice the period gives the EMA/RSI warm-up room beyond the bare
	// period+1 minimum
	klines, err := d.exchange.Klines(ctx, d.category, symbol, interval, period*2)
	if err != nil {
		return market.Summary{}, err
	}
	return market.Summarize(symbol, klines, period)
}

// Orders fetches the recent order history for the desk's category.
func (d *Desk) Orders(ctx context.Context, symbol string, limit int) ([]domain.OrderRecord, error) {
	return d.exchange.OrderHistory(ctx, d.category, symbol, limit)
}

// CancelOrder cancels an open order.
func (d *Desk) CancelOrder(ctx context.Context, symbol, orderID string) (bybit.OrderAck, error) {
	return d.exchange.CancelOrder(ctx, d.category, symbol, orderID)
}

// ClosePosition closes qty of the user's position with a reduce-only
// market order and journals the close.
func (d *Desk) ClosePosition(ctx context.Context, userID, symbol string, side domain.Side, qty decimal.Decimal) (bybit.OrderAck, error) {
	ack, err := d.exchange.ClosePosition(ctx, d.category, symbol, side, qty)
	if err != nil {
		return bybit.OrderAck{}, err
	}

	entry := domain.Trade{
		UserID:    userID,
		Symbol:    symbol,
		Side:      side.Opposite(),
		OrderType: domain.OrderTypeMarket,
		Quantity:  qty,
		Price:     decimal.Zero,
		Status:    domain.StatusPending,
		Tags:      []string{"close"},
		CreatedAt: time.Now().UTC(),
	}
	if err := d.outbox.Enqueue(entry); err != nil {
		d.logger.Error("position closed but journal enqueue failed", zap.Error(err))
		return ack, err
	}
	if _, err := d.outbox.Flush(ctx, d.journal); err != nil {
		d.logger.Warn("journal flush deferred", zap.Error(err))
	}
	return ack, nil
}

// Overview is a combined account snapshot, replaced wholesale per refresh.
type Overview struct {
	Balances  []domain.Balance
	Positions []domain.Position
}

// Refresh pulls balance and positions in one go.
func (d *Desk) Refresh(ctx context.Context) (Overview, error) {
	balances, err := d.exchange.WalletBalance(ctx)
	if err != nil {
		return Overview{}, err
	}
	positions, err := d.exchange.Positions(ctx, d.category, "")
	if err != nil {
		return Overview{}, err
	}

	for _, p := range positions {
		// exchange-reported pnl should match the local recomputation;
		// a gap means a stale mark price or a mapping bug
		if diff := p.PnL().Sub(p.UnrealisedPnl).Abs(); diff.GreaterThan(pnlTolerance) {
			d.logger.Warn("position pnl mismatch",
				zap.String("symbol", p.Symbol),
				zap.String("reported", p.UnrealisedPnl.String()),
				zap.String("computed", p.PnL().String()))
		}
	}
	return Overview{Balances: balances, Positions: positions}, nil
}

// FlushJournal drains the outbox into the store. Called periodically and
// after writes.
func (d *Desk) FlushJournal(ctx context.Context) (int, error) {
	return d.outbox.Flush(ctx, d.journal)
}

// RunFlusher retries deferred journal writes until ctx is cancelled.
func (d *Desk) RunFlusher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := d.FlushJournal(ctx); err != nil {
				d.logger.Warn("journal flush failed", zap.Error(err))
			} else if n > 0 {
				d.logger.Info("journal entries flushed", zap.Int("count", n))
			}
		}
	}
}
