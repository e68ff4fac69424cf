package desk

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tradedesk/internal/domain"
	"tradedesk/internal/exchange/bybit"
	"tradedesk/internal/journal"
)

type fakeExchange struct {
	placed       []bybit.OrderRequest
	placeErr     error
	cancelled    []string
	closed       []string
	klines       []domain.Kline
	klinesLimit  int
	klinesSymbol string
}

func (f *fakeExchange) WalletBalance(context.Context) ([]domain.Balance, error) {
	return []domain.Balance{{Coin: "USDT", WalletBalance: decimal.NewFromInt(1000)}}, nil
}

func (f *fakeExchange) Positions(context.Context, string, string) ([]domain.Position, error) {
	return []domain.Position{{Symbol: "BTCUSDT", Side: domain.SideBuy}}, nil
}

func (f *fakeExchange) Ticker(_ context.Context, _, symbol string) (domain.Ticker, error) {
	return domain.Ticker{Symbol: symbol, LastPrice: decimal.NewFromInt(50000)}, nil
}

func (f *fakeExchange) Klines(_ context.Context, _, symbol, _ string, limit int) ([]domain.Kline, error) {
	f.klinesSymbol = symbol
	f.klinesLimit = limit
	return f.klines, nil
}

func (f *fakeExchange) OrderHistory(context.Context, string, string, int) ([]domain.OrderRecord, error) {
	return nil, nil
}

func (f *fakeExchange) PlaceOrder(_ context.Context, req bybit.OrderRequest) (bybit.OrderAck, error) {
	if f.placeErr != nil {
		return bybit.OrderAck{}, f.placeErr
	}
	f.placed = append(f.placed, req)
	return bybit.OrderAck{OrderID: "ord-1", OrderLinkID: "link-1"}, nil
}

func (f *fakeExchange) CancelOrder(_ context.Context, _, _, orderID string) (bybit.OrderAck, error) {
	f.cancelled = append(f.cancelled, orderID)
	return bybit.OrderAck{OrderID: orderID}, nil
}

func (f *fakeExchange) ClosePosition(_ context.Context, _, symbol string, _ domain.Side, _ decimal.Decimal) (bybit.OrderAck, error) {
	f.closed = append(f.closed, symbol)
	return bybit.OrderAck{OrderID: "close-1"}, nil
}

type memJournal struct {
	saved []domain.Trade
}

func (m *memJournal) SaveTrade(_ context.Context, trade *domain.Trade) error {
	m.saved = append(m.saved, *trade)
	return nil
}

func (m *memJournal) Trades(context.Context, string, domain.TradeFilter) ([]domain.Trade, error) {
	return m.saved, nil
}

func (m *memJournal) UpdateTrade(context.Context, *domain.Trade) error { return nil }

func (m *memJournal) DeleteTrade(context.Context, string, string) error { return nil }

type memOutbox struct {
	queued []domain.Trade
}

func (m *memOutbox) Enqueue(trade domain.Trade) error {
	if err := trade.Validate(); err != nil {
		return err
	}
	m.queued = append(m.queued, trade)
	return nil
}

func (m *memOutbox) Flush(ctx context.Context, store journal.Saver) (int, error) {
	n := 0
	for i := range m.queued {
		if err := store.SaveTrade(ctx, &m.queued[i]); err != nil {
			m.queued = m.queued[i:]
			return n, err
		}
		n++
	}
	m.queued = nil
	return n, nil
}

func newTestDesk() (*Desk, *fakeExchange, *memJournal) {
	exchange := &fakeExchange{}
	store := &memJournal{}
	desk := New(exchange, store, &memOutbox{}, "linear", zap.NewNop())
	return desk, exchange, store
}

func TestSubmitOrderPlacesAndJournals(t *testing.T) {
	desk, exchange, store := newTestDesk()

	ack, err := desk.SubmitOrder(t.Context(), OrderSubmission{
		UserID: "user-1",
		Symbol: "BTCUSDT",
		Side:   domain.SideBuy,
		Type:   domain.OrderTypeLimit,
		Qty:    decimal.RequireFromString("0.01"),
		Price:  decimal.NewFromInt(50000),
		Notes:  "breakout entry",
		Tags:   []string{"swing"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", ack.OrderID)

	require.Len(t, exchange.placed, 1)
	assert.Equal(t, "linear", exchange.placed[0].Category)

	require.Len(t, store.saved, 1)
	entry := store.saved[0]
	assert.Equal(t, "user-1", entry.UserID)
	assert.Equal(t, "BTCUSDT", entry.Symbol)
	assert.Equal(t, domain.StatusPending, entry.Status)
	assert.Equal(t, "breakout entry", entry.Notes)
	assert.True(t, entry.Quantity.Equal(decimal.RequireFromString("0.01")))
}

func TestSubmitOrderRequiresUser(t *testing.T) {
	desk, exchange, store := newTestDesk()

	_, err := desk.SubmitOrder(t.Context(), OrderSubmission{
		Symbol: "BTCUSDT",
		Side:   domain.SideBuy,
		Type:   domain.OrderTypeMarket,
		Qty:    decimal.NewFromInt(1),
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "userId", verr.Field)
	assert.Empty(t, exchange.placed, "a rejected submission must not reach the exchange")
	assert.Empty(t, store.saved)
}

func TestSubmitOrderFailureJournalsNothing(t *testing.T) {
	desk, exchange, store := newTestDesk()
	exchange.placeErr = &domain.ExchangeError{Code: 10001, Message: "params error"}

	_, err := desk.SubmitOrder(t.Context(), OrderSubmission{
		UserID: "user-1",
		Symbol: "BTCUSDT",
		Side:   domain.SideBuy,
		Type:   domain.OrderTypeMarket,
		Qty:    decimal.NewFromInt(1),
	})

	var exErr *domain.ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Empty(t, store.saved, "a failed order must leave no journal entry")
}

func TestClosePositionJournalsOppositeSide(t *testing.T) {
	desk, exchange, store := newTestDesk()

	ack, err := desk.ClosePosition(t.Context(), "user-1", "BTCUSDT", domain.SideBuy, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, "close-1", ack.OrderID)
	assert.Equal(t, []string{"BTCUSDT"}, exchange.closed)

	require.Len(t, store.saved, 1)
	assert.Equal(t, domain.SideSell, store.saved[0].Side)
	assert.Contains(t, store.saved[0].Tags, "close")
}

func TestIndicatorsSummarizesKlineWindow(t *testing.T) {
	desk, exchange, _ := newTestDesk()
	for _, c := range []int64{9, 11, 10, 12, 10, 12, 14} {
		exchange.klines = append(exchange.klines, domain.Kline{Close: decimal.NewFromInt(c)})
	}

	summary, err := desk.Indicators(t.Context(), "BTCUSDT", "60", 3)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", exchange.klinesSymbol)
	assert.Equal(t, 6, exchange.klinesLimit, "fetch twice the period")
	assert.Equal(t, "BTCUSDT", summary.Symbol)
	assert.True(t, summary.SMA.Equal(decimal.NewFromInt(12)), "sma = %s", summary.SMA)
	assert.True(t, summary.Last.Equal(decimal.NewFromInt(14)))
}

func TestIndicatorsDefaultsPeriod(t *testing.T) {
	desk, exchange, _ := newTestDesk()

	// too few klines for the default period: the error must come from the
	// summary, after the fetch used the defaults
	_, err := desk.Indicators(t.Context(), "ETHUSDT", "", 0)
	require.Error(t, err)
	assert.Equal(t, 28, exchange.klinesLimit)
}

func TestTickerSnapshot(t *testing.T) {
	desk, _, _ := newTestDesk()

	tick, err := desk.TickerSnapshot(t.Context(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", tick.Symbol)
	assert.True(t, tick.LastPrice.Equal(decimal.NewFromInt(50000)))
}

func TestRefreshCombinesBalanceAndPositions(t *testing.T) {
	desk, _, _ := newTestDesk()

	overview, err := desk.Refresh(t.Context())
	require.NoError(t, err)
	require.Len(t, overview.Balances, 1)
	assert.Equal(t, "USDT", overview.Balances[0].Coin)
	require.Len(t, overview.Positions, 1)
	assert.Equal(t, "BTCUSDT", overview.Positions[0].Symbol)
}
