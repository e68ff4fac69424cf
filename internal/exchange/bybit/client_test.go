package bybit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/domain"
)

var fixedClock = func() time.Time { return time.UnixMilli(1700000000000) }

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]Option{
		WithBaseURL(srv.URL),
		WithClock(fixedClock),
		WithRetry(3, time.Millisecond),
	}, opts...)

	client, err := NewClient("testkey", "testsecret", true, opts...)
	require.NoError(t, err)
	return client, srv
}

func writeEnvelope(w http.ResponseWriter, result interface{}) {
	raw, _ := json.Marshal(result)
	_ = json.NewEncoder(w).Encode(envelope{RetCode: 0, RetMsg: "OK", Result: raw})
}

func TestWalletBalanceSignsRequest(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/account/wallet-balance", r.URL.Path)
		assert.Equal(t, "accountType=UNIFIED", r.URL.RawQuery)
		assert.Equal(t, "testkey", r.Header.Get("X-BAPI-API-KEY"))
		assert.Equal(t, "2", r.Header.Get("X-BAPI-SIGNATURE-TYPE"))
		assert.Equal(t, "1700000000000", r.Header.Get("X-BAPI-TIMESTAMP"))
		assert.Equal(t, "5000", r.Header.Get("X-BAPI-RECV-WINDOW"))

		expected := Sign("testsecret", 1700000000000, "testkey", "5000", r.URL.RawQuery)
		assert.Equal(t, expected, r.Header.Get("X-BAPI-SIGNATURE"))

		writeEnvelope(w, walletBalanceResult{List: []walletAccount{{
			AccountType: "UNIFIED",
			Coin: []walletCoin{
				{Coin: "USDT", WalletBalance: "1500.25", AvailableToWithdraw: "1200", UnrealisedPnl: "-3.5"},
				{Coin: "BTC", WalletBalance: "not-a-number", AvailableToWithdraw: ""},
			},
		}}})
	})

	balances, err := client.WalletBalance(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 2)

	assert.Equal(t, "USDT", balances[0].Coin)
	assert.True(t, balances[0].WalletBalance.Equal(decimal.RequireFromString("1500.25")))
	assert.True(t, balances[0].UnrealisedPnl.Equal(decimal.RequireFromString("-3.5")))

	// malformed and absent monetary strings collapse to zero
	assert.True(t, balances[1].WalletBalance.IsZero())
	assert.True(t, balances[1].AvailableBalance.IsZero())
}

func TestWalletBalanceEmptyResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, walletBalanceResult{})
	})

	balances, err := client.WalletBalance(context.Background())
	require.NoError(t, err)
	assert.Empty(t, balances)
}

func TestCanonicalQuerySorted(t *testing.T) {
	got := canonicalQuery(map[string]string{
		"symbol":   "BTCUSDT",
		"category": "linear",
		"limit":    "50",
	})
	assert.Equal(t, "category=linear&limit=50&symbol=BTCUSDT", got)

	assert.Equal(t, "", canonicalQuery(nil))
}

func TestExchangeErrorNotRetried(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(envelope{RetCode: 10003, RetMsg: "API key is invalid."})
	})

	_, err := client.WalletBalance(context.Background())

	var exchErr *domain.ExchangeError
	require.ErrorAs(t, err, &exchErr)
	assert.Equal(t, 10003, exchErr.Code)
	assert.Equal(t, "API key is invalid.", exchErr.Message)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "exchange errors must not be retried")
}

func TestTransientFailureRetried(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeEnvelope(w, tickersResult{List: []tickerRow{{Symbol: "BTCUSDT", LastPrice: "50000"}}})
	})

	ticker, err := client.Ticker(context.Background(), "spot", "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, ticker.LastPrice.Equal(decimal.NewFromInt(50000)))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestRetriesAreBounded(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Ticker(context.Background(), "spot", "BTCUSDT")

	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestPlaceOrderValidationSkipsNetwork(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := client.PlaceOrder(context.Background(), OrderRequest{
		Symbol: "BTCUSDT",
		Side:   domain.SideBuy,
		Type:   domain.OrderTypeMarket,
		// Qty left zero
	})

	var valErr *domain.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "qty", valErr.Field)
	assert.Zero(t, atomic.LoadInt32(&calls), "invalid requests must never reach the wire")

	_, err = client.PlaceOrder(context.Background(), OrderRequest{
		Symbol: "BTCUSDT",
		Side:   domain.SideSell,
		Type:   domain.OrderTypeLimit,
		Qty:    decimal.NewFromFloat(0.5),
		// limit order without price
	})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "price", valErr.Field)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestPlaceOrderCarriesLinkID(t *testing.T) {
	var received createOrderBody
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		writeEnvelope(w, orderAckResult{OrderID: "1234", OrderLinkID: received.OrderLinkID})
	})

	ack, err := client.PlaceOrder(context.Background(), OrderRequest{
		Symbol: "BTCUSDT",
		Side:   domain.SideBuy,
		Type:   domain.OrderTypeLimit,
		Qty:    decimal.NewFromFloat(0.01),
		Price:  decimal.NewFromInt(50000),
	})
	require.NoError(t, err)

	assert.Equal(t, "1234", ack.OrderID)
	assert.NotEmpty(t, ack.OrderLinkID, "a link ID must be generated when absent")
	assert.Equal(t, received.OrderLinkID, ack.OrderLinkID)
	assert.Equal(t, "Buy", received.Side)
	assert.Equal(t, "Limit", received.OrderType)
	assert.Equal(t, "0.01", received.Qty)
	assert.Equal(t, "50000", received.Price)
	assert.Equal(t, "GTC", received.TimeInForce)
	assert.Equal(t, "linear", received.Category)
}

func TestClosePositionIsReduceOnlyOppositeSide(t *testing.T) {
	var received createOrderBody
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		writeEnvelope(w, orderAckResult{OrderID: "77"})
	})

	_, err := client.ClosePosition(context.Background(), "linear", "ETHUSDT", domain.SideBuy, decimal.NewFromInt(2))
	require.NoError(t, err)

	assert.Equal(t, "Sell", received.Side)
	assert.Equal(t, "Market", received.OrderType)
	assert.True(t, received.ReduceOnly)
	assert.Equal(t, "2", received.Qty)
}

func TestKlinesReturnedOldestFirst(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, klineResult{
			Symbol: "BTCUSDT",
			List: [][]string{
				{"1700000120000", "3", "3", "3", "3", "1", "3"},
				{"1700000060000", "2", "2", "2", "2", "1", "2"},
				{"1700000000000", "1", "1", "1", "1", "1", "1"},
			},
		})
	})

	klines, err := client.Klines(context.Background(), "linear", "BTCUSDT", "1", 3)
	require.NoError(t, err)
	require.Len(t, klines, 3)

	assert.True(t, klines[0].Start.Before(klines[1].Start))
	assert.True(t, klines[1].Start.Before(klines[2].Start))
	assert.True(t, klines[0].Close.Equal(decimal.NewFromInt(1)))
	assert.True(t, klines[2].Close.Equal(decimal.NewFromInt(3)))
}

func TestOrderHistoryMapsStatuses(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, orderHistoryResult{List: []orderRow{
			{OrderID: "1", Symbol: "BTCUSDT", Side: "Buy", OrderType: "Limit", OrderStatus: "Filled", Qty: "1", CreatedTime: "1700000000000"},
			{OrderID: "2", Symbol: "BTCUSDT", Side: "Sell", OrderType: "Market", OrderStatus: "Cancelled", Qty: "1"},
			{OrderID: "3", Symbol: "BTCUSDT", Side: "Sell", OrderType: "Market", OrderStatus: "PartiallyFilledCanceled", Qty: "1"},
		}})
	})

	records, err := client.OrderHistory(context.Background(), "linear", "BTCUSDT", 50)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, domain.StatusFilled, records[0].Status)
	assert.Equal(t, domain.StatusCancelled, records[1].Status)
	// unknown exchange states fall back to pending
	assert.Equal(t, domain.StatusPending, records[2].Status)
	assert.Equal(t, time.UnixMilli(1700000000000), records[0].CreateTime)
}

func TestNewClientRejectsEmptySecret(t *testing.T) {
	_, err := NewClient("key", "", false)
	var confErr *domain.ConfigurationError
	require.ErrorAs(t, err, &confErr)
}

func TestTickerEmptyListIsError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, tickersResult{})
	})

	_, err := client.Ticker(context.Background(), "spot", "NOPEUSDT")
	require.Error(t, err)
}
