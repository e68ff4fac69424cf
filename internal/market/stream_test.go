package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{}

func tickerFrame(symbol, last, bid string) []byte {
	msg := tickerMessage{Topic: "tickers." + symbol, Type: "snapshot"}
	msg.Data.Symbol = symbol
	msg.Data.LastPrice = last
	msg.Data.Bid1Price = bid
	raw, _ := json.Marshal(msg)
	return raw
}

func TestStreamDeliversMergedTickers(t *testing.T) {
	received := make(chan []string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub subscribeRequest
		require.NoError(t, conn.ReadJSON(&sub))
		received <- sub.Args

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, tickerFrame("BTCUSDT", "50000", "49999")))

		// delta without a bid: the previous bid must be kept
		delta := tickerFrame("BTCUSDT", "50100", "")
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, delta))

		// hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	stream := NewStream(url, []string{"BTCUSDT"}, zap.NewNop())
	out := stream.Run(ctx)

	select {
	case args := <-received:
		assert.Equal(t, []string{"tickers.BTCUSDT"}, args)
	case <-time.After(5 * time.Second):
		t.Fatal("no subscribe request received")
	}

	first := <-out
	assert.Equal(t, "BTCUSDT", first.Symbol)
	assert.True(t, first.LastPrice.Equal(decimal.NewFromInt(50000)))
	assert.True(t, first.Bid.Equal(decimal.NewFromInt(49999)))

	second := <-out
	assert.True(t, second.LastPrice.Equal(decimal.NewFromInt(50100)))
	assert.True(t, second.Bid.Equal(decimal.NewFromInt(49999)), "delta must keep the previous bid")

	cancel()
	for range out {
		// drain until closed
	}
}

func TestStreamClosesChannelOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	out := NewStream(url, []string{"ETHUSDT"}, zap.NewNop()).Run(ctx)

	cancel()

	select {
	case _, open := <-out:
		assert.False(t, open, "channel must be closed after cancellation")
	case <-time.After(5 * time.Second):
		t.Fatal("channel did not close")
	}
}
