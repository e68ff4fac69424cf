// Package market provides live ticker streaming and indicator summaries on
// top of exchange market data.
package market

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"tradedesk/internal/domain"
	"tradedesk/internal/exchange/bybit"
)

const (
	// MainnetStreamURL is the public spot ticker stream endpoint.
	MainnetStreamURL = "wss://stream.bybit.com/v5/public/spot"
	// TestnetStreamURL is the testnet equivalent.
	TestnetStreamURL = "wss://stream-testnet.bybit.com/v5/public/spot"

	reconnectDelay = 5 * time.Second
	readTimeout    = 90 * time.Second
)

// Stream subscribes to the public ticker topics for a set of symbols and
// pushes updates into a channel. It reconnects with a fixed delay until the
// context is cancelled, then closes the channel.
type Stream struct {
	url     string
	symbols []string
	logger  *zap.Logger
}

// NewStream builds a stream for the given endpoint and symbols.
func NewStream(url string, symbols []string, logger *zap.Logger) *Stream {
	return &Stream{url: url, symbols: symbols, logger: logger}
}

type subscribeRequest struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

type tickerMessage struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Data  struct {
		Symbol       string `json:"symbol"`
		LastPrice    string `json:"lastPrice"`
		Bid1Price    string `json:"bid1Price"`
		Ask1Price    string `json:"ask1Price"`
		HighPrice24h string `json:"highPrice24h"`
		LowPrice24h  string `json:"lowPrice24h"`
		Price24hPcnt string `json:"price24hPcnt"`
		Volume24h    string `json:"volume24h"`
	} `json:"data"`
}

// Run streams ticker updates until ctx is cancelled. The returned channel
// is closed on shutdown; consumers range over it.
func (s *Stream) Run(ctx context.Context) <-chan domain.Ticker {
	out := make(chan domain.Ticker, 16)

	go func() {
		defer close(out)

		delay := &backoff.Backoff{Min: reconnectDelay, Max: reconnectDelay, Factor: 1}
		for {
			if err := s.readOnce(ctx, out); err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("ticker stream disconnected, reconnecting",
					zap.Error(err), zap.Duration("delay", reconnectDelay))
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay.Duration()):
			}
		}
	}()

	return out
}

// readOnce dials, subscribes and pumps messages until the connection drops
// or ctx is cancelled.
func (s *Stream) readOnce(ctx context.Context, out chan<- domain.Ticker) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// close the socket when ctx ends so the blocked read returns
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	topics := make([]string, 0, len(s.symbols))
	for _, symbol := range s.symbols {
		topics = append(topics, "tickers."+symbol)
	}
	if err := conn.WriteJSON(subscribeRequest{Op: "subscribe", Args: topics}); err != nil {
		return err
	}
	s.logger.Info("subscribed to ticker stream", zap.Strings("topics", topics))

	// last full snapshot per symbol; deltas only carry changed fields
	last := make(map[string]domain.Ticker)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg tickerMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.logger.Debug("skipping unparseable frame", zap.Error(err))
			continue
		}
		if msg.Data.Symbol == "" {
			continue
		}

		ticker := mergeTicker(last[msg.Data.Symbol], msg)
		last[msg.Data.Symbol] = ticker

		select {
		case out <- ticker:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// slow consumer: drop the update, the next one supersedes it
		}
	}
}

// mergeTicker overlays a (possibly partial) update onto the previous
// snapshot. Empty wire fields keep the prior value.
func mergeTicker(prev domain.Ticker, msg tickerMessage) domain.Ticker {
	t := prev
	t.Symbol = msg.Data.Symbol
	t.UpdatedAt = time.Now()

	if msg.Data.LastPrice != "" {
		t.LastPrice = bybit.ParseDecimal(msg.Data.LastPrice)
	}
	if msg.Data.Bid1Price != "" {
		t.Bid = bybit.ParseDecimal(msg.Data.Bid1Price)
	}
	if msg.Data.Ask1Price != "" {
		t.Ask = bybit.ParseDecimal(msg.Data.Ask1Price)
	}
	if msg.Data.HighPrice24h != "" {
		t.High24h = bybit.ParseDecimal(msg.Data.HighPrice24h)
	}
	if msg.Data.LowPrice24h != "" {
		t.Low24h = bybit.ParseDecimal(msg.Data.LowPrice24h)
	}
	if msg.Data.Price24hPcnt != "" {
		t.Change24hPct = bybit.ParseDecimal(msg.Data.Price24hPcnt).Mul(hundred)
	}
	if msg.Data.Volume24h != "" {
		t.Volume24h = bybit.ParseDecimal(msg.Data.Volume24h)
	}
	return t
}
