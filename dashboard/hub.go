package dashboard

import (
	"sync"

	"tradedesk/internal/domain"
)

const subscriberBuffer = 16

// tickerHub fans a single market stream out to every connected SSE client.
// It remembers the latest ticker per symbol so a fresh subscriber gets the
// current state immediately. Slow subscribers drop updates instead of
// stalling the stream.
type tickerHub struct {
	mu     sync.Mutex
	subs   map[chan domain.Ticker]struct{}
	latest map[string]domain.Ticker
}

func newTickerHub() *tickerHub {
	return &tickerHub{
		subs:   make(map[chan domain.Ticker]struct{}),
		latest: make(map[string]domain.Ticker),
	}
}

func (h *tickerHub) publish(t domain.Ticker) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest[t.Symbol] = t
	for sub := range h.subs {
		select {
		case sub <- t:
		default:
		}
	}
}

// subscribe registers a new client. The returned replay slice holds the
// latest ticker per known symbol at subscription time.
func (h *tickerHub) subscribe() (<-chan domain.Ticker, []domain.Ticker, func()) {
	ch := make(chan domain.Ticker, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	replay := make([]domain.Ticker, 0, len(h.latest))
	for _, t := range h.latest {
		replay = append(replay, t)
	}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, replay, unsubscribe
}
