package journal

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"tradedesk/internal/domain"
)

const (
	outboxSegmentLimit = 1000
	outboxMaxSegments  = 10

	tradeKeyPrefix = "trade_"
)

// Saver is the subset of Store the outbox flushes into.
type Saver interface {
	SaveTrade(ctx context.Context, trade *domain.Trade) error
}

// Outbox queues journal writes in a local WAL so an entry is never lost to
// a database outage. Enqueue always succeeds locally; Flush drains entries
// in write order and stops at the first persistence failure, so delivery is
// at-least-once and order-preserving. After a restart the whole WAL is
// replayed, which the store's idempotent insert absorbs.
type Outbox struct {
	wal *gowal.Wal

	mu      sync.Mutex
	flushed uint64
}

// NewOutbox opens (or creates) the WAL under dir.
func NewOutbox(dir string) (*Outbox, error) {
	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "seg_",
		SegmentThreshold: outboxSegmentLimit,
		MaxSegments:      outboxMaxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init outbox wal")
	}
	return &Outbox{wal: wal}, nil
}

// Enqueue appends the trade to the local queue. The ID is fixed here so a
// replayed flush inserts the same row, not a duplicate.
func (o *Outbox) Enqueue(trade domain.Trade) error {
	if err := trade.Validate(); err != nil {
		return err
	}
	if trade.ID == "" {
		trade.ID = uuid.NewString()
	}

	payload, err := json.Marshal(trade)
	if err != nil {
		return errors.Wrap(err, "marshal trade")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	return errors.Wrap(o.wal.Write(o.wal.CurrentIndex()+1, tradeKeyPrefix+trade.ID, payload), "write outbox")
}

// Pending reports how many enqueued entries have not been flushed yet.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return int(o.wal.CurrentIndex() - o.flushed)
}

// Flush drains pending entries into the store, in enqueue order. It returns
// the number flushed; on error the failing entry and everything after it
// stay queued for the next call.
func (o *Outbox) Flush(ctx context.Context, store Saver) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	current := o.wal.CurrentIndex()
	count := 0
	for idx := o.flushed + 1; idx <= current; idx++ {
		_, payload, err := o.wal.Get(idx)
		if err != nil {
			// gaps happen when old segments rotate out; nothing to replay
			o.flushed = idx
			continue
		}

		var trade domain.Trade
		if err := json.Unmarshal(payload, &trade); err != nil {
			return count, errors.Wrapf(err, "decode outbox entry %d", idx)
		}

		if err := store.SaveTrade(ctx, &trade); err != nil {
			return count, err
		}
		o.flushed = idx
		count++
	}
	return count, nil
}

// Close closes the underlying WAL.
func (o *Outbox) Close() error {
	return o.wal.Close()
}
