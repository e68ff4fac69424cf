package bybit

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"tradedesk/internal/domain"
)

// envelope is the common V5 response wrapper. retCode 0 means success,
// anything else is an exchange-reported error.
type envelope struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
	Time    int64           `json:"time"`
}

// ParseDecimal parses a monetary string from the wire. The exchange
// transmits every numeric field as a string and omits some of them
// depending on account type, so absent or malformed values collapse to
// zero instead of failing the whole response.
func ParseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func dec(s string) decimal.Decimal { return ParseDecimal(s) }

// msTime parses a millisecond-epoch string, zero time on malformed input.
func msTime(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

type walletBalanceResult struct {
	List []walletAccount `json:"list"`
}

type walletAccount struct {
	AccountType string       `json:"accountType"`
	Coin        []walletCoin `json:"coin"`
}

type walletCoin struct {
	Coin                string `json:"coin"`
	WalletBalance       string `json:"walletBalance"`
	AvailableToWithdraw string `json:"availableToWithdraw"`
	UnrealisedPnl       string `json:"unrealisedPnl"`
}

func (c walletCoin) toDomain() domain.Balance {
	return domain.Balance{
		Coin:             c.Coin,
		WalletBalance:    dec(c.WalletBalance),
		AvailableBalance: dec(c.AvailableToWithdraw),
		UnrealisedPnl:    dec(c.UnrealisedPnl),
	}
}

type positionListResult struct {
	Category string        `json:"category"`
	List     []positionRow `json:"list"`
}

type positionRow struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Size          string `json:"size"`
	AvgPrice      string `json:"avgPrice"`
	MarkPrice     string `json:"markPrice"`
	Leverage      string `json:"leverage"`
	UnrealisedPnl string `json:"unrealisedPnl"`
	PositionValue string `json:"positionValue"`
}

func (p positionRow) toDomain() domain.Position {
	side, _ := domain.ParseSide(p.Side)
	return domain.Position{
		Symbol:        p.Symbol,
		Side:          side,
		Size:          dec(p.Size),
		EntryPrice:    dec(p.AvgPrice),
		MarkPrice:     dec(p.MarkPrice),
		Leverage:      dec(p.Leverage),
		UnrealisedPnl: dec(p.UnrealisedPnl),
		PositionValue: dec(p.PositionValue),
	}
}

type tickersResult struct {
	Category string      `json:"category"`
	List     []tickerRow `json:"list"`
}

type tickerRow struct {
	Symbol       string `json:"symbol"`
	LastPrice    string `json:"lastPrice"`
	Bid1Price    string `json:"bid1Price"`
	Ask1Price    string `json:"ask1Price"`
	HighPrice24h string `json:"highPrice24h"`
	LowPrice24h  string `json:"lowPrice24h"`
	Price24hPcnt string `json:"price24hPcnt"`
	Volume24h    string `json:"volume24h"`
}

func (t tickerRow) toDomain(now time.Time) domain.Ticker {
	// price24hPcnt comes as a fraction, e.g. "0.0312" for +3.12%.
	change := dec(t.Price24hPcnt).Mul(decimal.NewFromInt(100))
	return domain.Ticker{
		Symbol:       t.Symbol,
		LastPrice:    dec(t.LastPrice),
		Bid:          dec(t.Bid1Price),
		Ask:          dec(t.Ask1Price),
		High24h:      dec(t.HighPrice24h),
		Low24h:       dec(t.LowPrice24h),
		Change24hPct: change,
		Volume24h:    dec(t.Volume24h),
		UpdatedAt:    now,
	}
}

// klineResult rows are positional string arrays:
// [startTime, open, high, low, close, volume, turnover].
type klineResult struct {
	Category string     `json:"category"`
	Symbol   string     `json:"symbol"`
	List     [][]string `json:"list"`
}

func klineFromRow(row []string) domain.Kline {
	var k domain.Kline
	if len(row) < 7 {
		return k
	}
	k.Start = msTime(row[0])
	k.Open = dec(row[1])
	k.High = dec(row[2])
	k.Low = dec(row[3])
	k.Close = dec(row[4])
	k.Volume = dec(row[5])
	k.Turnover = dec(row[6])
	return k
}

type orderHistoryResult struct {
	Category string     `json:"category"`
	List     []orderRow `json:"list"`
}

type orderRow struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	OrderType   string `json:"orderType"`
	Qty         string `json:"qty"`
	Price       string `json:"price"`
	CumExecQty  string `json:"cumExecQty"`
	AvgPrice    string `json:"avgPrice"`
	OrderStatus string `json:"orderStatus"`
	CreatedTime string `json:"createdTime"`
}

func (o orderRow) toDomain() domain.OrderRecord {
	side, _ := domain.ParseSide(o.Side)
	typ, _ := domain.ParseOrderType(o.OrderType)
	return domain.OrderRecord{
		OrderID:     o.OrderID,
		OrderLinkID: o.OrderLinkID,
		Symbol:      o.Symbol,
		Side:        side,
		OrderType:   typ,
		Qty:         dec(o.Qty),
		Price:       dec(o.Price),
		ExecutedQty: dec(o.CumExecQty),
		AvgPrice:    dec(o.AvgPrice),
		Status:      domain.ParseOrderStatus(o.OrderStatus),
		CreateTime:  msTime(o.CreatedTime),
	}
}

type orderAckResult struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
}

// OrderAck is the exchange acknowledgement of a create/cancel call. The
// client keeps no order-state cache, so observing the effect requires a
// fresh OrderHistory fetch.
type OrderAck struct {
	OrderID     string
	OrderLinkID string
}
