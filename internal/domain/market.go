package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker read-only market snapshot for a symbol.
type Ticker struct {
	Symbol       string
	LastPrice    decimal.Decimal
	Bid          decimal.Decimal
	Ask          decimal.Decimal
	High24h      decimal.Decimal
	Low24h       decimal.Decimal
	Change24hPct decimal.Decimal
	Volume24h    decimal.Decimal
	UpdatedAt    time.Time
}

// Kline candlestick data point.
type Kline struct {
	Start    time.Time
	Open     decimal.Decimal
	High     decimal.Decimal
	Low      decimal.Decimal
	Close    decimal.Decimal
	Volume   decimal.Decimal
	Turnover decimal.Decimal
}
