package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRecord is one row of exchange order history. State transitions happen
// server-side; the client only re-fetches.
type OrderRecord struct {
	OrderID     string
	OrderLinkID string
	Symbol      string
	Side        Side
	OrderType   OrderType
	Qty         decimal.Decimal
	Price       decimal.Decimal
	ExecutedQty decimal.Decimal
	AvgPrice    decimal.Decimal
	Status      OrderStatus
	CreateTime  time.Time
}
