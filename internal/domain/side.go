package domain

// Side direction of an order or position.
type Side int

const (
	// SideBuy buy (long) side.
	SideBuy Side = iota
	// SideSell sell (short) side.
	SideSell
)

// String returns the wire representation used by the exchange.
func (s Side) String() string {
	if s == SideSell {
		return "Sell"
	}
	return "Buy"
}

// Opposite returns the other side, used for reduce-only close orders.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// ParseSide converts an exchange side string to a Side.
// The exchange is case-insensitive here, historical exports use lowercase.
func ParseSide(raw string) (Side, bool) {
	switch raw {
	case "Buy", "buy", "BUY":
		return SideBuy, true
	case "Sell", "sell", "SELL":
		return SideSell, true
	}
	return SideBuy, false
}

// OrderType execution type of an order.
type OrderType int

const (
	// OrderTypeMarket market order, executed at the best available price.
	OrderTypeMarket OrderType = iota
	// OrderTypeLimit limit order, executed at the given price or better.
	OrderTypeLimit
)

// String returns the wire representation used by the exchange.
func (t OrderType) String() string {
	if t == OrderTypeLimit {
		return "Limit"
	}
	return "Market"
}

// ParseOrderType converts an exchange order type string to an OrderType.
func ParseOrderType(raw string) (OrderType, bool) {
	switch raw {
	case "Market", "market", "MARKET":
		return OrderTypeMarket, true
	case "Limit", "limit", "LIMIT":
		return OrderTypeLimit, true
	}
	return OrderTypeMarket, false
}

// OrderStatus lifecycle state of an order as reported by the exchange.
// Transitions happen server-side, the client only re-fetches.
type OrderStatus int

const (
	// StatusPending order accepted but not fully executed yet.
	StatusPending OrderStatus = iota
	// StatusFilled order fully executed.
	StatusFilled
	// StatusCancelled order cancelled before full execution.
	StatusCancelled
	// StatusRejected order rejected by the exchange.
	StatusRejected
)

// String returns the canonical lowercase name.
func (s OrderStatus) String() string {
	switch s {
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	case StatusRejected:
		return "rejected"
	}
	return "pending"
}

// ParseOrderStatus maps exchange order states onto the four local states.
// Unknown states map to pending: the exchange adds states over time and an
// unrecognised one must not fail a whole history fetch.
func ParseOrderStatus(raw string) OrderStatus {
	switch raw {
	case "Filled", "filled":
		return StatusFilled
	case "Cancelled", "cancelled", "Deactivated":
		return StatusCancelled
	case "Rejected", "rejected":
		return StatusRejected
	}
	return StatusPending
}
