package domain

import "github.com/shopspring/decimal"

// Balance is a wallet snapshot for a single coin, replaced wholesale on
// each fetch.
type Balance struct {
	Coin             string
	WalletBalance    decimal.Decimal
	AvailableBalance decimal.Decimal
	UnrealisedPnl    decimal.Decimal
}

// Position is a snapshot of an open position. Closing one is a
// side-effecting exchange call, not a local state transition.
type Position struct {
	Symbol        string
	Side          Side
	Size          decimal.Decimal
	EntryPrice    decimal.Decimal
	MarkPrice     decimal.Decimal
	Leverage      decimal.Decimal
	UnrealisedPnl decimal.Decimal
	PositionValue decimal.Decimal
}

// PnL recomputes unrealised profit from entry and mark price. The exchange
// already reports it, this is the local cross-check the desk runs on each
// refresh.
func (p *Position) PnL() decimal.Decimal {
	if p.Side == SideSell {
		return p.EntryPrice.Sub(p.MarkPrice).Mul(p.Size)
	}
	return p.MarkPrice.Sub(p.EntryPrice).Mul(p.Size)
}
