package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Trade is a journal entry describing a single trade made (or planned) by a
// user. Entries are created manually or from a filled order, may be edited,
// and are soft-deleted. Ownership is per user and enforced by the store.
type Trade struct {
	ID            string
	UserID        string
	Symbol        string
	Side          Side
	OrderType     OrderType
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	ExecutedPrice decimal.Decimal
	TotalAmount   decimal.Decimal
	Fee           decimal.Decimal
	Status        OrderStatus
	Notes         string
	Tags          []string
	CreatedAt     time.Time
	ExecutedAt    *time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// Amount returns the notional value of the entry. TotalAmount wins when the
// server already computed it, otherwise quantity times price.
func (t *Trade) Amount() decimal.Decimal {
	if !t.TotalAmount.IsZero() {
		return t.TotalAmount
	}
	return t.Quantity.Mul(t.Price)
}

// Validate checks the fields a journal write depends on.
func (t *Trade) Validate() error {
	if t.UserID == "" {
		return &ValidationError{Field: "userId", Reason: "must not be empty"}
	}
	if strings.TrimSpace(t.Symbol) == "" {
		return &ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if t.Quantity.LessThanOrEqual(decimal.Zero) {
		return &ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	if t.Price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if t.Fee.IsNegative() {
		return &ValidationError{Field: "fee", Reason: "must not be negative"}
	}
	for _, tag := range t.Tags {
		// "; " is the tag list separator in exports; a tag containing it
		// would split into two tags on re-import
		if strings.Contains(tag, "; ") {
			return &ValidationError{Field: "tags", Reason: `must not contain "; "`}
		}
	}
	return nil
}

// TradeFilter narrows a journal listing. Zero values mean "any".
type TradeFilter struct {
	Symbol string
	Status *OrderStatus
	Tag    string
	Limit  int
}
