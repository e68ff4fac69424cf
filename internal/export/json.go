package export

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"tradedesk/internal/domain"
)

// jsonTrade fixes the exported field names independently of the internal
// struct, so renames inside the codebase cannot silently change the file
// format users archive.
type jsonTrade struct {
	ID            string          `json:"id,omitempty"`
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	OrderType     string          `json:"orderType"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	ExecutedPrice decimal.Decimal `json:"executedPrice"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Fee           decimal.Decimal `json:"fee"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	Tags          []string        `json:"tags"`
	CreatedAt     string          `json:"createdAt"`
	ExecutedAt    string          `json:"executedAt,omitempty"`
}

// ToJSON renders the trades as a pretty-printed array with ISO-8601
// timestamps. An empty journal yields "[]".
func ToJSON(trades []domain.Trade) (string, error) {
	out := make([]jsonTrade, 0, len(trades))
	for _, trade := range trades {
		rec := jsonTrade{
			ID:            trade.ID,
			Symbol:        trade.Symbol,
			Side:          strings.ToLower(trade.Side.String()),
			OrderType:     strings.ToLower(trade.OrderType.String()),
			Quantity:      trade.Quantity,
			Price:         trade.Price,
			ExecutedPrice: trade.ExecutedPrice,
			TotalAmount:   trade.Amount(),
			Fee:           trade.Fee,
			Status:        trade.Status.String(),
			Notes:         trade.Notes,
			Tags:          trade.Tags,
			CreatedAt:     trade.CreatedAt.UTC().Format(time.RFC3339),
		}
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
		if trade.ExecutedAt != nil {
			rec.ExecutedAt = trade.ExecutedAt.UTC().Format(time.RFC3339)
		}
		out = append(out, rec)
	}

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal trades")
	}
	return string(raw), nil
}
