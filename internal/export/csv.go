// Package export renders trade journal entries as CSV, an HTML table
// (openable by spreadsheet software) or pretty-printed JSON. All exporters
// are pure functions of the input slice; an empty journal produces a
// header-only CSV and an empty JSON array, never an error.
package export

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"tradedesk/internal/domain"
)

// csvHeader is the fixed column order of the CSV export.
var csvHeader = []string{
	"date", "time", "symbol", "side", "type",
	"quantity", "price", "amount", "fee", "status", "notes", "tags",
}

const (
	csvDateLayout = "2006-01-02"
	csvTimeLayout = "15:04:05"
	// tagSeparator joins the tag list into one cell. Trade.Validate rejects
	// tags containing it, so the list survives a re-import.
	tagSeparator = "; "
)

// ToCSV renders the trades with the fixed column layout. Fields containing
// delimiters or quotes are quoted per RFC 4180, so free-text notes survive
// the round trip.
func ToCSV(trades []domain.Trade) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", errors.Wrap(err, "write csv header")
	}

	for _, trade := range trades {
		created := trade.CreatedAt.UTC()
		row := []string{
			created.Format(csvDateLayout),
			created.Format(csvTimeLayout),
			trade.Symbol,
			strings.ToLower(trade.Side.String()),
			strings.ToLower(trade.OrderType.String()),
			trade.Quantity.String(),
			trade.Price.String(),
			trade.Amount().String(),
			trade.Fee.String(),
			trade.Status.String(),
			trade.Notes,
			strings.Join(trade.Tags, tagSeparator),
		}
		if err := w.Write(row); err != nil {
			return "", errors.Wrap(err, "write csv row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrap(err, "flush csv")
	}
	return buf.String(), nil
}

// FromCSV parses a journal previously produced by ToCSV. Numeric fields
// round-trip exactly; malformed rows fail the import.
func FromCSV(s string) ([]domain.Trade, error) {
	r := csv.NewReader(strings.NewReader(s))
	r.FieldsPerRecord = len(csvHeader)

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.New("empty csv input")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}
	if !equalFold(header, csvHeader) {
		return nil, errors.Errorf("unexpected csv header: %v", header)
	}

	trades := make([]domain.Trade, 0)
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read csv line %d", line)
		}

		trade, err := tradeFromRow(row)
		if err != nil {
			return nil, errors.Wrapf(err, "csv line %d", line)
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

func tradeFromRow(row []string) (domain.Trade, error) {
	createdAt, err := time.ParseInLocation(csvDateLayout+" "+csvTimeLayout, row[0]+" "+row[1], time.UTC)
	if err != nil {
		return domain.Trade{}, errors.Wrap(err, "parse timestamp")
	}

	qty, err := decimal.NewFromString(row[5])
	if err != nil {
		return domain.Trade{}, errors.Wrap(err, "parse quantity")
	}
	price, err := decimal.NewFromString(row[6])
	if err != nil {
		return domain.Trade{}, errors.Wrap(err, "parse price")
	}
	amount, err := decimal.NewFromString(row[7])
	if err != nil {
		return domain.Trade{}, errors.Wrap(err, "parse amount")
	}
	fee, err := decimal.NewFromString(row[8])
	if err != nil {
		return domain.Trade{}, errors.Wrap(err, "parse fee")
	}

	side, ok := domain.ParseSide(row[3])
	if !ok {
		return domain.Trade{}, errors.Errorf("unknown side %q", row[3])
	}
	orderType, ok := domain.ParseOrderType(row[4])
	if !ok {
		return domain.Trade{}, errors.Errorf("unknown order type %q", row[4])
	}

	var tags []string
	if row[11] != "" {
		tags = strings.Split(row[11], tagSeparator)
	}

	return domain.Trade{
		Symbol:      row[2],
		Side:        side,
		OrderType:   orderType,
		Quantity:    qty,
		Price:       price,
		TotalAmount: amount,
		Fee:         fee,
		Status:      domain.ParseOrderStatus(row[9]),
		Notes:       row[10],
		Tags:        tags,
		CreatedAt:   createdAt,
	}, nil
}

func equalFold(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
