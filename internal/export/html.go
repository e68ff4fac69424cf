package export

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/pkg/errors"

	"tradedesk/internal/domain"
)

// htmlTableTemplate is intentionally plain: the file is meant to be opened
// by spreadsheet software, not a browser.
var htmlTableTemplate = template.Must(template.New("trades").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Trade Journal</title></head>
<body>
<table border="1">
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>
</body>
</html>
`))

// ToHTMLTable renders the trades as a single-table HTML document with the
// same column layout as the CSV export. Cell content is escaped by
// html/template.
func ToHTMLTable(trades []domain.Trade) (string, error) {
	rows := make([][]string, 0, len(trades))
	for _, trade := range trades {
		created := trade.CreatedAt.UTC()
		rows = append(rows, []string{
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
		})
	}

	var buf bytes.Buffer
	err := htmlTableTemplate.Execute(&buf, struct {
		Header []string
		Rows   [][]string
	}{Header: csvHeader, Rows: rows})
	if err != nil {
		return "", errors.Wrap(err, "render html table")
	}
	return buf.String(), nil
}
