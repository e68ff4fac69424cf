package export

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"tradedesk/internal/domain"
)

// Format selects an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// Render encodes the trades in the requested format.
func Render(trades []domain.Trade, format Format) (string, error) {
	switch format {
	case FormatCSV:
		return ToCSV(trades)
	case FormatJSON:
		return ToJSON(trades)
	case FormatHTML:
		return ToHTMLTable(trades)
	}
	return "", errors.Errorf("unsupported export format %q", format)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "text/csv"
}

// WriteFile renders the trades into dir/name.<format> and returns the path.
func WriteFile(trades []domain.Trade, dir, name string, format Format) (string, error) {
	content, err := Render(trades, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create export dir")
	}

	path := filepath.Join(dir, name+"."+string(format))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", errors.Wrap(err, "write export file")
	}
	return path, nil
}
