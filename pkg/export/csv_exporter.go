package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// utf8BOM lets spreadsheet tools detect the encoding of accented names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dataset defines tabular export content. Each row holds one cell per header.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct {
	comma rune
	bom   bool
}

// CSVOption customises the CSV output.
type CSVOption func(*CSVExporter)

// WithSeparator changes the field separator.
func WithSeparator(comma rune) CSVOption {
	return func(e *CSVExporter) { e.comma = comma }
}

// WithoutBOM omits the UTF-8 byte order mark.
func WithoutBOM() CSVOption {
	return func(e *CSVExporter) { e.bom = false }
}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter(opts ...CSVOption) *CSVExporter {
	e := &CSVExporter{comma: ',', bom: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	if e.bom {
		buf.Write(utf8BOM)
	}
	writer := csv.NewWriter(buf)
	writer.Comma = e.comma
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for i, row := range data.Rows {
		if len(row) != len(data.Headers) {
			return nil, fmt.Errorf("csv row %d has %d cells, want %d", i, len(row), len(data.Headers))
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
