package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	landscapeWidth = 277.0
	rowHeight      = 7.0
	headerHeight   = 8.0
)

// PDFExporter renders datasets into a landscape tabular PDF.
type PDFExporter struct {
	weights map[string]float64
}

// NewPDFExporter constructs a PDF exporter. weights widens columns by header
// name; unlisted columns weigh 1.
func NewPDFExporter(weights map[string]float64) *PDFExporter {
	return &PDFExporter{weights: weights}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	widths := e.columnWidths(data.Headers)

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 240)
		for i, h := range data.Headers {
			pdf.CellFormat(widths[i], headerHeight, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}

	pdf.AddPage()
	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(data.Title)), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range data.Rows {
		if pdf.GetY()+rowHeight > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		for i := range data.Headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			pdf.CellFormat(widths[i], rowHeight, fit(pdf, tr(value), widths[i]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) columnWidths(headers []string) []float64 {
	total := 0.0
	weights := make([]float64, len(headers))
	for i, h := range headers {
		w := 1.0
		if v, ok := e.weights[h]; ok && v > 0 {
			w = v
		}
		weights[i] = w
		total += w
	}
	for i := range weights {
		weights[i] = landscapeWidth * weights[i] / total
	}
	return weights
}

// fit truncates an already translated single-byte value with an ellipsis so
// it stays inside one cell.
func fit(pdf *gofpdf.Fpdf, value string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(value) <= limit {
		return value
	}
	for len(value) > 0 && pdf.GetStringWidth(value+"...") > limit {
		value = value[:len(value)-1]
	}
	return value + "..."
}
