package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth  = 277.0
	pdfHeaderFill = 220
	pdfBandFill   = 240
)

// PDFExporter renders a Sheet as a landscape table with one shaded band per group.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates the PDF document.
func (e *PDFExporter) Render(sheet Sheet) ([]byte, error) {
	if sheet.width() < 2 {
		return nil, fmt.Errorf("pdf requires a label column and at least one value column")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	if sheet.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, sheet.Title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	colWidth := pdfPageWidth / float64(sheet.width())
	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(pdfHeaderFill, pdfHeaderFill, pdfHeaderFill)
		for _, h := range sheet.Headers {
			pdf.CellFormat(colWidth, 8, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
	header()

	if sheet.rowCount() == 0 {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(pdfPageWidth, 8, "No bookings", "1", 1, "C", false, 0, "")
	}

	for _, group := range sheet.Groups {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(pdfBandFill, pdfBandFill, pdfBandFill)
		pdf.CellFormat(pdfPageWidth, 7, group.Label, "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "", 8)
		for _, row := range group.Rows {
			pdf.CellFormat(colWidth, 7, "", "1", 0, "", false, 0, "")
			for i := 1; i < sheet.width(); i++ {
				value := ""
				if i-1 < len(row) {
					value = row[i-1]
				}
				pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
