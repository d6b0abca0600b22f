package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders a Sheet as CSV, one record per row with the group label first.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the sheet.
func (e *CSVExporter) Render(sheet Sheet) ([]byte, error) {
	if sheet.width() < 2 {
		return nil, fmt.Errorf("csv requires a label column and at least one value column")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(sheet.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, group := range sheet.Groups {
		for _, row := range group.Rows {
			record := make([]string, sheet.width())
			record[0] = group.Label
			copy(record[1:], row)
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row for %s: %w", group.Label, err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
