package services

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ochairo/aiaudit/internal/domain/entities"
)

// ReportAggregator accumulates report rows in discovery order
type ReportAggregator struct {
	columns []string
	rows    []entities.ReportRow
}

// NewReportAggregator creates an aggregator with a fixed column header
func NewReportAggregator(columns []string) *ReportAggregator {
	header := make([]string, len(columns))
	copy(header, columns)
	return &ReportAggregator{columns: header}
}

// Add appends a row
func (a *ReportAggregator) Add(row entities.ReportRow) {
	a.rows = append(a.rows, row)
}

// Len returns the number of accumulated rows
func (a *ReportAggregator) Len() int {
	return len(a.rows)
}

// Columns returns a copy of the header
func (a *ReportAggregator) Columns() []string {
	out := make([]string, len(a.columns))
	copy(out, a.columns)
	return out
}

// Rows returns a copy of the accumulated rows
func (a *ReportAggregator) Rows() []entities.ReportRow {
	out := make([]entities.ReportRow, len(a.rows))
	copy(out, a.rows)
	return out
}

// WriteCSV writes the header followed by one record per row. Columns a
// row does not carry are written as empty fields.
func (a *ReportAggregator) WriteCSV(w io.Writer) error {
	return WriteCSV(w, a.columns, a.rows)
}

// WriteCSV serializes rows under the given header
func WriteCSV(w io.Writer, columns []string, rows []entities.ReportRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(columns))
	for i, row := range rows {
		for j, column := range columns {
			value, _ := row.Value(column)
			record[j] = value
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}
	return nil
}
