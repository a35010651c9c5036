// pkg/dataset/dataset.go
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/cafedata/cleanse/pkg/model"
	"github.com/cafedata/cleanse/pkg/report"
	"github.com/cafedata/cleanse/pkg/scanner"
)

// Load reads the raw dataset from a CSV file. Columns are matched by header
// name, so file column order is irrelevant. Cells come back as raw strings;
// columns absent from the header load as nulls.
func Load(path string) ([]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset %s has no header row", path)
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	rows := make([]model.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(model.Row, len(model.Columns))
		for _, col := range model.Columns {
			i, ok := index[col]
			if !ok || i >= len(record) {
				row[col] = nil
				continue
			}
			row[col] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteCleaned writes the cleaned dataset in the canonical column order.
func WriteCleaned(path string, rows []model.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cleaned dataset file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(model.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		record := make([]string, len(model.Columns))
		for i, col := range model.Columns {
			record[i] = model.AsString(row[col])
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// diagnosticsHeader is the fixed column layout of the defect report CSV.
var diagnosticsHeader = []string{
	"Column",
	"Null_Values",
	"Empty_Values",
	"ERROR_Values",
	"UNKNOWN_Values",
	"Total_Problematic",
	"Problematic_Percentage",
}

// WriteDiagnostics writes the defect scanner's per-column report as CSV.
func WriteDiagnostics(path string, diag *scanner.Diagnostics) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create diagnostics file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(diagnosticsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, cd := range diag.Columns {
		record := []string{
			cd.Column,
			strconv.Itoa(cd.NullValues),
			strconv.Itoa(cd.EmptyValues),
			strconv.Itoa(cd.ErrorValues),
			strconv.Itoa(cd.UnknownValues),
			strconv.Itoa(cd.TotalProblematic),
			strconv.FormatFloat(cd.ProblematicPercentage, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteSummary writes the run summary as indented JSON.
func WriteSummary(path string, summary report.Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
