package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cafedata/cleanse/pkg/model"
	"github.com/cafedata/cleanse/pkg/report"
	"github.com/cafedata/cleanse/pkg/scanner"
)

func TestLoadMatchesColumnsByHeader(t *testing.T) {
	// Column order in the file differs from the canonical order.
	csvData := "Item,Transaction ID,Quantity,Price Per Unit,Total Spent,Payment Method,Location,Transaction Date\n" +
		"Coffee,T1,2,2.0,4.0,Cash,In-store,2024-01-01\n" +
		"ERROR,T2,,1.5,,Card,,2024-01-02\n"

	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0o644))

	rows, err := Load(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "T1", rows[0][model.ColTransactionID])
	assert.Equal(t, "Coffee", rows[0][model.ColItem])
	assert.Equal(t, "2.0", rows[0][model.ColPricePerUnit])

	assert.Equal(t, "ERROR", rows[1][model.ColItem])
	assert.Equal(t, "", rows[1][model.ColQuantity])
	assert.Equal(t, "", rows[1][model.ColLocation])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLoadMissingColumnLoadsAsNull(t *testing.T) {
	csvData := "Transaction ID,Item\nT1,Coffee\n"
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0o644))

	rows, err := Load(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0][model.ColQuantity])
	assert.Equal(t, "Coffee", rows[0][model.ColItem])
}

func TestWriteCleanedFormatsTypedCells(t *testing.T) {
	rows := []model.Row{
		{
			model.ColTransactionID:   "T1",
			model.ColItem:            "Coffee",
			model.ColQuantity:        2.0,
			model.ColPricePerUnit:    2.0,
			model.ColTotalSpent:      4.0,
			model.ColPaymentMethod:   "Cash",
			model.ColLocation:        "In-store",
			model.ColTransactionDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	path := filepath.Join(t.TempDir(), "cleaned.csv")
	require.NoError(t, WriteCleaned(path, rows))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "T1", loaded[0][model.ColTransactionID])
	assert.Equal(t, "2", loaded[0][model.ColQuantity])
	assert.Equal(t, "4", loaded[0][model.ColTotalSpent])
	assert.Equal(t, "2024-01-01", loaded[0][model.ColTransactionDate])
}

func TestWriteDiagnostics(t *testing.T) {
	diag := &scanner.Diagnostics{
		Rows: 2,
		Columns: []scanner.ColumnDiagnostics{
			{
				Column:                model.ColItem,
				NullValues:            1,
				EmptyValues:           1,
				TotalProblematic:      2,
				ProblematicPercentage: 100,
			},
		},
	}

	path := filepath.Join(t.TempDir(), "diag.csv")
	require.NoError(t, WriteDiagnostics(path, diag))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Column,Null_Values,Empty_Values,ERROR_Values,UNKNOWN_Values,Total_Problematic,Problematic_Percentage")
	assert.Contains(t, string(data), "Item,1,1,0,0,2,100.00")
}

func TestWriteSummary(t *testing.T) {
	summary := report.Summary{
		RunID:         "run-1",
		InitialRows:   2,
		FinalRows:     1,
		RetentionRate: 50,
	}

	path := filepath.Join(t.TempDir(), "summary.json")
	require.NoError(t, WriteSummary(path, summary))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Equal(t, float64(50), decoded["retention_rate"])
}
