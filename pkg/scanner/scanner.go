// pkg/scanner/scanner.go
package scanner

import (
	"math"

	"go.uber.org/zap"

	"github.com/cafedata/cleanse/pkg/model"
)

// relTolerance is the relative tolerance for the quantity*price vs total
// consistency check.
const relTolerance = 1e-9

// ColumnDiagnostics holds the defect profile of one column.
type ColumnDiagnostics struct {
	Column                string
	NullValues            int
	EmptyValues           int
	ErrorValues           int
	UnknownValues         int
	TotalProblematic      int
	ProblematicPercentage float64
	UniqueValues          int
	ProblematicLiterals   []string
}

// Diagnostics is the read-only defect report over a raw dataset.
type Diagnostics struct {
	Rows             int
	Columns          []ColumnDiagnostics
	CalcMismatchRows int
}

// Scanner inspects raw datasets without mutating them.
type Scanner struct {
	logger *zap.Logger
}

// NewScanner creates a Scanner. A nil logger falls back to a no-op logger.
func NewScanner(logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{logger: logger.Named("scanner")}
}

// Scan classifies every cell of the dataset and checks recorded totals
// against quantity*price. The input is never modified.
func (s *Scanner) Scan(rows []model.Row) *Diagnostics {
	diag := &Diagnostics{Rows: len(rows)}

	for _, col := range model.Columns {
		cd := ColumnDiagnostics{Column: col}
		seen := make(map[string]struct{})
		problematic := make(map[string]struct{})

		for _, row := range rows {
			v := row[col]
			if v == nil {
				cd.NullValues++
				continue
			}
			seen[model.AsString(v)] = struct{}{}
			str, isStr := v.(string)
			if !isStr {
				continue
			}
			switch str {
			case "":
				cd.EmptyValues++
				problematic[str] = struct{}{}
			case model.SentinelError:
				cd.ErrorValues++
				problematic[str] = struct{}{}
			case model.SentinelUnknown:
				cd.UnknownValues++
				problematic[str] = struct{}{}
			}
		}

		cd.TotalProblematic = cd.NullValues + cd.EmptyValues + cd.ErrorValues + cd.UnknownValues
		if len(rows) > 0 {
			cd.ProblematicPercentage = float64(cd.TotalProblematic) / float64(len(rows)) * 100
		}
		cd.UniqueValues = len(seen)
		for _, lit := range []string{"", model.SentinelError, model.SentinelUnknown} {
			if _, ok := problematic[lit]; ok {
				cd.ProblematicLiterals = append(cd.ProblematicLiterals, lit)
			}
		}
		diag.Columns = append(diag.Columns, cd)
	}

	diag.CalcMismatchRows = s.countCalcMismatches(rows)

	s.logger.Info("Dataset scanned",
		zap.Int("rows", diag.Rows),
		zap.Int("calcMismatches", diag.CalcMismatchRows))
	return diag
}

// countCalcMismatches counts rows whose recorded total disagrees with
// quantity*price. Cells that cannot be coerced to numbers are treated as
// null; a null expected total matching a null recorded total is not a defect.
func (s *Scanner) countCalcMismatches(rows []model.Row) int {
	mismatches := 0
	for _, row := range rows {
		qty, qtyOK := model.AsFloat(row[model.ColQuantity])
		price, priceOK := model.AsFloat(row[model.ColPricePerUnit])
		total, totalOK := model.AsFloat(row[model.ColTotalSpent])

		expectedOK := qtyOK && priceOK
		if !expectedOK && !totalOK {
			continue
		}
		if expectedOK != totalOK {
			mismatches++
			continue
		}
		if !isClose(total, qty*price) {
			mismatches++
		}
	}
	return mismatches
}

// isClose compares two floats with relative tolerance against the expected
// value.
func isClose(a, b float64) bool {
	return math.Abs(a-b) <= relTolerance*math.Abs(b)
}
