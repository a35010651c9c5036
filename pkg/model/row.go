// pkg/model/row.go
package model

// Column names of the cafe sales dataset. The CSV header must carry exactly
// these names; column order in the file is irrelevant.
const (
	ColTransactionID   = "Transaction ID"
	ColItem            = "Item"
	ColQuantity        = "Quantity"
	ColPricePerUnit    = "Price Per Unit"
	ColTotalSpent      = "Total Spent"
	ColPaymentMethod   = "Payment Method"
	ColLocation        = "Location"
	ColTransactionDate = "Transaction Date"
)

// Columns lists the dataset columns in canonical output order.
var Columns = []string{
	ColTransactionID,
	ColItem,
	ColQuantity,
	ColPricePerUnit,
	ColTotalSpent,
	ColPaymentMethod,
	ColLocation,
	ColTransactionDate,
}

// Sentinel tokens that the raw data uses to mean "value absent".
const (
	SentinelError   = "ERROR"
	SentinelUnknown = "UNKNOWN"
)

// Row is a single transaction record. Cells are untyped: a freshly loaded row
// holds raw strings, a nil cell is a true null, and repair stages replace
// cells with typed values (float64, time.Time) as they are finalized.
type Row map[string]interface{}

// Clone returns a shallow copy of the row. Stages copy before mutating so
// each stage stays a pure function of its input snapshot.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IsSentinel reports whether a raw cell value stands for a missing value:
// a true null, the empty string, or one of the ERROR/UNKNOWN tokens.
func IsSentinel(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	return s == "" || s == SentinelError || s == SentinelUnknown
}

// SentinelKind classifies a sentinel cell for per-kind counting. The second
// return is false when the value is not a sentinel string (true nulls are
// already null and are not counted as normalizations).
func SentinelKind(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	switch s {
	case "":
		return "empty", true
	case SentinelError:
		return "error", true
	case SentinelUnknown:
		return "unknown", true
	}
	return "", false
}
