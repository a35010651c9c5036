// pkg/model/coerce.go
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayouts are the accepted transaction-date formats, tried in order.
var DateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
}

// AsString converts a cell to its string representation. Nulls become the
// empty string.
func AsString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// AsFloat attempts to interpret a cell as a number. Unparseable cells and
// nulls report false rather than an error; callers degrade them to null.
func AsFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsTime attempts to interpret a cell as a date using DateLayouts.
func AsTime(v interface{}) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return val, true
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return time.Time{}, false
		}
		for _, layout := range DateLayouts {
			if t, err := time.Parse(layout, cleaned); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
