package cleaning

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"datavitals/pkg/dataset"
	"datavitals/pkg/records"
)

// coerceColumn tries to reinterpret every cell of col as a number.
//
// It returns the numeric column and true on success. On failure it returns
// the original column and false; the caller keeps the column as is.
//
// Per cell:
//   - Null stays Null, and so does an empty string.
//   - Int and Float pass through.
//   - String must parse as a base-10 integer or a float (edge whitespace
//     allowed).
//   - Bool fails the column.
//
// If every number in the column is integral-literal the result is an Int
// column; otherwise all numbers are widened to Float.
func coerceColumn(col dataset.Column) (dataset.Column, bool) {
	vals := make([]records.Value, len(col.Values))
	allInt := true

	for i, v := range col.Values {
		switch v.Kind() {
		case records.Null:
			vals[i] = v
		case records.Int:
			vals[i] = v
		case records.Float:
			vals[i] = v
			allInt = false
		case records.String:
			s, _ := v.Str()
			n, ok := parseNumber(s)
			if !ok {
				return col, false
			}
			if n.Kind() == records.Float {
				allInt = false
			}
			vals[i] = n
		default:
			return col, false
		}
	}

	if !allInt {
		for i, v := range vals {
			if n, ok := v.Int(); ok {
				vals[i] = records.FloatValue(float64(n))
			}
		}
	}
	return dataset.Column{Name: col.Name, Values: vals}, true
}

// parseNumber parses s as an integer, then as a float. The empty string
// yields Null.
func parseNumber(s string) (records.Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return records.NullValue(), true
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return records.IntValue(n), true
	}
	// Guard hex/underscore forms that ParseFloat would accept but a data
	// column should not.
	if strings.ContainsAny(s, "xX_pP") {
		return records.Value{}, false
	}
	f, err := cast.ToFloat64E(s)
	if err != nil {
		return records.Value{}, false
	}
	return records.FloatValue(f), true
}

func hasStringCell(col dataset.Column) bool {
	for _, v := range col.Values {
		if v.Kind() == records.String {
			return true
		}
	}
	return false
}
