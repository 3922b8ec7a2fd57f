package sqlbuilder

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"datavitals/pkg/records"
)

// BuildSelectDecoded is BuildSelect for loosely typed arguments, such as
// values read from a JSON or YAML document.
//
//   - table must be a non-empty string (ErrInvalidTable).
//   - columns may be nil, []string or []any of strings (ErrInvalidColumns).
//   - where may be nil, Where, []Condition, Fields or map[string]any
//     (ErrInvalidWhere). Fields keep their order. Go maps carry none, so
//     map conditions are emitted in sorted column order.
//   - limit may be nil or an integer > 0, given as any Go integer, an
//     integral float or a json.Number (ErrInvalidLimit). An explicit 0 is
//     invalid.
func BuildSelectDecoded(table, columns, where, limit any) (string, error) {
	var q Query

	t, ok := table.(string)
	if !ok || t == "" {
		return "", ErrInvalidTable
	}
	q.Table = t

	cols, err := decodeColumns(columns)
	if err != nil {
		return "", err
	}
	q.Columns = cols

	w, err := decodeWhere(where)
	if err != nil {
		return "", err
	}
	q.Where = w

	n, err := decodeLimit(limit)
	if err != nil {
		return "", err
	}
	q.Limit = n

	return BuildSelect(q)
}

// Field is one column/value pair of a decoded mapping.
type Field struct {
	Column string
	Value  any
}

// Fields is a decoded mapping in document order.
type Fields []Field

func decodeColumns(v any) ([]string, error) {
	switch c := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return c, nil
	case []any:
		out := make([]string, len(c))
		for i, el := range c {
			s, ok := el.(string)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T", ErrInvalidColumns, i, el)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidColumns, v)
	}
}

func decodeWhere(v any) (Where, error) {
	switch w := v.(type) {
	case nil:
		return nil, nil
	case Where:
		return w, nil
	case []Condition:
		return Where(w), nil
	case Fields:
		out := make(Where, 0, len(w))
		for _, f := range w {
			c, err := Eq(f.Column, f.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(w))
		for k := range w {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make(Where, 0, len(keys))
		for _, k := range keys {
			c, err := Eq(k, w[k])
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidWhere, v)
	}
}

func decodeLimit(v any) (int, error) {
	if v == nil {
		return 0, nil
	}

	var n int64
	switch t := v.(type) {
	case int:
		n = int64(t)
	case int32:
		n = int64(t)
	case int64:
		n = t
	case uint:
		n = int64(t)
	case uint32:
		n = int64(t)
	case uint64:
		if t > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d out of range", ErrInvalidLimit, t)
		}
		n = int64(t)
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("%w: got %v", ErrInvalidLimit, t)
		}
		n = int64(t)
	case json.Number:
		i, err := strconv.ParseInt(string(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: got %s", ErrInvalidLimit, t)
		}
		n = i
	case records.Value:
		i, ok := t.Int()
		if !ok {
			return 0, fmt.Errorf("%w: got %s value", ErrInvalidLimit, t.Kind())
		}
		n = i
	default:
		return 0, fmt.Errorf("%w: got %T", ErrInvalidLimit, v)
	}

	if n <= 0 || int64(int(n)) != n {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidLimit, n)
	}
	return int(n), nil
}
