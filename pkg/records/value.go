// Package records defines the value model shared by the cleaning, etl and
// sqlbuilder packages: a closed set of primitive cell kinds and the Record
// map built on top of it.
package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	Null Kind = iota
	String
	Int
	Float
	Bool
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ErrUnsupportedType is returned by Of for Go values outside the primitive set.
var ErrUnsupportedType = errors.New("records: unsupported value type")

// Value is an immutable tagged variant holding one primitive cell.
//
// The zero Value is Null, which is how a missing cell or field is modelled.
// Missing is distinct from zero and from the empty string.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

// NullValue returns the missing marker.
func NullValue() Value { return Value{} }

// StringValue wraps s.
func StringValue(s string) Value { return Value{kind: String, s: s} }

// IntValue wraps i.
func IntValue(i int64) Value { return Value{kind: Int, i: i} }

// FloatValue wraps f.
func FloatValue(f float64) Value { return Value{kind: Float, f: f} }

// BoolValue wraps b.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// Of converts a Go primitive into a Value.
//
// Accepted: nil, Value, string, []byte, every int/uint width, float32/64,
// bool and json.Number. Anything else yields ErrUnsupportedType.
func Of(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case string:
		return StringValue(t), nil
	case []byte:
		return StringValue(string(t)), nil
	case bool:
		return BoolValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int8:
		return IntValue(int64(t)), nil
	case int16:
		return IntValue(int64(t)), nil
	case int32:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case uint:
		return IntValue(int64(t)), nil
	case uint8:
		return IntValue(int64(t)), nil
	case uint16:
		return IntValue(int64(t)), nil
	case uint32:
		return IntValue(int64(t)), nil
	case uint64:
		if t > math.MaxInt64 {
			return FloatValue(float64(t)), nil
		}
		return IntValue(int64(t)), nil
	case float32:
		return FloatValue(float64(t)), nil
	case float64:
		return FloatValue(t), nil
	case json.Number:
		return fromNumberLiteral(string(t))
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}

// MustOf is Of for literals known to be valid; it panics otherwise.
func MustOf(v any) Value {
	out, err := Of(v)
	if err != nil {
		panic(err)
	}
	return out
}

func fromNumberLiteral(s string) (Value, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("records: invalid number %q: %w", s, err)
	}
	return FloatValue(f), nil
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == Null }

// IsNumeric reports whether v is an Int or a Float.
func (v Value) IsNumeric() bool { return v.kind == Int || v.kind == Float }

// Str returns the string payload; ok is false for other kinds.
func (v Value) Str() (string, bool) { return v.s, v.kind == String }

// Int returns the integer payload; ok is false for other kinds.
func (v Value) Int() (int64, bool) { return v.i, v.kind == Int }

// Float returns the numeric payload widened to float64; ok is false for
// non-numeric kinds.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case Float:
		return v.f, true
	case Int:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// Bool returns the boolean payload; ok is false for other kinds.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == Bool }

// Any converts v back into a plain Go value (nil, string, int64, float64, bool).
func (v Value) Any() any {
	switch v.kind {
	case String:
		return v.s
	case Int:
		return v.i
	case Float:
		return v.f
	case Bool:
		return v.b
	default:
		return nil
	}
}

// Equal reports whether v and o hold the same value. Two Nulls are equal.
// An Int equals a Float only when the float is integral, strictly inside the
// int64 range and converts to exactly that integer, so Int(2^53+1) differs
// from Float(2^53).
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		switch {
		case v.kind == Int && o.kind == Int:
			return v.i == o.i
		case v.kind == Int:
			return intEqualsFloat(v.i, o.f)
		case o.kind == Int:
			return intEqualsFloat(o.i, v.f)
		}
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case String:
		return v.s == o.s
	case Bool:
		return v.b == o.b
	default:
		return true
	}
}

func intEqualsFloat(n int64, f float64) bool {
	if f != math.Trunc(f) || math.Abs(f) >= 1<<63 {
		return false
	}
	return int64(f) == n
}

// String renders the default textual form of v: strings verbatim, integers
// in base 10, booleans as true/false, Null as the empty string. Floats keep a
// decimal point ("2.0") and switch to exponent form outside [1e-4, 1e16).
func (v Value) String() string {
	switch v.kind {
	case String:
		return v.s
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return formatFloat(v.f)
	case Bool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	var s string
	if abs == 0 || (abs >= 1e-4 && abs < 1e16) {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	} else {
		s = strconv.FormatFloat(f, 'g', -1, 64)
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// GoString is used by %#v and in error messages.
func (v Value) GoString() string {
	switch v.kind {
	case String:
		return strconv.Quote(v.s)
	case Null:
		return "null"
	default:
		return v.String()
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Float:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.f)
	default:
		return json.Marshal(v.Any())
	}
}

// UnmarshalJSON implements json.Unmarshaler. Integral number literals decode
// as Int; arrays and objects are rejected.
func (v *Value) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return errors.New("records: empty JSON value")
	}
	switch trimmed[0] {
	case '{':
		return fmt.Errorf("%w: JSON object", ErrUnsupportedType)
	case '[':
		return fmt.Errorf("%w: JSON array", ErrUnsupportedType)
	case 'n':
		*v = Value{}
		return nil
	case 't', 'f':
		var bv bool
		if err := json.Unmarshal(b, &bv); err != nil {
			return err
		}
		*v = BoolValue(bv)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	default:
		out, err := fromNumberLiteral(trimmed)
		if err != nil {
			return err
		}
		*v = out
		return nil
	}
}
