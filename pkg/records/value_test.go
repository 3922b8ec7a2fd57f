package records

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestOf_Primitives(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		kind Kind
	}{
		{name: "nil", in: nil, kind: Null},
		{name: "string", in: "x", kind: String},
		{name: "bytes", in: []byte("x"), kind: String},
		{name: "int", in: 3, kind: Int},
		{name: "int32", in: int32(3), kind: Int},
		{name: "uint16", in: uint16(3), kind: Int},
		{name: "float32", in: float32(1.5), kind: Float},
		{name: "float64", in: 1.5, kind: Float},
		{name: "bool", in: true, kind: Bool},
		{name: "json_int", in: json.Number("42"), kind: Int},
		{name: "json_float", in: json.Number("4.2"), kind: Float},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Of(tt.in)
			if err != nil {
				t.Fatalf("Of(%v) err=%v", tt.in, err)
			}
			if v.Kind() != tt.kind {
				t.Fatalf("Of(%v) kind=%s want=%s", tt.in, v.Kind(), tt.kind)
			}
		})
	}
}

func TestOf_RejectsComposites(t *testing.T) {
	t.Parallel()

	for _, in := range []any{[]int{1}, map[string]any{}, struct{}{}} {
		if _, err := Of(in); !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("Of(%T) err=%v want ErrUnsupportedType", in, err)
		}
	}
}

func TestValue_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Value
		want string
	}{
		{IntValue(-7), "-7"},
		{FloatValue(2), "2.0"},
		{FloatValue(1.5), "1.5"},
		{FloatValue(0.1), "0.1"},
		{FloatValue(1e16), "1e+16"},
		{FloatValue(1e-5), "1e-05"},
		{FloatValue(123456789.25), "123456789.25"},
		{FloatValue(math.NaN()), "nan"},
		{FloatValue(math.Inf(-1)), "-inf"},
		{BoolValue(true), "true"},
		{StringValue("a b"), "a b"},
		{NullValue(), ""},
	}

	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Fatalf("String() got=%q want=%q", got, tt.want)
		}
	}
}

func TestValue_Equal(t *testing.T) {
	t.Parallel()

	if !IntValue(2).Equal(FloatValue(2)) {
		t.Fatalf("expected Int(2) == Float(2)")
	}
	if !NullValue().Equal(NullValue()) {
		t.Fatalf("expected Null == Null")
	}
	if StringValue("").Equal(NullValue()) {
		t.Fatalf("expected empty string != Null")
	}
	if StringValue("1").Equal(IntValue(1)) {
		t.Fatalf("expected String(1) != Int(1)")
	}
	if BoolValue(true).Equal(IntValue(1)) {
		t.Fatalf("expected Bool(true) != Int(1)")
	}
	if IntValue(2).Equal(FloatValue(2.5)) {
		t.Fatalf("expected Int(2) != Float(2.5)")
	}
	if IntValue(9007199254740993).Equal(FloatValue(9007199254740992)) {
		t.Fatalf("expected Int(2^53+1) != Float(2^53)")
	}
	if FloatValue(9007199254740992).Equal(IntValue(9007199254740993)) {
		t.Fatalf("expected Float(2^53) != Int(2^53+1)")
	}
	if !FloatValue(9007199254740992).Equal(IntValue(9007199254740992)) {
		t.Fatalf("expected Float(2^53) == Int(2^53)")
	}
	if IntValue(math.MinInt64).Equal(FloatValue(math.MinInt64)) {
		t.Fatalf("expected Int(MinInt64) != Float(-2^63)")
	}
	if !FloatValue(math.NaN()).Equal(FloatValue(math.NaN())) {
		t.Fatalf("expected NaN == NaN")
	}
}

func TestValue_JSON(t *testing.T) {
	t.Parallel()

	var r Record
	if err := json.Unmarshal([]byte(`{"a":1,"b":1.5,"c":"x","d":true,"e":null}`), &r); err != nil {
		t.Fatalf("unmarshal err=%v", err)
	}
	if r["a"].Kind() != Int || r["b"].Kind() != Float || r["c"].Kind() != String ||
		r["d"].Kind() != Bool || r["e"].Kind() != Null {
		t.Fatalf("unexpected kinds: %#v", r)
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal err=%v", err)
	}
	if got, want := string(b), `{"a":1,"b":1.5,"c":"x","d":true,"e":null}`; got != want {
		t.Fatalf("got=%s want=%s", got, want)
	}

	var bad Record
	if err := json.Unmarshal([]byte(`{"a":[1]}`), &bad); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType for nested array, got %v", err)
	}
}

func TestRecord_FromMapAndClone(t *testing.T) {
	t.Parallel()

	r, err := FromMap(map[string]any{"id": 1, "name": "Bob"})
	if err != nil {
		t.Fatalf("FromMap err=%v", err)
	}
	c := r.Clone()
	c["id"] = IntValue(9)
	if n, _ := r["id"].Int(); n != 1 {
		t.Fatalf("clone mutated source: %v", r["id"])
	}
	if got := r.Keys(); len(got) != 2 || got[0] != "id" || got[1] != "name" {
		t.Fatalf("Keys()=%v", got)
	}
	if _, err := FromMap(map[string]any{"x": []string{"a"}}); err == nil {
		t.Fatalf("expected error for composite field")
	}
}
