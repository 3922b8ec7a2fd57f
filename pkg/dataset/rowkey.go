package dataset

import (
	"math"
	"strconv"
	"strings"

	"datavitals/pkg/records"
)

// keySep separates cells in a row key (ASCII Unit Separator).
const keySep = '\x1f'

// RowKey returns a canonical encoding of row i such that two rows have the
// same key exactly when they are cell-wise Equal.
//
// Canonicalization rules:
//   - Null is encoded as a single NUL byte so missing differs from "".
//   - Every other cell carries a one-byte kind tag so String "1" differs
//     from Int 1.
//   - Int and integral Float share the numeric encoding (Int(2) == Float(2)).
func (d *Dataset) RowKey(i int) string {
	var b strings.Builder
	b.Grow(len(d.Columns) * 12)

	for c := range d.Columns {
		if c > 0 {
			b.WriteByte(keySep)
		}
		appendCanonicalValue(&b, d.Columns[c].Values[i])
	}
	return b.String()
}

func appendCanonicalValue(b *strings.Builder, v records.Value) {
	switch v.Kind() {
	case records.Null:
		b.WriteByte('\x00')

	case records.String:
		s, _ := v.Str()
		b.WriteByte('s')
		// Escape the separator so a cell cannot forge a column boundary.
		if strings.IndexByte(s, keySep) >= 0 || strings.IndexByte(s, '\\') >= 0 {
			s = strings.NewReplacer(`\`, `\\`, string(keySep), `\u`).Replace(s)
		}
		b.WriteString(s)

	case records.Bool:
		bv, _ := v.Bool()
		if bv {
			b.WriteString("btrue")
		} else {
			b.WriteString("bfalse")
		}

	case records.Int:
		n, _ := v.Int()
		b.WriteByte('n')
		b.WriteString(strconv.FormatInt(n, 10))

	case records.Float:
		f, _ := v.Float()
		b.WriteByte('n')
		switch {
		case math.IsNaN(f):
			b.WriteString("NaN")
		case f == math.Trunc(f) && math.Abs(f) < 1<<63:
			b.WriteString(strconv.FormatInt(int64(f), 10))
		default:
			b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		}
	}
}
