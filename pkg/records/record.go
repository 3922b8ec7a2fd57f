package records

import (
	"fmt"
	"sort"
)

// Record maps a field name to a primitive value. Records in one sequence do
// not need to share a field set.
type Record map[string]Value

// FromMap converts a loosely typed map (for example one produced by
// encoding/json) into a Record.
func FromMap(m map[string]any) (Record, error) {
	if m == nil {
		return nil, nil
	}
	out := make(Record, len(m))
	for k, raw := range m {
		v, err := Of(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// ToMap converts r into plain Go values.
func (r Record) ToMap() map[string]any {
	if r == nil {
		return nil
	}
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Any()
	}
	return out
}

// Clone returns a shallow copy; Values are immutable so this is a full copy.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys returns the field names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether r and o hold the same fields with equal values.
func (r Record) Equal(o Record) bool {
	if len(r) != len(o) {
		return false
	}
	for k, v := range r {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
