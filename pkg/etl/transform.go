package etl

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"datavitals/pkg/records"
)

// ErrIntegerOverflow reports an integer result outside the int64 range.
var ErrIntegerOverflow = errors.New("etl: integer overflow")

// TransformFunc maps one record to one record. It may return a new record or
// mutate and return the one it was given.
type TransformFunc func(records.Record) (records.Record, error)

// DoubleNumeric returns a new record where every Int and Float field is
// doubled. Other fields are copied unchanged. An Int whose double does not
// fit in int64 fails the record with ErrIntegerOverflow.
func DoubleNumeric(r records.Record) (records.Record, error) {
	out := make(records.Record, len(r))
	for k, v := range r {
		switch v.Kind() {
		case records.Int:
			n, _ := v.Int()
			if n > math.MaxInt64/2 || n < math.MinInt64/2 {
				return nil, fmt.Errorf("%w: field %q: %d * 2", ErrIntegerOverflow, k, n)
			}
			out[k] = records.IntValue(n * 2)
		case records.Float:
			f, _ := v.Float()
			out[k] = records.FloatValue(f * 2)
		default:
			out[k] = v
		}
	}
	return out, nil
}

// Identity returns r unchanged.
func Identity(r records.Record) (records.Record, error) {
	return r, nil
}

// Chain composes fns left to right. Nil entries are skipped; an empty chain
// behaves like Identity.
func Chain(fns ...TransformFunc) TransformFunc {
	return func(r records.Record) (records.Record, error) {
		out := r
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			var err error
			out, err = fn(out)
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	}
}

// Registry is a lookup table of named transforms.
type Registry struct {
	mu  sync.RWMutex
	fns map[string]TransformFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{fns: map[string]TransformFunc{}}
}

// Builtins returns a fresh registry holding the preset transforms:
//
//	"double" → DoubleNumeric
//	"none"   → Identity
func Builtins() *Registry {
	r := NewRegistry()
	r.Register("double", DoubleNumeric)
	r.Register("none", Identity)
	return r
}

// Register adds fn under name.
//
// Panics:
//   - If name is empty.
//   - If fn is nil.
//   - If name is already registered.
func (r *Registry) Register(name string, fn TransformFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		panic("etl: Register called with empty name")
	}
	if fn == nil {
		panic("etl: Register called with nil transform")
	}
	if _, exists := r.fns[name]; exists {
		panic(fmt.Sprintf("etl: transform already registered for name=%q", name))
	}
	r.fns[name] = fn
}

// Lookup returns the transform registered under name.
func (r *Registry) Lookup(name string) (TransformFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.fns[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.fns))
	for k := range r.fns {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
