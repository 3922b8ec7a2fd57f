// Package etl runs a list of records through a per-record transform and hands
// the result to a destination. The transform is either a caller-supplied
// function or a named preset resolved from a Registry.
//
// The pipeline is a 1:1 map: the output always has as many records as the
// input, in the same order.
package etl

import (
	"errors"
	"fmt"

	"datavitals/pkg/records"
)

// Default selector and destination used when Options leaves them empty.
const (
	DefaultTransform   = "none"
	DestinationMemory  = "memory"
	DefaultDestination = DestinationMemory
)

var (
	ErrNullSource             = errors.New("etl: source data cannot be nil")
	ErrInvalidSourceType      = errors.New("etl: source data must be a list of records")
	ErrInvalidRecordType      = errors.New("etl: each source record must be a mapping")
	ErrUnsupportedTransform   = errors.New("etl: unsupported transform type")
	ErrTransformationFailed   = errors.New("etl: transformation failed")
	ErrUnsupportedDestination = errors.New("etl: unsupported destination type")
)

// TransformError reports the record a transform failed on. It matches
// ErrTransformationFailed under errors.Is and unwraps to the cause.
type TransformError struct {
	Index  int
	Record records.Record
	Err    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("etl: transformation failed for record %d %v: %v", e.Index, e.Record.ToMap(), e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

func (e *TransformError) Is(target error) bool { return target == ErrTransformationFailed }

// Options selects the transform and destination of a run.
type Options struct {
	// Transform names a preset in Registry. Empty means "none".
	Transform string

	// Destination must be "memory". Empty means "memory".
	Destination string

	// Custom, when set, is used instead of the named transform.
	Custom TransformFunc

	// Registry resolves Transform. Nil means Builtins().
	Registry *Registry
}

// Run validates source, transforms every record in order and delivers the
// result.
//
// Validation order:
//  1. nil source → ErrNullSource
//  2. empty source → empty result, nothing else is checked
//  3. nil record → ErrInvalidRecordType
//  4. unknown transform (without Custom) → ErrUnsupportedTransform
//
// A failing transform aborts the run with a *TransformError and no partial
// result. The destination is checked after transformation.
func Run(source []records.Record, opts Options) ([]records.Record, error) {
	if source == nil {
		return nil, ErrNullSource
	}
	if len(source) == 0 {
		return []records.Record{}, nil
	}
	for i, r := range source {
		if r == nil {
			return nil, fmt.Errorf("%w: record %d is nil", ErrInvalidRecordType, i)
		}
	}

	fn, err := resolve(opts)
	if err != nil {
		return nil, err
	}

	out := make([]records.Record, 0, len(source))
	for i, r := range source {
		tr, err := apply(fn, r)
		if err != nil {
			return nil, &TransformError{Index: i, Record: r, Err: err}
		}
		out = append(out, tr)
	}

	return deliver(out, opts.Destination)
}

func resolve(opts Options) (TransformFunc, error) {
	if opts.Custom != nil {
		return opts.Custom, nil
	}

	name := opts.Transform
	if name == "" {
		name = DefaultTransform
	}
	reg := opts.Registry
	if reg == nil {
		reg = Builtins()
	}
	fn, ok := reg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransform, name)
	}
	return fn, nil
}

// apply runs fn on r and turns a panic inside fn into an error.
func apply(fn TransformFunc, r records.Record) (out records.Record, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(r)
}

func deliver(out []records.Record, destination string) ([]records.Record, error) {
	if destination == "" {
		destination = DefaultDestination
	}
	if destination != DestinationMemory {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDestination, destination)
	}
	return out, nil
}
