package etl

import (
	"fmt"

	"datavitals/pkg/records"
)

// RunDecoded is Run for loosely typed input, such as the result of decoding
// JSON or YAML into an any.
//
// Accepted source shapes: []any of objects, []map[string]any and
// []records.Record. A nil source yields ErrNullSource, any other shape
// ErrInvalidSourceType. An empty list returns an empty result before records
// are inspected. An element that is not an object, or an object holding a
// nested list/object, yields ErrInvalidRecordType.
func RunDecoded(source any, opts Options) ([]records.Record, error) {
	recs, err := decodeSource(source)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return []records.Record{}, nil
	}
	return Run(recs, opts)
}

func decodeSource(source any) ([]records.Record, error) {
	switch src := source.(type) {
	case nil:
		return nil, ErrNullSource

	case []records.Record:
		if src == nil {
			return nil, ErrNullSource
		}
		return src, nil

	case []map[string]any:
		if src == nil {
			return nil, ErrNullSource
		}
		out := make([]records.Record, len(src))
		for i, m := range src {
			r, err := decodeRecord(i, m)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil

	case []any:
		if src == nil {
			return nil, ErrNullSource
		}
		out := make([]records.Record, len(src))
		for i, el := range src {
			var m map[string]any
			switch e := el.(type) {
			case map[string]any:
				m = e
			case records.Record:
				if e == nil {
					return nil, fmt.Errorf("%w: record %d is nil", ErrInvalidRecordType, i)
				}
				out[i] = e
				continue
			default:
				return nil, fmt.Errorf("%w: record %d is %T", ErrInvalidRecordType, i, el)
			}
			r, err := decodeRecord(i, m)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidSourceType, source)
	}
}

func decodeRecord(i int, m map[string]any) (records.Record, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: record %d is nil", ErrInvalidRecordType, i)
	}
	r, err := records.FromMap(m)
	if err != nil {
		return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidRecordType, i, err)
	}
	return r, nil
}
