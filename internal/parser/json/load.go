// Package json loads JSON documents into a dataset.Dataset.
//
// Accepted shapes:
//   - a root array of objects, one row per object;
//   - an envelope object holding the rows in an array-of-objects field (the
//     field named by the records_path option, else the first such field);
//   - a single object, which becomes one row.
//
// Objects following the root value (JSON lines) are appended as extra rows.
// Columns are the sorted union of keys; keys missing from a row are Null.
//
// Parser options:
//   - records_path (string): envelope field holding the rows
//   - header_map (map original key -> column name)
//   - array_join_separator (string, default ","): arrays of strings are
//     joined into one String value; other arrays and objects are kept as
//     compact JSON text
package json

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"datavitals/internal/config"
	"datavitals/pkg/dataset"
	"datavitals/pkg/records"
)

var ErrUnsupportedRoot = errors.New("json: root must be an object or an array of objects")

func Load(ctx context.Context, r io.Reader, opt config.Options) (*dataset.Dataset, error) {
	objs, err := decodeObjects(ctx, r, opt.String("records_path", ""))
	if err != nil {
		return nil, err
	}

	sep := opt.String("array_join_separator", ",")
	if sep == "" {
		sep = ","
	}
	return build(objs, opt.StringMap("header_map"), sep)
}

func decodeObjects(ctx context.Context, r io.Reader, recordsPath string) ([]map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var root json.RawMessage
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("json: decode root: %w", err)
	}

	var objs []map[string]any
	switch firstByte(root) {
	case '[':
		arr, err := decodeArrayOfObjects(root)
		if err != nil {
			return nil, err
		}
		objs = arr
	case '{':
		rows, err := unwrapEnvelope(root, recordsPath)
		if err != nil {
			return nil, err
		}
		objs = rows
	default:
		return nil, ErrUnsupportedRoot
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var obj map[string]any
		err := dec.Decode(&obj)
		if err == io.EOF {
			return objs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("json: trailing value %d: %w", len(objs)+1, err)
		}
		objs = append(objs, obj)
	}
}

func firstByte(raw json.RawMessage) byte {
	b := bytes.TrimLeft(raw, " \t\r\n")
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

func decodeArrayOfObjects(raw json.RawMessage) ([]map[string]any, error) {
	var objs []map[string]any
	if err := unmarshal(raw, &objs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedRoot, err)
	}
	for i, o := range objs {
		if o == nil {
			return nil, fmt.Errorf("%w: element %d is null", ErrUnsupportedRoot, i)
		}
	}
	return objs, nil
}

// unwrapEnvelope walks the object's fields in document order so "the first
// array-of-objects field" is well defined.
func unwrapEnvelope(raw json.RawMessage, recordsPath string) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if _, err := dec.Token(); err != nil { // '{'
		return nil, fmt.Errorf("json: %w", err)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		key, _ := tok.(string)

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("json: field %q: %w", key, err)
		}

		if recordsPath != "" {
			if key == recordsPath {
				return decodeArrayOfObjects(val)
			}
			continue
		}
		if firstByte(val) == '[' {
			if rows, err := decodeArrayOfObjects(val); err == nil && len(rows) > 0 {
				return rows, nil
			}
		}
	}

	if recordsPath != "" {
		return nil, fmt.Errorf("json: records_path %q not found", recordsPath)
	}

	var single map[string]any
	if err := unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return []map[string]any{single}, nil
}

func unmarshal(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func build(objs []map[string]any, hm map[string]string, sep string) (*dataset.Dataset, error) {
	recs := make([]records.Record, len(objs))
	for i, obj := range objs {
		rec := make(records.Record, len(obj))
		for k, raw := range obj {
			name := k
			if mapped, ok := hm[k]; ok && mapped != "" {
				name = mapped
			}
			v, err := scalar(raw, sep)
			if err != nil {
				return nil, fmt.Errorf("json: row %d field %q: %w", i+1, k, err)
			}
			rec[name] = v
		}
		recs[i] = rec
	}
	return dataset.FromRecords(recs)
}

// scalar flattens a decoded JSON value into a cell value.
func scalar(v any, sep string) (records.Value, error) {
	switch t := v.(type) {
	case []any:
		ss := make([]string, 0, len(t))
		for _, it := range t {
			if it == nil {
				continue
			}
			s, ok := it.(string)
			if !ok {
				return compact(v)
			}
			ss = append(ss, s)
		}
		return records.StringValue(strings.Join(ss, sep)), nil
	case map[string]any:
		return compact(v)
	default:
		return records.Of(v)
	}
}

func compact(v any) (records.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return records.Value{}, err
	}
	return records.StringValue(string(b)), nil
}
