package config

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"datavitals/pkg/sqlbuilder"
)

// Where is the query's where block. A mapping decodes into sqlbuilder.Fields
// in the order it was written; any other shape is kept as decoded so the
// statement builder rejects it with ErrInvalidWhere.
type Where struct {
	Value any
}

func (w *Where) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode {
		var v any
		if err := n.Decode(&v); err != nil {
			return err
		}
		w.Value = v
		return nil
	}

	fields := make(sqlbuilder.Fields, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var key string
		if err := n.Content[i].Decode(&key); err != nil {
			return fmt.Errorf("where key at line %d: %w", n.Content[i].Line, err)
		}
		var v any
		if err := n.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("where %q: %w", key, err)
		}
		fields = setField(fields, key, v)
	}
	w.Value = fields
	return nil
}

func (w *Where) UnmarshalJSON(b []byte) error {
	v, err := DecodeWhereJSON(b)
	if err != nil {
		return err
	}
	w.Value = v
	return nil
}

// DecodeWhereJSON decodes a JSON where block. Objects become
// sqlbuilder.Fields in document order with numbers kept as json.Number;
// other values decode as with encoding/json.
func DecodeWhereJSON(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		var v any
		raw := json.NewDecoder(bytes.NewReader(b))
		raw.UseNumber()
		if err := raw.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}

	fields := sqlbuilder.Fields{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("where: unexpected token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("where %q: %w", key, err)
		}
		fields = setField(fields, key, v)
	}
	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

// setField appends key or, for a repeated key, overwrites the value in its
// first position.
func setField(fields sqlbuilder.Fields, key string, v any) sqlbuilder.Fields {
	for i := range fields {
		if fields[i].Column == key {
			fields[i].Value = v
			return fields
		}
	}
	return append(fields, sqlbuilder.Field{Column: key, Value: v})
}
