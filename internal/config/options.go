package config

import (
	"unicode/utf8"

	"github.com/spf13/cast"
)

// Options is a free-form option bag attached to a parser block. Values come
// straight from the decoded JSON/YAML document, so accessors coerce loosely
// and fall back to the default when the key is absent or unusable.
type Options map[string]any

// Any returns the raw value for key, or nil.
func (o Options) Any(key string) any {
	if o == nil {
		return nil
	}
	return o[key]
}

func (o Options) Bool(key string, def bool) bool {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

func (o Options) Int(key string, def int) int {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return n
}

func (o Options) String(key, def string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return s
}

// Rune returns the single character stored under key ("comma": ";").
// Strings of any other length yield def. The escape "\t" is accepted for tab.
func (o Options) Rune(key string, def rune) rune {
	s := o.String(key, "")
	if s == `\t` {
		return '\t'
	}
	if s == "" || utf8.RuneCountInString(s) != 1 {
		return def
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// StringSlice accepts a list or a whitespace separated string.
func (o Options) StringSlice(key string) []string {
	v, ok := o[key]
	if !ok || v == nil {
		return nil
	}
	ss, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil
	}
	return ss
}

// StringMap returns key as map[string]string. Non-string values are
// stringified; an unusable value yields an empty map.
func (o Options) StringMap(key string) map[string]string {
	v, ok := o[key]
	if !ok || v == nil {
		return map[string]string{}
	}
	m, err := cast.ToStringMapStringE(v)
	if err != nil || m == nil {
		return map[string]string{}
	}
	return m
}
