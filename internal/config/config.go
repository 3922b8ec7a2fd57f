// Package config defines the pipeline document consumed by `datavitals run`
// and the validation applied before anything is loaded.
//
// A pipeline reads one file, optionally cleans it, optionally runs the record
// transformer over the cleaned rows and optionally renders a SELECT statement.
// Documents are JSON or YAML; both decode into the same structs.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Pipeline struct {
	Job     string        `json:"job" yaml:"job"`
	Source  Source        `json:"source" yaml:"source"`
	Parser  Parser        `json:"parser" yaml:"parser"`
	Clean   *Clean        `json:"clean,omitempty" yaml:"clean,omitempty"`
	ETL     *ETL          `json:"etl,omitempty" yaml:"etl,omitempty"`
	Query   *Query        `json:"query,omitempty" yaml:"query,omitempty"`
	Output  Output        `json:"output" yaml:"output"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

type Source struct {
	// Kind is "file" (the default), "url" or "stdin".
	Kind string      `json:"kind" yaml:"kind"`
	File *FileSource `json:"file,omitempty" yaml:"file,omitempty"`
	URL  string      `json:"url,omitempty" yaml:"url,omitempty"`
}

type FileSource struct {
	Path string `json:"path" yaml:"path"`
}

type Parser struct {
	// Kind: "csv" | "json" | "html". Empty picks from the file extension.
	Kind    string  `json:"kind" yaml:"kind"`
	Options Options `json:"options" yaml:"options"`
}

// Clean mirrors cleaning.Options. Nil flags keep the library defaults (on).
type Clean struct {
	DropNulls        *bool          `json:"drop_nulls,omitempty" yaml:"drop_nulls,omitempty"`
	DropDuplicates   *bool          `json:"drop_duplicates,omitempty" yaml:"drop_duplicates,omitempty"`
	TrimStrings      *bool          `json:"trim_strings,omitempty" yaml:"trim_strings,omitempty"`
	ConvertNumeric   *bool          `json:"convert_numeric,omitempty" yaml:"convert_numeric,omitempty"`
	NormalizeUnicode bool           `json:"normalize_unicode,omitempty" yaml:"normalize_unicode,omitempty"`
	Fill             map[string]any `json:"fill,omitempty" yaml:"fill,omitempty"`
}

type ETL struct {
	Transform   string `json:"transform" yaml:"transform"`
	Destination string `json:"destination" yaml:"destination"`
}

// Query is kept loosely typed so the statement builder can report the same
// errors for a hand-written document as for programmatic callers.
type Query struct {
	Table   any   `json:"table" yaml:"table"`
	Columns any   `json:"columns,omitempty" yaml:"columns,omitempty"`
	Where   Where `json:"where,omitempty" yaml:"where,omitempty"`
	Limit   any   `json:"limit,omitempty" yaml:"limit,omitempty"`
}

type Output struct {
	// Format: "json" (default) | "csv".
	Format string `json:"format" yaml:"format"`
	// Path empty or "-" writes to stdout.
	Path string `json:"path" yaml:"path"`
}

// MetricsConfig is the lowest precedence source for the metrics backend:
// command-line flags and environment variables win over it.
type MetricsConfig struct {
	Backend        string   `json:"backend" yaml:"backend"`
	PushgatewayURL string   `json:"pushgateway_url" yaml:"pushgateway_url"`
	Tags           []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Load reads a pipeline document. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))
	return Decode(f, ext == ".yaml" || ext == ".yml")
}

// Decode parses a pipeline document from r. JSON numbers are kept as
// json.Number so integer options and limits survive without float rounding.
func Decode(r io.Reader, isYAML bool) (Pipeline, error) {
	var p Pipeline

	if isYAML {
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(&p); err != nil && err != io.EOF {
			return Pipeline{}, fmt.Errorf("decode yaml config: %w", err)
		}
		return p, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode json config: %w", err)
	}
	return p, nil
}

// JobName returns p.Job or a stable default.
func (p Pipeline) JobName() string {
	if p.Job == "" {
		return "datavitals"
	}
	return p.Job
}

// ParserKind returns the configured parser kind, falling back to the source
// file or URL extension.
func (p Pipeline) ParserKind() string {
	if k := strings.ToLower(strings.TrimSpace(p.Parser.Kind)); k != "" {
		return k
	}
	switch {
	case p.Source.File != nil:
		return KindFromName(p.Source.File.Path)
	case p.Source.URL != "":
		return KindFromName(p.Source.URL)
	}
	return ""
}

// KindFromName guesses a parser kind from a path or URL extension. Unknown
// extensions yield "".
func KindFromName(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return "csv"
	case ".json", ".jsonl":
		return "json"
	case ".html", ".htm":
		return "html"
	}
	return ""
}
