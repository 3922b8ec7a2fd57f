package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"

	"datavitals/pkg/etl"
	"datavitals/pkg/records"
	"datavitals/pkg/sqlbuilder"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. Path is a dotted location in the document.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline checks p without touching the filesystem. Issues come back
// in document order.
func ValidatePipeline(p Pipeline) []Issue {
	var out []Issue
	add := func(sev Severity, path, format string, a ...any) {
		out = append(out, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	if strings.TrimSpace(p.Job) == "" {
		add(SeverityWarning, "job", "empty job name; metrics use %q", p.JobName())
	}

	switch p.Source.Kind {
	case "", "file":
		if p.Source.File == nil || strings.TrimSpace(p.Source.File.Path) == "" {
			add(SeverityError, "source.file.path", "required for file sources")
		}
	case "url":
		if u, err := url.Parse(p.Source.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			add(SeverityError, "source.url", "must be an http or https URL")
		}
	case "stdin":
	default:
		add(SeverityError, "source.kind", "unsupported source kind %q (want file, url or stdin)", p.Source.Kind)
	}

	switch kind := p.ParserKind(); kind {
	case "csv":
		validateCSVOptions(p.Parser.Options, add)
	case "json", "html":
	case "":
		add(SeverityError, "parser.kind", "required when the source has no recognised extension")
	default:
		add(SeverityError, "parser.kind", "unsupported parser %q (want csv, json or html)", kind)
	}

	if c := p.Clean; c != nil {
		cols := make([]string, 0, len(c.Fill))
		for col := range c.Fill {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		for _, col := range cols {
			if col == "" {
				add(SeverityError, "clean.fill", "empty column name")
				continue
			}
			if _, err := records.Of(c.Fill[col]); err != nil {
				add(SeverityError, "clean.fill."+col, "fill value must be a scalar: %v", err)
			}
		}
	}

	if e := p.ETL; e != nil {
		if e.Transform != "" {
			if _, ok := etl.Builtins().Lookup(e.Transform); !ok {
				add(SeverityError, "etl.transform", "unknown transform %q (known: %s)",
					e.Transform, strings.Join(etl.Builtins().Names(), ", "))
			}
		}
		if e.Destination != "" && e.Destination != etl.DestinationMemory {
			add(SeverityError, "etl.destination", "unsupported destination %q (only %q)", e.Destination, etl.DestinationMemory)
		}
	}

	if q := p.Query; q != nil {
		if _, err := sqlbuilder.BuildSelectDecoded(q.Table, q.Columns, q.Where.Value, q.Limit); err != nil {
			add(SeverityError, "query", "%v", err)
		}
	}

	switch p.Output.Format {
	case "", "json", "jsonl", "csv":
	default:
		add(SeverityError, "output.format", "unsupported format %q (want json, jsonl or csv)", p.Output.Format)
	}

	switch p.Metrics.Backend {
	case "", "none", "pushgateway", "datadog":
	default:
		add(SeverityWarning, "metrics.backend", "unknown backend %q; metrics will be disabled", p.Metrics.Backend)
	}

	if p.Clean == nil && p.ETL == nil && p.Query == nil {
		add(SeverityWarning, "", "no processing steps configured; input is only re-rendered")
	}

	return out
}

func validateCSVOptions(o Options, add func(Severity, string, string, ...any)) {
	if s, ok := o["comma"].(string); ok && s != `\t` && utf8.RuneCountInString(s) != 1 {
		add(SeverityError, "parser.options.comma", "must be a single character, got %q", s)
	}
	if name := o.String("encoding", ""); name != "" {
		if _, err := htmlindex.Get(name); err != nil {
			add(SeverityError, "parser.options.encoding", "unknown encoding %q", name)
		}
	}
	if n := o.Int("fields_per_record", 0); n < 0 {
		add(SeverityError, "parser.options.fields_per_record", "must be >= 0")
	}
}
