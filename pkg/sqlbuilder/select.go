// Package sqlbuilder assembles SQL SELECT statements as strings.
//
// It never executes anything and has no dialect support. Filter values are
// inlined as literals, not bound parameters.
//
// WARNING: string values are wrapped in single quotes verbatim; embedded
// quote characters are NOT escaped. Do not pass untrusted input to the
// builder and then execute the result against a real database: that is a
// SQL injection hazard. Table and column names are inserted verbatim too.
package sqlbuilder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"datavitals/pkg/records"
)

var (
	ErrInvalidTable   = errors.New("sqlbuilder: table name must be a non-empty string")
	ErrInvalidColumns = errors.New("sqlbuilder: columns must be a list of strings")
	ErrInvalidWhere   = errors.New("sqlbuilder: WHERE clause must be a mapping")
	ErrInvalidLimit   = errors.New("sqlbuilder: LIMIT must be a positive integer")
)

// Condition is one equality filter: Column = Value.
type Condition struct {
	Column string
	Value  records.Value
}

// Eq builds a Condition from a Go primitive (see records.Of).
func Eq(column string, v any) (Condition, error) {
	val, err := records.Of(v)
	if err != nil {
		return Condition{}, fmt.Errorf("%w: column %q: %w", ErrInvalidWhere, column, err)
	}
	return Condition{Column: column, Value: val}, nil
}

// Where is an ordered list of conditions joined with AND. Order is preserved
// in the output.
type Where []Condition

// Query describes one SELECT statement.
type Query struct {
	Table   string
	Columns []string // empty selects *
	Where   Where
	Limit   int // 0 means no LIMIT
}

// BuildSelect renders q as
//
//	SELECT <cols|*> FROM <table> [WHERE c1 = v1 AND ...] [LIMIT n]
//
// Clauses without content are omitted and the rest are joined by single
// spaces.
//
// Values: strings are single-quoted verbatim (no escaping, see the package
// doc), booleans render as TRUE/FALSE, Null as NULL and numbers in their
// default string form.
func BuildSelect(q Query) (string, error) {
	if q.Table == "" {
		return "", ErrInvalidTable
	}
	for i, c := range q.Columns {
		if c == "" {
			return "", fmt.Errorf("%w: column %d is empty", ErrInvalidColumns, i)
		}
	}
	for i, c := range q.Where {
		if c.Column == "" {
			return "", fmt.Errorf("%w: condition %d has no column", ErrInvalidWhere, i)
		}
	}
	if q.Limit < 0 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidLimit, q.Limit)
	}

	parts := make([]string, 0, 4)

	if len(q.Columns) == 0 {
		parts = append(parts, "SELECT *")
	} else {
		parts = append(parts, "SELECT "+strings.Join(q.Columns, ", "))
	}

	parts = append(parts, "FROM "+q.Table)

	if len(q.Where) > 0 {
		conds := make([]string, len(q.Where))
		for i, c := range q.Where {
			conds[i] = c.Column + " = " + FormatValue(c.Value)
		}
		parts = append(parts, "WHERE "+strings.Join(conds, " AND "))
	}

	if q.Limit > 0 {
		parts = append(parts, "LIMIT "+strconv.Itoa(q.Limit))
	}

	return strings.Join(parts, " "), nil
}

// FormatValue renders v as an SQL literal. Strings are quoted without
// escaping.
func FormatValue(v records.Value) string {
	switch v.Kind() {
	case records.String:
		s, _ := v.Str()
		return "'" + s + "'"
	case records.Bool:
		if b, _ := v.Bool(); b {
			return "TRUE"
		}
		return "FALSE"
	case records.Null:
		return "NULL"
	default:
		return v.String()
	}
}
