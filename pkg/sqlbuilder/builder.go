package sqlbuilder

// Builder accumulates a Query through chained calls. The first error is
// kept and returned by Build.
//
//	stmt, err := sqlbuilder.Select("id", "name").
//		From("employees").
//		Where("active", true).
//		Limit(5).
//		Build()
type Builder struct {
	q   Query
	err error
}

// Select starts a builder with the given columns (none selects *).
func Select(columns ...string) *Builder {
	return &Builder{q: Query{Columns: columns}}
}

// From sets the table.
func (b *Builder) From(table string) *Builder {
	b.q.Table = table
	return b
}

// Where appends an equality condition.
func (b *Builder) Where(column string, v any) *Builder {
	if b.err != nil {
		return b
	}
	c, err := Eq(column, v)
	if err != nil {
		b.err = err
		return b
	}
	b.q.Where = append(b.q.Where, c)
	return b
}

// Limit sets the row limit.
func (b *Builder) Limit(n int) *Builder {
	b.q.Limit = n
	return b
}

// Query returns the accumulated query.
func (b *Builder) Query() Query { return b.q }

// Build renders the statement with BuildSelect.
func (b *Builder) Build() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	return BuildSelect(b.q)
}
