package builder

import (
	"fmt"
	"strings"
)

// SQLBuilder constructs read-only SELECT queries for exports. Conditions use
// "?" placeholders which Build numbers as $1, $2, ... in the order they were
// added, so args always line up with the rendered SQL.
type SQLBuilder struct {
	table   string
	columns []string
	joins   []string
	where   []string
	args    []interface{}
	orderBy []string
	limit   int
	offset  int
}

// NewSQLBuilder creates a new instance of SQLBuilder.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{}
}

// Select specifies the columns to retrieve.
func (b *SQLBuilder) Select(cols ...string) *SQLBuilder {
	b.columns = cols
	return b
}

// From specifies the table to select from.
func (b *SQLBuilder) From(table string) *SQLBuilder {
	b.table = table
	return b
}

// Join adds a JOIN clause.
func (b *SQLBuilder) Join(joinType, table, on string) *SQLBuilder {
	b.joins = append(b.joins, fmt.Sprintf("%s JOIN %s ON %s", joinType, table, on))
	return b
}

// Where adds a condition. Conditions are combined with AND.
func (b *SQLBuilder) Where(condition string, args ...interface{}) *SQLBuilder {
	b.where = append(b.where, condition)
	b.args = append(b.args, args...)
	return b
}

// WhereIf adds the condition only when ok is true. Optional export filters
// use it to skip zero values.
func (b *SQLBuilder) WhereIf(ok bool, condition string, args ...interface{}) *SQLBuilder {
	if !ok {
		return b
	}
	return b.Where(condition, args...)
}

// AnyOf adds a parenthesized group of conditions combined with OR.
func (b *SQLBuilder) AnyOf(fn func(g *SQLBuilder) *SQLBuilder) *SQLBuilder {
	g := fn(NewSQLBuilder())
	if len(g.where) == 0 {
		return b
	}
	return b.Where("("+strings.Join(g.where, " OR ")+")", g.args...)
}

// Search matches term case-insensitively against any of cols. An empty term
// adds nothing.
func (b *SQLBuilder) Search(term string, cols ...string) *SQLBuilder {
	term = strings.TrimSpace(term)
	if term == "" || len(cols) == 0 {
		return b
	}
	pattern := "%" + escapeLike(term) + "%"
	return b.AnyOf(func(g *SQLBuilder) *SQLBuilder {
		for _, col := range cols {
			g.Where(col+" ILIKE ?", pattern)
		}
		return g
	})
}

// OrderBy adds an ORDER BY clause.
func (b *SQLBuilder) OrderBy(order string) *SQLBuilder {
	b.orderBy = append(b.orderBy, order)
	return b
}

// Limit adds a LIMIT clause. Zero means no limit.
func (b *SQLBuilder) Limit(limit int) *SQLBuilder {
	b.limit = limit
	return b
}

// Offset adds an OFFSET clause.
func (b *SQLBuilder) Offset(offset int) *SQLBuilder {
	b.offset = offset
	return b
}

// Build constructs the final SQL string and arguments.
func (b *SQLBuilder) Build() (string, []interface{}) {
	var sb strings.Builder

	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	for _, join := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(join)
	}

	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(numberPlaceholders(strings.Join(b.where, " AND ")))
	}
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", b.limit)
	}
	if b.offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", b.offset)
	}

	args := make([]interface{}, len(b.args))
	copy(args, b.args)
	return sb.String(), args
}

// BuildSafe is Build with a check that every placeholder has an argument.
func (b *SQLBuilder) BuildSafe() (string, []interface{}, error) {
	placeholders := 0
	for _, cond := range b.where {
		placeholders += strings.Count(cond, "?")
	}
	if placeholders != len(b.args) {
		return "", nil, fmt.Errorf("placeholder count (%d) does not match argument count (%d)", placeholders, len(b.args))
	}
	sql, args := b.Build()
	return sql, args, nil
}

func numberPlaceholders(clause string) string {
	var sb strings.Builder
	n := 0
	for _, r := range clause {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
