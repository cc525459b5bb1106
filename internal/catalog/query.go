package catalog

import "strings"

// Query is a read statement with `?` placeholders and its bound arguments.
type Query struct {
	Text string
	Args []any
}

// Build returns the list query for d, or the single-row lookup when id is set.
// The id only ever travels as a bound argument.
func Build(d Descriptor, id string) Query {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(d.Projection(), ", "))
	b.WriteString(" FROM ")
	b.WriteString(d.Table())

	if id != "" {
		b.WriteString(" WHERE ")
		b.WriteString(d.IDColumn())
		b.WriteString(" = ?")
		return Query{Text: b.String(), Args: []any{id}}
	}
	if order := d.DefaultOrder(); order != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(order)
	}
	return Query{Text: b.String()}
}
