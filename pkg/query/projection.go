// Package query provides a fluent SQL query builder with field-to-column
// projection mapping for PostgreSQL.
package query

import "strings"

// ProjectionMap maps view-level field names to aliased table columns.
type ProjectionMap struct {
	schema string
	table  string
	alias  string
	order  []string
	fields map[string]string
}

// NewProjectionMap creates a ProjectionMap for a schema-qualified table
// with the given alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema: schema,
		table:  table,
		alias:  alias,
		fields: make(map[string]string),
	}
}

// Project registers a column under a view-level field name. It returns
// the map to support fluent chaining.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	p.fields[field] = p.alias + "." + column
	p.order = append(p.order, field)
	return p
}

// Alias returns the table alias.
func (p *ProjectionMap) Alias() string {
	return p.alias
}

// Table returns the schema-qualified, aliased table reference.
func (p *ProjectionMap) Table() string {
	return p.schema + "." + p.table + " " + p.alias
}

// Column resolves a field name to its aliased column. Unknown fields are
// returned unchanged.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.fields[field]; ok {
		return col
	}
	return field
}

// Columns returns the projected columns as a comma-separated list in
// registration order.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.ColumnList(), ", ")
}

// ColumnList returns the projected columns in registration order.
func (p *ProjectionMap) ColumnList() []string {
	cols := make([]string, len(p.order))
	for i, field := range p.order {
		cols[i] = p.fields[field]
	}
	return cols
}
