package agents

import (
	"net/url"

	"github.com/agentdeck/agentdeck/pkg/query"
)

// Filters contains optional filtering criteria for agent queries.
type Filters struct {
	Name      *string
	Framework *string
	Status    *string
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if n := values.Get("name"); n != "" {
		f.Name = &n
	}
	if fw := values.Get("framework"); fw != "" {
		f.Framework = &fw
	}
	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	return f
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereContains("Name", f.Name)
	if f.Framework != nil {
		b.WhereEquals("Framework", *f.Framework)
	}
	if f.Status != nil {
		b.WhereEquals("Status", *f.Status)
	}
	return b
}
