// Package querystate models the state of a search screen as an ordered,
// multi-valued parameter store layered over a default template, and
// derives follow-up queries (paging, facets, drill-down, actions) from it.
//
// The types here are aliases of the internal model so programs outside
// this module can build and encode queries without running the server.
package querystate

import (
	"github.com/kailas-cloud/querystate/internal/domain/search/filter"
	"github.com/kailas-cloud/querystate/internal/domain/search/params"
	"github.com/kailas-cloud/querystate/internal/domain/search/query"
	"github.com/kailas-cloud/querystate/internal/domain/search/result"
)

type (
	// Params is an ordered multi-valued parameter store with defaults.
	Params = params.Store
	// Template is a parsed default parameter set.
	Template = params.Template
	// Query is a Params store with search semantics.
	Query = query.Query
	// Filter is one fq expression, bare or an OR-group over a field.
	Filter = filter.Filter
	// Row is one result row used to derive follow-up queries.
	Row = result.Row
)

// Well-known parameter names.
const (
	ParamQuery   = query.NameQuery
	ParamGroupBy = query.NameGroupBy
	ParamTc      = query.NameTc
	ParamTcStart = query.NameTcStart
	ParamOffset  = query.NameOffset
	ParamRows    = query.NameRows
	ParamSort    = query.NameSort
	ParamFq      = query.NameFq
)

// ParseTemplate parses a default template string.
func ParseTemplate(s string) Template { return params.ParseTemplate(s) }

// NewParams parses search over defaults.
func NewParams(search string, defaults Template, enforced ...string) *Params {
	return params.New(search, defaults, enforced...)
}

// ParseParams parses search over a raw default template.
func ParseParams(search, defaultTemplate string, enforced ...string) *Params {
	return params.Parse(search, defaultTemplate, enforced...)
}

// NewQuery parses search over defaults.
func NewQuery(search string, defaults Template, enforced ...string) *Query {
	return query.New(search, defaults, enforced...)
}

// ParseQuery parses search over a raw default template.
func ParseQuery(search, defaultTemplate string, enforced ...string) *Query {
	return query.Parse(search, defaultTemplate, enforced...)
}

// ActionQuery derives the query selecting the rows behind row.
func ActionQuery(src *Query, row Row, idField string) *Query {
	return query.ActionQuery(src, row, idField)
}

// FocusQuery derives the drill-down query for row's group.
func FocusQuery(src *Query, row Row) *Query {
	return query.FocusQuery(src, row)
}

// ParseFilter parses one fq value.
func ParseFilter(raw string) Filter { return filter.Parse(raw) }

// NewGroup builds an OR-group filter over field.
func NewGroup(field string, values ...string) Filter { return filter.NewGrouped(field, values...) }

// NewRow builds a result row.
func NewRow(id string, fields map[string]string) Row { return result.New(id, fields) }
