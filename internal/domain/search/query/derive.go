package query

import (
	"github.com/kailas-cloud/querystate/internal/domain/search/filter"
	"github.com/kailas-cloud/querystate/internal/domain/search/result"
)

// DefaultIDField is the row id field used to scope actions in flat views.
const DefaultIDField = "id"

// NewBase returns a query holding only the names keep accepts, re-parsed
// against the same defaults. API-only parameters carry over.
func (q *Query) NewBase(keep func(name string) bool) *Query {
	return &Query{Store: q.Retain(keep), api: q.api.Clone()}
}

// GroupByAsFilter converts the active grouping into a field:* existence
// filter on a copy, for facet and statistics requests scoped to the
// grouped view. The receiver keeps its group_by. Paging is dropped; the
// time anchor is kept.
func (q *Query) GroupByAsFilter() *Query {
	c := q.Clone()
	c.Store.Remove(NameOffset)
	field := c.GroupBy()
	if field == "" {
		return c
	}
	c.Store.Remove(NameGroupBy)
	c.Store.Add(NameFq, filter.Exists(field).String())
	return c
}

// ActionQuery scopes an action (take ownership, apply workflow) to exactly
// the rows behind row: in a grouped view every member of row's group, in
// a flat view the row itself by idField ("" means DefaultIDField).
// Grouping, paging and sort are stripped; the time anchor is kept so the
// action sees the same result set the user saw.
func ActionQuery(src *Query, row result.Row, idField string) *Query {
	groupBy := src.GroupBy()
	q := src.NewBase(func(name string) bool {
		switch name {
		case NameGroupBy, NameOffset, NameRows, NameSort:
			return false
		}
		return true
	})

	switch {
	case groupBy != "":
		q.Store.Add(NameFq, groupTerm(groupBy, row).String())
	default:
		if idField == "" {
			idField = DefaultIDField
		}
		q.Store.Add(NameFq, filter.Term(idField, row.ID()).String())
	}
	return q
}

// FocusQuery drills down from a grouped view into a new top-level search
// over one group's members. Grouping, paging and the time anchor are not
// inherited. For a flat view it returns the same search reset to page one.
func FocusQuery(src *Query, row result.Row) *Query {
	groupBy := src.GroupBy()
	q := src.NewBase(func(name string) bool {
		switch name {
		case NameGroupBy, NameOffset, NameTcStart:
			return false
		}
		return true
	})

	if groupBy != "" {
		q.Store.Add(NameFq, groupTerm(groupBy, row).String())
	}
	return q
}

// groupTerm matches the members of row's group. Rows without a value for
// the group field form the "missing" group.
func groupTerm(field string, row result.Row) filter.Filter {
	if !row.HasField(field) {
		return filter.Missing(field)
	}
	return filter.Term(field, row.Field(field))
}
