// Package query layers search semantics on top of params.Store: paging
// with a pinned time anchor, grouping, OR-grouped fq filters and the
// URL / API encodings.
//
// Every mutating method changes the receiver in place. Derivations
// (Clone, NewBase, GroupByAsFilter, ActionQuery, FocusQuery) return fresh
// instances that share no mutable state with their source, so a caller
// that needs a stable snapshot across a goroutine or callback boundary
// captures a Clone.
package query

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/querystate/internal/domain/search/filter"
	"github.com/kailas-cloud/querystate/internal/domain/search/params"
)

// Reserved parameter names.
const (
	NameQuery   = "query"
	NameGroupBy = "group_by"
	NameTc      = "tc"
	NameTcStart = "tc_start"
	NameOffset  = "offset"
	NameRows    = "rows"
	NameSort    = "sort"
	NameFq      = "fq"
)

// DefaultRows is the page size used when neither the query nor its
// template carries a usable rows value.
const DefaultRows = 25

// Changing any of these starts a new search: the paging anchor and the
// offset are dropped.
var baseNames = []string{NameQuery, NameFq, NameGroupBy, NameTc}

// Query is a search/filter/paging state.
type Query struct {
	*params.Store
	api *params.Store
}

// New parses search against defaults. enforced names always appear in
// URLQueryString when set.
func New(search string, defaults params.Template, enforced ...string) *Query {
	return &Query{
		Store: params.New(search, defaults, enforced...),
		api:   params.New("", params.Template{}),
	}
}

// Parse is New with the default template given as a string.
func Parse(search, defaultTemplate string, enforced ...string) *Query {
	return New(search, params.ParseTemplate(defaultTemplate), enforced...)
}

// Clone returns an independent copy.
func (q *Query) Clone() *Query {
	return &Query{Store: q.Store.Clone(), api: q.api.Clone()}
}

// Set replaces the values of name. Changing a base name resets paging.
func (q *Query) Set(name, value string) {
	q.mutate(name, func() { q.Store.Set(name, value) })
}

// SetAll replaces the values of name. Changing a base name resets paging.
func (q *Query) SetAll(name string, values []string) {
	q.mutate(name, func() { q.Store.SetAll(name, values) })
}

// Add appends value to name unless present. Changing a base name resets paging.
func (q *Query) Add(name, value string) {
	q.mutate(name, func() { q.Store.Add(name, value) })
}

// Remove deletes name or some of its values. Changing a base name resets paging.
func (q *Query) Remove(name string, values ...string) {
	q.mutate(name, func() { q.Store.Remove(name, values...) })
}

// Text returns the free-text query, or the template default.
func (q *Query) Text() string {
	return q.Get(NameQuery, q.Defaults().Get(NameQuery, ""))
}

// Offset returns the numeric offset, clamped to 0 when absent, malformed
// or negative.
func (q *Query) Offset() int {
	n, err := strconv.Atoi(strings.TrimSpace(q.Get(NameOffset, "")))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Rows returns the page size: the query's rows, else the template's,
// else DefaultRows. Non-positive or malformed values fall through.
func (q *Query) Rows() int {
	for _, raw := range []string{q.Get(NameRows, ""), q.Defaults().Get(NameRows, "")} {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
			return n
		}
	}
	return DefaultRows
}

// TickOffset advances offset by one page, saturating at math.MaxInt.
func (q *Query) TickOffset() {
	offset, rows := q.Offset(), q.Rows()
	next := math.MaxInt
	if offset <= math.MaxInt-rows {
		next = offset + rows
	}
	q.Store.Set(NameOffset, strconv.Itoa(next))
}

// ResetOffset returns to the first page.
func (q *Query) ResetOffset() {
	q.Store.Remove(NameOffset)
}

// TcStart returns the pinned paging anchor, or "".
func (q *Query) TcStart() string {
	return q.Get(NameTcStart, "")
}

// TcStartTime parses the paging anchor as RFC 3339.
func (q *Query) TcStartTime() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, q.TcStart())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SetTcStart pins the paging anchor. An empty value clears it.
func (q *Query) SetTcStart(ts string) {
	if ts == "" {
		q.Store.Remove(NameTcStart)
		return
	}
	q.Store.Set(NameTcStart, ts)
}

// PinTcStart records t as the anchor unless one is already pinned, so
// later pages of the same search keep the first page's boundary.
// Reports whether the anchor was set.
func (q *Query) PinTcStart(t time.Time) bool {
	if q.Has(NameTcStart) {
		return false
	}
	q.SetTcStart(t.UTC().Format(time.RFC3339Nano))
	return true
}

// GroupBy returns the grouping field; "" means a flat list.
func (q *Query) GroupBy() string {
	return q.Get(NameGroupBy, "")
}

// SetGroupBy sets the grouping field. An empty field ungroups.
func (q *Query) SetGroupBy(field string) {
	if field == "" {
		q.Remove(NameGroupBy)
		return
	}
	q.Set(NameGroupBy, field)
}

// Filters decodes every fq value.
func (q *Query) Filters() []filter.Filter {
	raw := q.GetAll(NameFq, nil)
	out := make([]filter.Filter, 0, len(raw))
	for _, r := range raw {
		out = append(out, filter.Parse(r))
	}
	return out
}

// AddFq adds a filter. A group merges into an existing group over the
// same field instead of adding a second entry; bare filters are added
// once. Empty filters are ignored. Reports whether a merge happened.
func (q *Query) AddFq(raw string) bool {
	f := filter.Parse(raw)
	if f.IsEmpty() {
		return false
	}
	if !f.IsGrouped() {
		q.Add(NameFq, f.String())
		return false
	}

	entries, i := q.groupIndex(f)
	if i < 0 {
		q.Add(NameFq, f.String())
		return false
	}
	entries[i] = filter.Parse(entries[i]).Merge(f).String()
	q.SetAll(NameFq, entries)
	return true
}

// RemoveFq removes a filter. For a group only the given values leave the
// existing group; a group left empty is dropped.
func (q *Query) RemoveFq(raw string) {
	f := filter.Parse(raw)
	if !f.IsGrouped() {
		q.Remove(NameFq, f.String())
		return
	}

	entries, i := q.groupIndex(f)
	if i < 0 {
		return
	}
	rest := filter.Parse(entries[i]).Without(f.Values()...)
	if rest.IsEmpty() {
		entries = slices.Delete(entries, i, i+1)
	} else {
		entries[i] = rest.String()
	}
	if len(entries) == 0 {
		q.Remove(NameFq)
		return
	}
	q.SetAll(NameFq, entries)
}

// groupIndex returns the raw fq values and the index of the first group
// over f's field, or -1. Only that entry is ever re-encoded.
func (q *Query) groupIndex(f filter.Filter) ([]string, int) {
	raw := q.GetAll(NameFq, nil)
	i := slices.IndexFunc(raw, func(r string) bool {
		return filter.Parse(r).SameCategory(f)
	})
	return raw, i
}

// SetAPIParam attaches a parameter that is sent to the API but never
// written into the browser URL, e.g. an archive-access flag.
func (q *Query) SetAPIParam(name, value string) {
	q.api.Set(name, value)
}

// APIParam returns an API-only parameter, or fallback.
func (q *Query) APIParam(name, fallback string) string {
	return q.api.Get(name, fallback)
}

// Build returns a read-only snapshot of the set values.
func (q *Query) Build() map[string][]string {
	return q.Values()
}

// URLQueryString is the short, default-elided form for browser navigation.
func (q *Query) URLQueryString() string {
	return q.DeltaString()
}

// APIQueryString is the full form sent to the search API: set values,
// then unset template defaults, then API-only parameters.
func (q *Query) APIQueryString() string {
	return q.apiStore().String()
}

// APIParams is APIQueryString as a request body object.
func (q *Query) APIParams() map[string]any {
	return q.apiStore().AllParams()
}

func (q *Query) apiStore() *params.Store {
	s := q.WithDefaults()
	for _, name := range q.api.Names() {
		s.SetAll(name, q.api.GetAll(name, nil))
	}
	return s
}

func (q *Query) mutate(name string, fn func()) {
	if !slices.Contains(baseNames, name) {
		fn()
		return
	}
	before := q.GetAll(name, nil)
	fn()
	if !slices.Equal(before, q.GetAll(name, nil)) {
		q.Store.Remove(NameTcStart)
		q.Store.Remove(NameOffset)
	}
}
