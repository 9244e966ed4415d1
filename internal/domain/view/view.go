package view

import (
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/kailas-cloud/querystate/internal/domain/search/params"
	"github.com/kailas-cloud/querystate/internal/domain/search/query"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// DefaultAnchorField is the row field the paging anchor is read from.
const DefaultAnchorField = "timestamp"

// View is a named search screen: its default template and the encoding
// rules every query built for it follows (immutable value object).
type View struct {
	name        string
	template    string
	enforced    []string
	apiParams   map[string]string
	idField     string
	anchorField string
}

// New validates and creates a View.
// Name: ^[a-zA-Z0-9_-]+$, 1-64 chars. Enforced names must be non-empty.
func New(
	name, template string,
	enforced []string,
	apiParams map[string]string,
	idField, anchorField string,
) (View, error) {
	if name == "" {
		return View{}, fmt.Errorf("view name is required")
	}
	if len(name) > 64 {
		return View{}, fmt.Errorf("view name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return View{}, fmt.Errorf("view name must be alphanumeric with underscores and hyphens")
	}
	if slices.Contains(enforced, "") {
		return View{}, fmt.Errorf("view %s: enforced parameter name is empty", name)
	}
	if idField == "" {
		idField = query.DefaultIDField
	}
	if anchorField == "" {
		anchorField = DefaultAnchorField
	}
	return View{
		name:        name,
		template:    template,
		enforced:    slices.Clone(enforced),
		apiParams:   apiParams,
		idField:     idField,
		anchorField: anchorField,
	}, nil
}

// Name returns the view name.
func (v View) Name() string { return v.name }

// Template returns the default-template string.
func (v View) Template() string { return v.template }

// Enforced returns the names always written into URLs.
func (v View) Enforced() []string { return slices.Clone(v.enforced) }

// APIParams returns parameters sent to the API but kept out of URLs.
func (v View) APIParams() map[string]string { return v.apiParams }

// IDField returns the row id field used to scope actions in flat lists.
func (v View) IDField() string { return v.idField }

// AnchorField returns the row timestamp field used to pin tc_start.
func (v View) AnchorField() string { return v.anchorField }

// Query parses search for this view against already-parsed defaults.
func (v View) Query(search string, defaults params.Template) *query.Query {
	q := query.New(search, defaults, v.enforced...)
	for _, name := range slices.Sorted(maps.Keys(v.apiParams)) {
		q.SetAPIParam(name, v.apiParams[name])
	}
	return q
}
