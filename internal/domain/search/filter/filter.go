// Package filter models a single fq value as a tagged variant: either a
// bare expression (status:TRIAGE) or an OR-group over one field
// (label:(a OR b)). String encoding and decoding live only here.
package filter

import (
	"regexp"
	"slices"
	"strings"
)

// Kind tags the filter variant.
type Kind int

const (
	// Bare is an opaque expression kept verbatim.
	Bare Kind = iota
	// Grouped is field:(v1 OR v2 ...), one logical category per field.
	Grouped
)

func (k Kind) String() string {
	if k == Grouped {
		return "grouped"
	}
	return "bare"
}

var (
	groupedRe   = regexp.MustCompile(`^([^\s:()-][^\s:()]*):\(([^()]*)\)$`)
	separatorRe = regexp.MustCompile(`\s+(?:OR|or)\s+`)
)

// Filter is one fq value.
type Filter struct {
	kind   Kind
	expr   string
	field  string
	values []string
}

// Parse decodes a raw fq value. Anything that is not a well-formed group
// is treated as a bare expression.
func Parse(raw string) Filter {
	raw = strings.TrimSpace(raw)
	m := groupedRe.FindStringSubmatch(raw)
	if m == nil {
		return NewBare(raw)
	}
	return NewGrouped(m[1], separatorRe.Split(m[2], -1)...)
}

// NewBare wraps an expression verbatim.
func NewBare(expr string) Filter {
	return Filter{kind: Bare, expr: expr}
}

// NewGrouped builds an OR-group. Values are trimmed, blanks dropped and
// duplicates removed keeping first occurrence.
func NewGrouped(field string, values ...string) Filter {
	f := Filter{kind: Grouped, field: field}
	return f.with(values...)
}

// Term is a bare field:value match. Values with whitespace or query
// punctuation are double-quoted.
func Term(field, value string) Filter {
	return NewBare(field + ":" + quote(value))
}

// Exists matches documents where field has any value.
func Exists(field string) Filter {
	return NewBare(field + ":*")
}

// Missing matches documents where field has no value.
func Missing(field string) Filter {
	return NewBare("-" + field + ":*")
}

// Kind returns the variant tag.
func (f Filter) Kind() Kind { return f.kind }

// IsGrouped reports whether f is an OR-group.
func (f Filter) IsGrouped() bool { return f.kind == Grouped }

// Field returns the group field, or the prefix before the first ':' of a
// bare expression.
func (f Filter) Field() string {
	if f.kind == Grouped {
		return f.field
	}
	field, _, ok := strings.Cut(f.expr, ":")
	if !ok {
		return ""
	}
	return field
}

// Values returns a copy of the group values (nil for bare filters).
func (f Filter) Values() []string {
	if f.kind != Grouped {
		return nil
	}
	return append([]string(nil), f.values...)
}

// Contains reports whether a group holds value.
func (f Filter) Contains(value string) bool {
	return slices.Contains(f.values, value)
}

// IsEmpty reports whether f carries nothing to filter on.
func (f Filter) IsEmpty() bool {
	if f.kind == Grouped {
		return f.field == "" || len(f.values) == 0
	}
	return f.expr == ""
}

// SameCategory reports whether f and o are groups over the same field.
func (f Filter) SameCategory(o Filter) bool {
	return f.kind == Grouped && o.kind == Grouped && f.field == o.field
}

// Merge returns f with o's values appended. Only groups over the same
// field merge; otherwise f is returned unchanged.
func (f Filter) Merge(o Filter) Filter {
	if !f.SameCategory(o) {
		return f
	}
	return f.with(o.values...)
}

// Without returns a group with values removed.
func (f Filter) Without(values ...string) Filter {
	if f.kind != Grouped {
		return f
	}
	out := Filter{kind: Grouped, field: f.field}
	for _, v := range f.values {
		if !slices.Contains(values, v) {
			out.values = append(out.values, v)
		}
	}
	return out
}

// String encodes f as an fq value. An empty group encodes to "".
func (f Filter) String() string {
	if f.kind != Grouped {
		return f.expr
	}
	if f.IsEmpty() {
		return ""
	}
	return f.field + ":(" + strings.Join(f.values, " OR ") + ")"
}

func (f Filter) with(values ...string) Filter {
	out := Filter{kind: Grouped, field: f.field, values: append([]string(nil), f.values...)}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out.values, v) {
			continue
		}
		out.values = append(out.values, v)
	}
	return out
}

func quote(value string) string {
	if value != "" && !strings.ContainsAny(value, " \t\n():\"") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}
