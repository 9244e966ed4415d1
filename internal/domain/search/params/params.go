// Package params implements a multi-valued, insertion-ordered query
// parameter store that serializes either in full or as a delta against
// a default template.
//
// Parsing is permissive and never fails; serialization is strict
// application/x-www-form-urlencoded. A Store is not safe for concurrent
// use: callers that hand a store to another goroutine or callback pass a
// Clone.
package params

import (
	"slices"
)

// Store holds the current parameter values plus the defaults they are
// compared against for delta serialization.
type Store struct {
	names    []string
	values   map[string][]string
	defaults Template
	enforced map[string]struct{}
}

// New parses search against already-parsed defaults. Names listed in
// enforced are emitted by DeltaString even when equal to their default.
func New(search string, defaults Template, enforced ...string) *Store {
	names, values := parse(search)
	s := &Store{
		names:    names,
		values:   values,
		defaults: defaults,
	}
	s.Enforce(enforced...)
	return s
}

// Parse is New with the default template given as a string.
func Parse(search, defaultTemplate string, enforced ...string) *Store {
	return New(search, ParseTemplate(defaultTemplate), enforced...)
}

// Defaults returns the template this store compares against.
func (s *Store) Defaults() Template { return s.defaults }

// Enforce marks names that DeltaString always emits when set.
func (s *Store) Enforce(names ...string) {
	if len(names) == 0 {
		return
	}
	if s.enforced == nil {
		s.enforced = make(map[string]struct{}, len(names))
	}
	for _, n := range names {
		s.enforced[n] = struct{}{}
	}
}

// Enforced returns the enforced names in no particular order.
func (s *Store) Enforced() []string {
	out := make([]string, 0, len(s.enforced))
	for n := range s.enforced {
		out = append(out, n)
	}
	return out
}

// IsEnforced reports whether name is always emitted in delta output.
func (s *Store) IsEnforced(name string) bool {
	_, ok := s.enforced[name]
	return ok
}

// Names returns the set parameter names in first-insertion order.
func (s *Store) Names() []string { return append([]string(nil), s.names...) }

// Has reports whether name has at least one value. Defaults are not consulted.
func (s *Store) Has(name string) bool { return len(s.values[name]) > 0 }

// Get returns the first value for name, or fallback.
func (s *Store) Get(name, fallback string) string {
	if vs := s.values[name]; len(vs) > 0 {
		return vs[0]
	}
	return fallback
}

// GetAll returns a copy of every value for name in insertion order, or
// fallback when name is not set. fallback is returned as is.
func (s *Store) GetAll(name string, fallback []string) []string {
	vs, ok := s.values[name]
	if !ok {
		return fallback
	}
	return append(make([]string, 0, len(vs)), vs...)
}

// Set replaces all values for name with value.
func (s *Store) Set(name, value string) {
	s.SetAll(name, []string{value})
}

// SetAll replaces all values for name. An empty list keeps name set but
// valueless, which is distinct from Remove.
func (s *Store) SetAll(name string, values []string) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = append(make([]string, 0, len(values)), values...)
}

// Add appends value to name unless the pair is already present.
func (s *Store) Add(name, value string) {
	if slices.Contains(s.values[name], value) {
		return
	}
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = append(s.values[name], value)
}

// Remove deletes name entirely when no values are given, otherwise only
// the matching values. A name left without values is deleted.
// Removing something that is not there is a no-op.
func (s *Store) Remove(name string, values ...string) {
	vs, ok := s.values[name]
	if !ok {
		return
	}
	if len(values) > 0 {
		vs = slices.DeleteFunc(vs, func(v string) bool { return slices.Contains(values, v) })
		if len(vs) > 0 {
			s.values[name] = vs
			return
		}
	}
	delete(s.values, name)
	s.names = slices.DeleteFunc(s.names, func(n string) bool { return n == name })
}

// String serializes every set name except those in omit, ignoring defaults.
func (s *Store) String(omit ...string) string {
	return encode(s.names, s.values, func(name string) bool {
		return !slices.Contains(omit, name)
	})
}

// DeltaString serializes only the names that belong in a minimal URL:
// set names that are enforced or differ from their default as a multiset.
func (s *Store) DeltaString() string {
	return encode(s.names, s.values, s.inDelta)
}

// Params returns the delta-filtered values as a request body object.
// Single values are plain strings, repeated values are string slices.
func (s *Store) Params() map[string]any {
	return s.toParams(s.inDelta)
}

// AllParams is Params without the delta rule.
func (s *Store) AllParams() map[string]any {
	return s.toParams(nil)
}

// Values returns a deep copy of the set values.
func (s *Store) Values() map[string][]string {
	_, values := cloneValues(nil, s.values)
	return values
}

// Clone returns an independent copy sharing only the immutable defaults.
func (s *Store) Clone() *Store {
	names, values := cloneValues(s.names, s.values)
	c := &Store{names: names, values: values, defaults: s.defaults}
	c.Enforce(s.Enforced()...)
	return c
}

// Retain builds a new store from the names keep accepts, re-parsed against
// the same defaults and enforced names.
func (s *Store) Retain(keep func(name string) bool) *Store {
	c := New(encode(s.names, s.values, keep), s.defaults)
	c.Enforce(s.Enforced()...)
	return c
}

// WithDefaults returns a copy in which every default name that is not set
// carries its default values, appended after the set names.
func (s *Store) WithDefaults() *Store {
	c := s.Clone()
	for _, name := range s.defaults.names {
		if _, ok := c.values[name]; ok {
			continue
		}
		c.SetAll(name, s.defaults.values[name])
	}
	return c
}

func (s *Store) inDelta(name string) bool {
	vs, ok := s.values[name]
	if !ok {
		return false
	}
	if s.IsEnforced(name) {
		return true
	}
	return !s.defaults.equals(name, vs)
}

func (s *Store) toParams(include func(string) bool) map[string]any {
	out := make(map[string]any, len(s.names))
	for _, name := range s.names {
		if include != nil && !include(name) {
			continue
		}
		vs := s.values[name]
		switch len(vs) {
		case 0:
		case 1:
			out[name] = vs[0]
		default:
			out[name] = append([]string(nil), vs...)
		}
	}
	return out
}
