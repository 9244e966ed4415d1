package params

// Template is an immutable set of default parameter values parsed once
// from a default-template string such as "query=*&rows=25&offset=0".
type Template struct {
	raw    string
	names  []string
	values map[string][]string
}

// ParseTemplate parses a default-template string. Malformed pairs are dropped.
func ParseTemplate(s string) Template {
	names, values := parse(s)
	return Template{raw: s, names: names, values: values}
}

// String returns the template string the defaults were parsed from.
func (t Template) String() string { return t.raw }

// Names returns the default parameter names in template order.
func (t Template) Names() []string { return append([]string(nil), t.names...) }

// Has reports whether the template defines a value for name.
func (t Template) Has(name string) bool { return len(t.values[name]) > 0 }

// Get returns the first default value for name, or fallback.
func (t Template) Get(name, fallback string) string {
	if vs := t.values[name]; len(vs) > 0 {
		return vs[0]
	}
	return fallback
}

// GetAll returns a copy of the default values for name (nil when absent).
func (t Template) GetAll(name string) []string {
	vs, ok := t.values[name]
	if !ok {
		return nil
	}
	return append(make([]string, 0, len(vs)), vs...)
}

func (t Template) equals(name string, vs []string) bool {
	return sameValues(t.values[name], vs)
}
