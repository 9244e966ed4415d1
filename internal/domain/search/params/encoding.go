package params

import (
	"net/url"
	"strings"
)

// parse splits a query string into insertion-ordered names and their values.
// Pairs with an empty name or an invalid percent-escape are dropped.
func parse(s string) ([]string, map[string][]string) {
	s = strings.TrimPrefix(s, "?")
	values := make(map[string][]string)
	var names []string

	for s != "" {
		var pair string
		pair, s, _ = strings.Cut(s, "&")
		if pair == "" {
			continue
		}
		rawKey, rawVal, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil || key == "" {
			continue
		}
		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			continue
		}
		if _, ok := values[key]; !ok {
			names = append(names, key)
		}
		values[key] = append(values[key], val)
	}

	return names, values
}

// escape encodes s as a form component. '*' stays literal so match-all
// queries remain readable in the address bar.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "%2A", "*")
}

// encode serializes names in order, skipping those include rejects.
func encode(names []string, values map[string][]string, include func(name string) bool) string {
	var b strings.Builder
	for _, name := range names {
		if include != nil && !include(name) {
			continue
		}
		key := escape(name)
		for _, v := range values[name] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(escape(v))
		}
	}
	return b.String()
}

// sameValues compares two value lists as multisets.
func sameValues(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}

func cloneValues(names []string, values map[string][]string) ([]string, map[string][]string) {
	out := make(map[string][]string, len(values))
	for k, vs := range values {
		out[k] = append(make([]string, 0, len(vs)), vs...)
	}
	return append([]string(nil), names...), out
}
