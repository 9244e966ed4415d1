package params

import (
	"reflect"
	"slices"
	"testing"
)

const testTemplate = "query=*&rows=25&offset=0"

func TestParse_MultiValuedOrder(t *testing.T) {
	s := Parse("fq=a&query=x&fq=b", testTemplate)

	if got := s.Names(); !slices.Equal(got, []string{"fq", "query"}) {
		t.Errorf("Names() = %v", got)
	}
	if got := s.GetAll("fq", nil); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("GetAll(fq) = %v", got)
	}
}

func TestParse_Permissive(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   map[string][]string
	}{
		{"leading question mark", "?query=x", map[string][]string{"query": {"x"}}},
		{"bad escape dropped", "query=%zz&rows=10", map[string][]string{"rows": {"10"}}},
		{"empty key dropped", "=x&rows=10", map[string][]string{"rows": {"10"}}},
		{"empty pairs skipped", "&&rows=10&", map[string][]string{"rows": {"10"}}},
		{"bare key", "archived", map[string][]string{"archived": {""}}},
		{"plus is space", "query=a+b", map[string][]string{"query": {"a b"}}},
		{"empty input", "", map[string][]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Parse(tt.search, testTemplate)
			if got := s.Values(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Values() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGet_Fallback(t *testing.T) {
	s := Parse("query=x", testTemplate)

	if got := s.Get("query", "*"); got != "x" {
		t.Errorf("Get(query) = %q", got)
	}
	if got := s.Get("rows", "25"); got != "25" {
		t.Errorf("Get(rows) = %q, want fallback", got)
	}
	if s.Has("rows") {
		t.Error("Has(rows) = true, defaults must not count")
	}
}

func TestGetAll_FallbackNotMutated(t *testing.T) {
	s := Parse("", testTemplate)
	fallback := []string{"x"}

	got := s.GetAll("fq", fallback)
	if !slices.Equal(got, fallback) {
		t.Fatalf("GetAll = %v", got)
	}

	s.SetAll("fq", nil)
	if got := s.GetAll("fq", fallback); got == nil || len(got) != 0 {
		t.Errorf("GetAll on present empty list = %v, want empty", got)
	}
	if s.Has("fq") {
		t.Error("Has(fq) = true for empty list")
	}
}

func TestGetAll_ReturnsCopy(t *testing.T) {
	s := Parse("fq=a", testTemplate)
	vs := s.GetAll("fq", nil)
	vs[0] = "changed"

	if got := s.Get("fq", ""); got != "a" {
		t.Errorf("store mutated through GetAll: %q", got)
	}
}

func TestSet_Overwrites(t *testing.T) {
	s := Parse("fq=a&fq=b", testTemplate)
	s.Set("fq", "c")

	if got := s.GetAll("fq", nil); !slices.Equal(got, []string{"c"}) {
		t.Errorf("GetAll(fq) = %v", got)
	}
}

func TestAdd_Idempotent(t *testing.T) {
	s := Parse("", testTemplate)
	s.Add("fq", "status:TRIAGE")
	s.Add("fq", "status:TRIAGE")

	if got := s.GetAll("fq", nil); !slices.Equal(got, []string{"status:TRIAGE"}) {
		t.Errorf("GetAll(fq) = %v", got)
	}
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   map[string][]string
	}{
		{"whole name", nil, map[string][]string{"query": {"x"}}},
		{"one value", []string{"a"}, map[string][]string{"query": {"x"}, "fq": {"b"}}},
		{"last values delete name", []string{"a", "b"}, map[string][]string{"query": {"x"}}},
		{"absent value is no-op", []string{"zzz"}, map[string][]string{"query": {"x"}, "fq": {"a", "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Parse("query=x&fq=a&fq=b", testTemplate)
			s.Remove("fq", tt.values...)
			if got := s.Values(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Values() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRemove_AbsentName(t *testing.T) {
	s := Parse("query=x", testTemplate)
	s.Remove("nope")
	s.Remove("nope", "v")

	if got := s.String(); got != "query=x" {
		t.Errorf("String() = %q", got)
	}
}

func TestRemove_ThenReaddGoesLast(t *testing.T) {
	s := Parse("query=x&rows=10", testTemplate)
	s.Remove("query")
	s.Set("query", "y")

	if got := s.String(); got != "rows=10&query=y" {
		t.Errorf("String() = %q", got)
	}
}

func TestString_Omit(t *testing.T) {
	s := Parse("query=x&rows=25&offset=50", testTemplate)

	if got := s.String(); got != "query=x&rows=25&offset=50" {
		t.Errorf("String() = %q", got)
	}
	if got := s.String("offset", "rows"); got != "query=x" {
		t.Errorf("String(offset, rows) = %q", got)
	}
}

func TestString_Escaping(t *testing.T) {
	s := Parse("", testTemplate)
	s.Set("query", "*")
	s.Add("fq", "label:(a OR b)")

	want := "query=*&fq=label%3A%28a+OR+b%29"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	s := Parse("", testTemplate)
	s.Set("query", "status:open & owner:me")
	s.Add("fq", "label:(a OR b)")
	s.Add("fq", "status:TRIAGE")
	s.Set("x-unknown", "kept=verbatim")

	back := Parse(s.String(), testTemplate)
	if !reflect.DeepEqual(back.Values(), s.Values()) {
		t.Errorf("round trip = %v, want %v", back.Values(), s.Values())
	}
	if !slices.Equal(back.Names(), s.Names()) {
		t.Errorf("round trip names = %v, want %v", back.Names(), s.Names())
	}
}

func TestDeltaString(t *testing.T) {
	s := Parse("query=bad&rows=25&offset=50", testTemplate)

	if got := s.DeltaString(); got != "query=bad&offset=50" {
		t.Errorf("DeltaString() = %q", got)
	}
}

func TestDeltaString_Enforced(t *testing.T) {
	s := Parse("query=bad&rows=25&offset=50", testTemplate, "rows")

	if got := s.DeltaString(); got != "query=bad&rows=25&offset=50" {
		t.Errorf("DeltaString() = %q", got)
	}
}

func TestDeltaString_EnforcedButUnset(t *testing.T) {
	s := Parse("query=bad", testTemplate, "rows")

	if got := s.DeltaString(); got != "query=bad" {
		t.Errorf("DeltaString() = %q", got)
	}
}

func TestDeltaString_MultisetComparison(t *testing.T) {
	s := Parse("fq=b&fq=a", "fq=a&fq=b")
	if got := s.DeltaString(); got != "" {
		t.Errorf("reordered defaults should be elided, got %q", got)
	}

	s = Parse("fq=a&fq=a", "fq=a")
	if got := s.DeltaString(); got != "fq=a&fq=a" {
		t.Errorf("duplicate values differ from default, got %q", got)
	}
}

func TestParams(t *testing.T) {
	s := Parse("query=bad&rows=25&fq=a&fq=b", testTemplate)

	want := map[string]any{
		"query": "bad",
		"fq":    []string{"a", "b"},
	}
	if got := s.Params(); !reflect.DeepEqual(got, want) {
		t.Errorf("Params() = %v, want %v", got, want)
	}

	wantAll := map[string]any{
		"query": "bad",
		"rows":  "25",
		"fq":    []string{"a", "b"},
	}
	if got := s.AllParams(); !reflect.DeepEqual(got, wantAll) {
		t.Errorf("AllParams() = %v, want %v", got, wantAll)
	}
}

func TestClone_Independent(t *testing.T) {
	s := Parse("fq=a", testTemplate, "rows")
	c := s.Clone()
	c.Add("fq", "b")
	c.Set("query", "x")

	if got := s.String(); got != "fq=a" {
		t.Errorf("original mutated: %q", got)
	}
	if !c.IsEnforced("rows") {
		t.Error("clone lost enforced names")
	}
}

func TestRetain(t *testing.T) {
	s := Parse("query=x&group_by=owner&offset=50&tc_start=2024-01-01T00:00:00Z", testTemplate, "rows")
	base := s.Retain(func(name string) bool { return name == "tc_start" })

	if got := base.Names(); !slices.Equal(got, []string{"tc_start"}) {
		t.Fatalf("Names() = %v", got)
	}
	if got := base.Get("tc_start", ""); got != "2024-01-01T00:00:00Z" {
		t.Errorf("tc_start = %q", got)
	}
	if base.Defaults().String() != testTemplate {
		t.Errorf("defaults = %q", base.Defaults().String())
	}
	if !base.IsEnforced("rows") {
		t.Error("Retain lost enforced names")
	}
}

func TestWithDefaults(t *testing.T) {
	s := Parse("offset=50&fq=a", testTemplate)

	if got := s.WithDefaults().String(); got != "offset=50&fq=a&query=*&rows=25" {
		t.Errorf("WithDefaults().String() = %q", got)
	}
	if s.Has("rows") {
		t.Error("WithDefaults mutated the receiver")
	}
}

func TestTemplate(t *testing.T) {
	tpl := ParseTemplate(testTemplate)

	if !tpl.Has("rows") || tpl.Has("fq") {
		t.Error("Has mismatch")
	}
	if got := tpl.Get("rows", ""); got != "25" {
		t.Errorf("Get(rows) = %q", got)
	}
	if got := tpl.GetAll("fq"); got != nil {
		t.Errorf("GetAll(fq) = %v, want nil", got)
	}
	if got := tpl.Names(); !slices.Equal(got, []string{"query", "rows", "offset"}) {
		t.Errorf("Names() = %v", got)
	}
}
