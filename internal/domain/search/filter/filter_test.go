package filter

import (
	"slices"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		kind   Kind
		field  string
		values []string
		str    string
	}{
		{"bare", "status:TRIAGE", Bare, "status", nil, "status:TRIAGE"},
		{"bare no field", "urgent", Bare, "", nil, "urgent"},
		{"single group", "label:(a)", Grouped, "label", []string{"a"}, "label:(a)"},
		{"group", "label:(a OR b OR c)", Grouped, "label", []string{"a", "b", "c"}, "label:(a OR b OR c)"},
		{"lowercase or", "label:(a or b)", Grouped, "label", []string{"a", "b"}, "label:(a OR b)"},
		{"duplicate values", "label:(a OR a)", Grouped, "label", []string{"a"}, "label:(a)"},
		{"extra spaces", "  label:( a  OR  b )  ", Grouped, "label", []string{"a", "b"}, "label:(a OR b)"},
		{"not a group", "label:a OR b", Bare, "label", nil, "label:a OR b"},
		{"negated is bare", "-label:(a OR b)", Bare, "-label", nil, "-label:(a OR b)"},
		{"compound is bare", "label:(a) AND owner:(b)", Bare, "label", nil, "label:(a) AND owner:(b)"},
		{"nested parens is bare", "label:((a OR b))", Bare, "label", nil, "label:((a OR b))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Parse(tt.raw)
			if f.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", f.Kind(), tt.kind)
			}
			if f.Field() != tt.field {
				t.Errorf("Field() = %q, want %q", f.Field(), tt.field)
			}
			if !slices.Equal(f.Values(), tt.values) {
				t.Errorf("Values() = %v, want %v", f.Values(), tt.values)
			}
			if f.String() != tt.str {
				t.Errorf("String() = %q, want %q", f.String(), tt.str)
			}
		})
	}
}

func TestParse_EmptyGroup(t *testing.T) {
	f := Parse("label:()")
	if !f.IsGrouped() {
		t.Fatal("expected grouped")
	}
	if !f.IsEmpty() {
		t.Error("IsEmpty() = false")
	}
	if f.String() != "" {
		t.Errorf("String() = %q", f.String())
	}
}

func TestMerge(t *testing.T) {
	a := Parse("label:(a)")
	b := Parse("label:(b OR a)")

	got := a.Merge(b)
	if got.String() != "label:(a OR b)" {
		t.Errorf("Merge() = %q", got.String())
	}
	if a.String() != "label:(a)" {
		t.Errorf("receiver mutated: %q", a.String())
	}
}

func TestMerge_DifferentCategory(t *testing.T) {
	a := Parse("label:(a)")

	if got := a.Merge(Parse("owner:(b)")); got.String() != "label:(a)" {
		t.Errorf("Merge across fields = %q", got.String())
	}
	if got := a.Merge(Parse("label:b")); got.String() != "label:(a)" {
		t.Errorf("Merge with bare = %q", got.String())
	}
}

func TestWithout(t *testing.T) {
	f := Parse("label:(a OR b OR c)")

	if got := f.Without("b"); got.String() != "label:(a OR c)" {
		t.Errorf("Without(b) = %q", got.String())
	}
	if got := f.Without("a", "b", "c"); !got.IsEmpty() {
		t.Errorf("Without(all) = %q, want empty", got.String())
	}
	if !f.Contains("b") {
		t.Error("receiver mutated")
	}
}

func TestTerm(t *testing.T) {
	tests := []struct {
		field, value, want string
	}{
		{"owner", "alice", "owner:alice"},
		{"owner", "alice smith", `owner:"alice smith"`},
		{"title", `say "hi"`, `title:"say \"hi\""`},
		{"owner", "", `owner:""`},
		{"host", "a:b", `host:"a:b"`},
	}
	for _, tt := range tests {
		if got := Term(tt.field, tt.value).String(); got != tt.want {
			t.Errorf("Term(%q, %q) = %q, want %q", tt.field, tt.value, got, tt.want)
		}
	}
}

func TestExistsAndMissing(t *testing.T) {
	if got := Exists("owner").String(); got != "owner:*" {
		t.Errorf("Exists = %q", got)
	}
	if got := Missing("owner").String(); got != "-owner:*" {
		t.Errorf("Missing = %q", got)
	}
}

func TestKindString(t *testing.T) {
	if Bare.String() != "bare" || Grouped.String() != "grouped" {
		t.Errorf("Kind strings = %q, %q", Bare.String(), Grouped.String())
	}
}
