package result

import "time"

// Row is one result row as seen by the query layer: an id plus the field
// values needed to scope actions and pin paging anchors.
type Row struct {
	id     string
	fields map[string]string
}

// New creates a result row.
func New(id string, fields map[string]string) Row {
	return Row{id: id, fields: fields}
}

// ID returns the unique row identifier.
func (r Row) ID() string { return r.id }

// Fields returns the row field values.
func (r Row) Fields() map[string]string { return r.fields }

// Field returns the value of name, or "" when absent.
func (r Row) Field(name string) string { return r.fields[name] }

// HasField reports whether the row carries a non-empty value for name.
func (r Row) HasField(name string) bool { return r.fields[name] != "" }

// Time parses field name as an RFC 3339 timestamp.
func (r Row) Time(name string) (time.Time, bool) {
	v := r.fields[name]
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Newest returns the latest timestamp found in field across rows.
func Newest(rows []Row, field string) (time.Time, bool) {
	var newest time.Time
	found := false
	for _, r := range rows {
		t, ok := r.Time(field)
		if !ok {
			continue
		}
		if !found || t.After(newest) {
			newest = t
			found = true
		}
	}
	return newest, found
}
