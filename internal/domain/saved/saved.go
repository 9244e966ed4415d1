package saved

import (
	"fmt"
	"regexp"
	"time"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Search is a named, persisted search for one view. Query holds the
// delta-encoded query string, so template changes flow into old bookmarks.
type Search struct {
	id        string
	view      string
	name      string
	query     string
	createdAt int64
	updatedAt int64
}

// ValidateName checks a saved-search name: 1-64 chars of [a-zA-Z0-9_.-].
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("saved search name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("saved search name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("saved search name must be alphanumeric with dots, underscores and hyphens")
	}
	return nil
}

// New validates and creates a saved search stamped with the current time.
func New(id, view, name, query string) (Search, error) {
	if id == "" {
		return Search{}, fmt.Errorf("saved search id is required")
	}
	if err := ValidateName(name); err != nil {
		return Search{}, err
	}
	now := time.Now().Unix()
	return Search{id: id, view: view, name: name, query: query, createdAt: now, updatedAt: now}, nil
}

// Reconstruct restores a saved search from storage without validation.
func Reconstruct(id, view, name, query string, createdAt, updatedAt int64) Search {
	return Search{id: id, view: view, name: name, query: query, createdAt: createdAt, updatedAt: updatedAt}
}

// ID returns the stable identifier.
func (s Search) ID() string { return s.id }

// View returns the owning view name.
func (s Search) View() string { return s.view }

// Name returns the saved-search name.
func (s Search) Name() string { return s.name }

// Query returns the delta-encoded query string.
func (s Search) Query() string { return s.query }

// CreatedAt returns the creation time (Unix seconds).
func (s Search) CreatedAt() int64 { return s.createdAt }

// UpdatedAt returns the last update time (Unix seconds).
func (s Search) UpdatedAt() int64 { return s.updatedAt }

// Replace returns a copy holding query, keeping id and creation time.
func (s Search) Replace(query string) Search {
	s.query = query
	s.updatedAt = time.Now().Unix()
	return s
}
