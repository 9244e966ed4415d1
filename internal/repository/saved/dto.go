package saved

import (
	"fmt"
	"strconv"

	domsaved "github.com/kailas-cloud/querystate/internal/domain/saved"
)

// searchToHash converts a saved search to a map for HSET.
func searchToHash(s domsaved.Search) map[string]string {
	return map[string]string{
		"id":         s.ID(),
		"view":       s.View(),
		"name":       s.Name(),
		"query":      s.Query(),
		"created_at": strconv.FormatInt(s.CreatedAt(), 10),
		"updated_at": strconv.FormatInt(s.UpdatedAt(), 10),
	}
}

// searchFromHash hydrates a saved search from an HGETALL result map.
func searchFromHash(m map[string]string) (domsaved.Search, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return domsaved.Search{}, fmt.Errorf("invalid created_at: %w", err)
	}
	updatedAt, err := strconv.ParseInt(m["updated_at"], 10, 64)
	if err != nil {
		updatedAt = createdAt
	}
	return domsaved.Reconstruct(m["id"], m["view"], m["name"], m["query"], createdAt, updatedAt), nil
}
