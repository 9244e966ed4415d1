package saved

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/querystate/internal/domain"
	domsaved "github.com/kailas-cloud/querystate/internal/domain/saved"
)

// store is the consumer interface for saved searches (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Repo implements usecase/saved.Repository on Redis hashes.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates a saved-search repository. Keys are <prefix>saved:<view>:<name>.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// WithTTL expires saved searches ttl after their last save. Zero keeps them forever.
func (r *Repo) WithTTL(ttl time.Duration) *Repo {
	r.ttl = ttl
	return r
}

// Put stores s, replacing any previous search with the same view and name.
func (r *Repo) Put(ctx context.Context, s domsaved.Search) error {
	key := r.key(s.View(), s.Name())
	if err := r.store.HSet(ctx, key, searchToHash(s)); err != nil {
		return fmt.Errorf("save search %s: %w", key, err)
	}
	if r.ttl > 0 {
		if err := r.store.Expire(ctx, key, r.ttl); err != nil {
			return fmt.Errorf("expire search %s: %w", key, err)
		}
	}
	return nil
}

// Get loads one saved search.
func (r *Repo) Get(ctx context.Context, view, name string) (domsaved.Search, error) {
	m, err := r.store.HGetAll(ctx, r.key(view, name))
	if err != nil {
		return domsaved.Search{}, fmt.Errorf("get search: %w", err)
	}
	if len(m) == 0 {
		return domsaved.Search{}, domain.ErrNotFound
	}
	return searchFromHash(m)
}

// List returns every saved search of a view sorted by name.
func (r *Repo) List(ctx context.Context, view string) ([]domsaved.Search, error) {
	keys, err := r.store.Scan(ctx, r.key(view, "*"))
	if err != nil {
		return nil, fmt.Errorf("scan searches: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load searches: %w", err)
	}

	out := make([]domsaved.Search, 0, len(maps))
	for _, m := range maps {
		// expired between SCAN and HGETALL
		if len(m) == 0 {
			continue
		}
		s, err := searchFromHash(m)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// Delete removes a saved search.
func (r *Repo) Delete(ctx context.Context, view, name string) error {
	key := r.key(view, name)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete search %s: %w", key, err)
	}
	return nil
}

func (r *Repo) key(view, name string) string {
	return r.prefix + "saved:" + view + ":" + name
}
