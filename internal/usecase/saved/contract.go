package saved

import (
	"context"

	domsaved "github.com/kailas-cloud/querystate/internal/domain/saved"
	"github.com/kailas-cloud/querystate/internal/domain/view"
	"github.com/kailas-cloud/querystate/internal/usecase/query"
)

// Repository defines the storage contract for saved searches.
type Repository interface {
	Put(ctx context.Context, s domsaved.Search) error
	Get(ctx context.Context, view, name string) (domsaved.Search, error)
	List(ctx context.Context, view string) ([]domsaved.Search, error)
	Delete(ctx context.Context, view, name string) error
}

// Normalizer resolves views and canonicalizes searches for them.
type Normalizer interface {
	View(name string) (view.View, error)
	Normalize(ctx context.Context, view, search string) (query.Snapshot, error)
}
