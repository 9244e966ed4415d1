package health

import (
	"context"

	"github.com/kailas-cloud/querystate/internal/domain/view"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ViewLister exposes the configured views.
type ViewLister interface {
	Views() []view.View
}
