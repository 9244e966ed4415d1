package saved

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/querystate/internal/domain"
	domsaved "github.com/kailas-cloud/querystate/internal/domain/saved"
	"github.com/kailas-cloud/querystate/internal/logger"
)

// Service handles saved-search CRUD. Searches are stored in their
// delta form so later template changes apply to them.
type Service struct {
	repo       Repository
	queries    Normalizer
	maxPerView int
}

// New creates a saved-search service.
func New(repo Repository, queries Normalizer) *Service {
	return &Service{repo: repo, queries: queries}
}

// WithMaxPerView caps the number of saved searches per view. Zero means no limit.
func (s *Service) WithMaxPerView(n int) *Service {
	s.maxPerView = n
	return s
}

// Save normalizes search and stores it under name, replacing an
// existing search of the same name while keeping its id. Returns true
// if a new search was created.
func (s *Service) Save(ctx context.Context, view, name, search string) (domsaved.Search, bool, error) {
	if err := domsaved.ValidateName(name); err != nil {
		return domsaved.Search{}, false, fmt.Errorf("%w: %w", domain.ErrInvalidName, err)
	}

	snap, err := s.queries.Normalize(ctx, view, search)
	if err != nil {
		return domsaved.Search{}, false, err
	}

	existing, err := s.repo.Get(ctx, view, name)
	switch {
	case err == nil:
		updated := existing.Replace(snap.URL)
		if err := s.repo.Put(ctx, updated); err != nil {
			return domsaved.Search{}, false, fmt.Errorf("save search: %w", err)
		}
		return updated, false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return domsaved.Search{}, false, fmt.Errorf("get search: %w", err)
	}

	if s.maxPerView > 0 {
		all, err := s.repo.List(ctx, view)
		if err != nil {
			return domsaved.Search{}, false, fmt.Errorf("list searches: %w", err)
		}
		if len(all) >= s.maxPerView {
			return domsaved.Search{}, false, fmt.Errorf("%w: view %q holds %d saved searches", domain.ErrLimitExceeded, view, len(all))
		}
	}

	created, err := domsaved.New(uuid.NewString(), view, name, snap.URL)
	if err != nil {
		return domsaved.Search{}, false, fmt.Errorf("%w: %w", domain.ErrInvalidName, err)
	}
	if err := s.repo.Put(ctx, created); err != nil {
		return domsaved.Search{}, false, fmt.Errorf("save search: %w", err)
	}

	logger.FromContext(ctx).Info("saved search created",
		zap.String("view", view),
		zap.String("name", name),
		zap.String("id", created.ID()),
	)
	return created, true, nil
}

// Get retrieves a saved search.
func (s *Service) Get(ctx context.Context, view, name string) (domsaved.Search, error) {
	if _, err := s.queries.View(view); err != nil {
		return domsaved.Search{}, err
	}
	found, err := s.repo.Get(ctx, view, name)
	if err != nil {
		return domsaved.Search{}, fmt.Errorf("get search: %w", err)
	}
	return found, nil
}

// List returns the saved searches of a view sorted by name, at most
// limit of them when limit is positive.
func (s *Service) List(ctx context.Context, view string, limit int) ([]domsaved.Search, error) {
	if _, err := s.queries.View(view); err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx, view)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Delete removes a saved search.
func (s *Service) Delete(ctx context.Context, view, name string) error {
	if _, err := s.queries.View(view); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, view, name); err != nil {
		return fmt.Errorf("delete search: %w", err)
	}
	return nil
}
