package query

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/querystate/internal/domain"
	"github.com/kailas-cloud/querystate/internal/domain/search/filter"
	"github.com/kailas-cloud/querystate/internal/domain/search/params"
	domquery "github.com/kailas-cloud/querystate/internal/domain/search/query"
	"github.com/kailas-cloud/querystate/internal/domain/search/result"
	"github.com/kailas-cloud/querystate/internal/domain/view"
	"github.com/kailas-cloud/querystate/internal/logger"
)

// DefaultTemplateCacheSize bounds the number of parsed templates kept.
const DefaultTemplateCacheSize = 256

// Operation names used in logs and metrics.
const (
	OpNormalize = "normalize"
	OpNextPage  = "next_page"
	OpEdit      = "edit"
	OpAction    = "action"
	OpFocus     = "focus"
	OpFacets    = "facets"
)

// Snapshot is the read-only outcome of a query operation.
type Snapshot struct {
	View      string
	URL       string
	API       string
	APIParams map[string]any
	State     map[string][]string
	Offset    int
	Rows      int
	GroupBy   string
	TcStart   string
	Filters   []filter.Filter
}

// Page describes the page a NextPage call follows: its rows and the
// execution time the server reported for it (zero when unknown).
type Page struct {
	Rows       []result.Row
	ExecutedAt time.Time
}

// Edit is a batch of changes applied in a fixed order: Delete, Remove,
// Set, Add, RemoveFq, AddFq, GroupBy. Map keys are applied sorted.
type Edit struct {
	Set      map[string]string
	Add      map[string][]string
	Remove   map[string][]string
	Delete   []string
	AddFq    []string
	RemoveFq []string
	GroupBy  *string
}

// Service builds and derives queries for configured views. Every call
// works on its own freshly parsed query, so the service is safe for
// concurrent use.
type Service struct {
	views     map[string]view.View
	templates *lru.Cache[string, params.Template]
	recorder  Recorder
	now       func() time.Time
}

// New creates a query service for views.
func New(views []view.View, cacheSize int) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultTemplateCacheSize
	}
	cache, err := lru.New[string, params.Template](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create template cache: %w", err)
	}

	byName := make(map[string]view.View, len(views))
	for _, v := range views {
		if _, dup := byName[v.Name()]; dup {
			return nil, fmt.Errorf("duplicate view %q", v.Name())
		}
		byName[v.Name()] = v
	}

	return &Service{views: byName, templates: cache, now: time.Now}, nil
}

// WithRecorder attaches a metrics recorder.
func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

// WithClock overrides the clock used when a page carries no anchor.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Views returns the configured views sorted by name.
func (s *Service) Views() []view.View {
	out := make([]view.View, 0, len(s.views))
	for _, name := range slices.Sorted(maps.Keys(s.views)) {
		out = append(out, s.views[name])
	}
	return out
}

// View returns a configured view.
func (s *Service) View(name string) (view.View, error) {
	v, ok := s.views[name]
	if !ok {
		return view.View{}, domain.NewUnknownView(name)
	}
	return v, nil
}

// Parse parses search for a view.
func (s *Service) Parse(viewName, search string) (*domquery.Query, view.View, error) {
	v, err := s.View(viewName)
	if err != nil {
		return nil, view.View{}, err
	}
	return v.Query(search, s.template(v.Template())), v, nil
}

// Normalize re-emits search in canonical URL and API forms.
func (s *Service) Normalize(ctx context.Context, viewName, search string) (Snapshot, error) {
	q, v, err := s.Parse(viewName, search)
	if err != nil {
		return Snapshot{}, err
	}
	return s.finish(ctx, v, OpNormalize, q), nil
}

// NextPage pins the paging anchor on the first page and advances the
// offset by one page. The anchor is the newest row timestamp in the
// view's anchor field, else the reported execution time, else now.
func (s *Service) NextPage(ctx context.Context, viewName, search string, page Page) (Snapshot, error) {
	q, v, err := s.Parse(viewName, search)
	if err != nil {
		return Snapshot{}, err
	}

	anchor, ok := result.Newest(page.Rows, v.AnchorField())
	if !ok {
		anchor = page.ExecutedAt
	}
	if anchor.IsZero() {
		anchor = s.now()
	}
	if q.PinTcStart(anchor) {
		logger.FromContext(ctx).Debug("paging anchor pinned",
			zap.String("view", v.Name()),
			zap.String("tc_start", q.TcStart()),
		)
	}
	q.TickOffset()

	return s.finish(ctx, v, OpNextPage, q), nil
}

// Edit applies e to search.
func (s *Service) Edit(ctx context.Context, viewName, search string, e Edit) (Snapshot, error) {
	q, v, err := s.Parse(viewName, search)
	if err != nil {
		return Snapshot{}, err
	}
	if err := validateEdit(e); err != nil {
		return Snapshot{}, err
	}

	for _, name := range e.Delete {
		q.Remove(name)
	}
	for _, name := range slices.Sorted(maps.Keys(e.Remove)) {
		if vs := e.Remove[name]; len(vs) > 0 {
			q.Remove(name, vs...)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(e.Set)) {
		q.Set(name, e.Set[name])
	}
	for _, name := range slices.Sorted(maps.Keys(e.Add)) {
		for _, value := range e.Add[name] {
			q.Add(name, value)
		}
	}
	for _, raw := range e.RemoveFq {
		q.RemoveFq(raw)
	}
	merged := 0
	for _, raw := range e.AddFq {
		if q.AddFq(raw) {
			merged++
		}
	}
	if e.GroupBy != nil {
		q.SetGroupBy(*e.GroupBy)
	}

	if merged > 0 {
		logger.FromContext(ctx).Debug("filter groups merged",
			zap.String("view", v.Name()),
			zap.Int("merged", merged),
		)
	}
	return s.finish(ctx, v, OpEdit, q), nil
}

// Action scopes search to the rows behind row.
func (s *Service) Action(ctx context.Context, viewName, search string, row result.Row) (Snapshot, error) {
	q, v, err := s.Parse(viewName, search)
	if err != nil {
		return Snapshot{}, err
	}
	if q.GroupBy() == "" && row.ID() == "" {
		return Snapshot{}, fmt.Errorf("%w: row id is required in an ungrouped view", domain.ErrInvalidRequest)
	}
	return s.finish(ctx, v, OpAction, domquery.ActionQuery(q, row, v.IDField())), nil
}

// Focus drills down from row's group into a new search.
func (s *Service) Focus(ctx context.Context, viewName, search string, row result.Row) (Snapshot, error) {
	q, v, err := s.Parse(viewName, search)
	if err != nil {
		return Snapshot{}, err
	}
	return s.finish(ctx, v, OpFocus, domquery.FocusQuery(q, row)), nil
}

// Facets converts the active grouping into an existence filter.
func (s *Service) Facets(ctx context.Context, viewName, search string) (Snapshot, error) {
	q, v, err := s.Parse(viewName, search)
	if err != nil {
		return Snapshot{}, err
	}
	return s.finish(ctx, v, OpFacets, q.GroupByAsFilter()), nil
}

func (s *Service) template(raw string) params.Template {
	if tpl, ok := s.templates.Get(raw); ok {
		s.recordCache(true)
		return tpl
	}
	tpl := params.ParseTemplate(raw)
	s.templates.Add(raw, tpl)
	s.recordCache(false)
	return tpl
}

func (s *Service) finish(ctx context.Context, v view.View, op string, q *domquery.Query) Snapshot {
	snap := Snapshot{
		View:      v.Name(),
		URL:       q.URLQueryString(),
		API:       q.APIQueryString(),
		APIParams: q.APIParams(),
		State:     q.Build(),
		Offset:    q.Offset(),
		Rows:      q.Rows(),
		GroupBy:   q.GroupBy(),
		TcStart:   q.TcStart(),
		Filters:   q.Filters(),
	}

	logger.FromContext(ctx).Debug("query built",
		zap.String("view", v.Name()),
		zap.String("op", op),
		zap.String("url", snap.URL),
	)
	if s.recorder != nil {
		s.recorder.RecordOperation(v.Name(), op)
	}
	return snap
}

func (s *Service) recordCache(hit bool) {
	if s.recorder != nil {
		s.recorder.RecordTemplateCache(hit)
	}
}

func validateEdit(e Edit) error {
	for _, name := range e.Delete {
		if name == "" {
			return fmt.Errorf("%w: empty parameter name in delete", domain.ErrInvalidRequest)
		}
	}
	if _, ok := e.Set[""]; ok {
		return fmt.Errorf("%w: empty parameter name in set", domain.ErrInvalidRequest)
	}
	if _, ok := e.Add[""]; ok {
		return fmt.Errorf("%w: empty parameter name in add", domain.ErrInvalidRequest)
	}
	if _, ok := e.Remove[""]; ok {
		return fmt.Errorf("%w: empty parameter name in remove", domain.ErrInvalidRequest)
	}
	return nil
}
