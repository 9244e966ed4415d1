package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	gochi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	queryuc "github.com/kailas-cloud/querystate/internal/usecase/query"
	"github.com/kailas-cloud/querystate/internal/usecase/health"
	saveduc "github.com/kailas-cloud/querystate/internal/usecase/saved"
	"github.com/kailas-cloud/querystate/internal/version"
)

const (
	maxBodyBytes     = 1 << 20
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Server serves the query state HTTP API.
type Server struct {
	queries       *queryuc.Service
	saved         *saveduc.Service
	health        *health.Service
	logger        *zap.Logger
	validate      *validator.Validate
	listLimit     int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. saved can be nil when no
// database is configured; saved-search routes then answer 501.
func NewServer(
	queries *queryuc.Service,
	saved *saveduc.Service,
	healthSvc *health.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		queries:       queries,
		saved:         saved,
		health:        healthSvc,
		logger:        logger,
		validate:      newValidator(),
		listLimit:     defaultListLimit,
		errorHandlers: defaultErrorHandlers(),
	}
}

// WithListLimit sets the default page size of saved-search listings.
func (s *Server) WithListLimit(n int) *Server {
	if n > 0 {
		s.listLimit = min(n, maxListLimit)
	}
	return s
}

// Register mounts all routes on r.
func (s *Server) Register(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/views", func(r gochi.Router) {
		r.Get("/", s.ListViews)
		r.Route("/{view}", func(r gochi.Router) {
			r.Get("/", s.GetView)
			r.Get("/query", s.Normalize)
			r.Get("/facets", s.Facets)
			r.Post("/query/next", s.NextPage)
			r.Post("/query/edit", s.Edit)
			r.Post("/query/action", s.Action)
			r.Post("/query/focus", s.Focus)

			r.Get("/saved", s.ListSaved)
			r.Get("/saved/{name}", s.GetSaved)
			r.Put("/saved/{name}", s.PutSaved)
			r.Delete("/saved/{name}", s.DeleteSaved)
		})
	})
}

// ListViews handles GET /api/v1/views.
func (s *Server) ListViews(w http.ResponseWriter, _ *http.Request) {
	views := s.queries.Views()
	items := make([]ViewResponse, len(views))
	for i, v := range views {
		items[i] = viewToResponse(v)
	}
	writeJSON(w, http.StatusOK, items)
}

// GetView handles GET /api/v1/views/{view}.
func (s *Server) GetView(w http.ResponseWriter, r *http.Request) {
	v, err := s.queries.View(gochi.URLParam(r, "view"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewToResponse(v))
}

// Normalize handles GET /api/v1/views/{view}/query. The raw query string is the search.
func (s *Server) Normalize(w http.ResponseWriter, r *http.Request) {
	snap, err := s.queries.Normalize(r.Context(), gochi.URLParam(r, "view"), r.URL.RawQuery)
	s.writeSnapshot(w, snap, err)
}

// Facets handles GET /api/v1/views/{view}/facets.
func (s *Server) Facets(w http.ResponseWriter, r *http.Request) {
	snap, err := s.queries.Facets(r.Context(), gochi.URLParam(r, "view"), r.URL.RawQuery)
	s.writeSnapshot(w, snap, err)
}

// NextPage handles POST /api/v1/views/{view}/query/next.
func (s *Server) NextPage(w http.ResponseWriter, r *http.Request) {
	var req NextPageRequest
	if !s.decode(w, r, &req) {
		return
	}

	page := queryuc.Page{Rows: rowsFromRequest(req.Rows)}
	if req.ExecutedAt != nil {
		page.ExecutedAt = *req.ExecutedAt
	}

	snap, err := s.queries.NextPage(r.Context(), gochi.URLParam(r, "view"), req.Search, page)
	s.writeSnapshot(w, snap, err)
}

// Edit handles POST /api/v1/views/{view}/query/edit.
func (s *Server) Edit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if !s.decode(w, r, &req) {
		return
	}

	snap, err := s.queries.Edit(r.Context(), gochi.URLParam(r, "view"), req.Search, req.toDomain())
	s.writeSnapshot(w, snap, err)
}

// Action handles POST /api/v1/views/{view}/query/action.
func (s *Server) Action(w http.ResponseWriter, r *http.Request) {
	var req RowQueryRequest
	if !s.decode(w, r, &req) {
		return
	}

	snap, err := s.queries.Action(r.Context(), gochi.URLParam(r, "view"), req.Search, req.Row.toDomain())
	s.writeSnapshot(w, snap, err)
}

// Focus handles POST /api/v1/views/{view}/query/focus.
func (s *Server) Focus(w http.ResponseWriter, r *http.Request) {
	var req RowQueryRequest
	if !s.decode(w, r, &req) {
		return
	}

	snap, err := s.queries.Focus(r.Context(), gochi.URLParam(r, "view"), req.Search, req.Row.toDomain())
	s.writeSnapshot(w, snap, err)
}

// ListSaved handles GET /api/v1/views/{view}/saved.
func (s *Server) ListSaved(w http.ResponseWriter, r *http.Request) {
	if !s.savedEnabled(w) {
		return
	}

	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid limit: "+err.Error())
		return
	}
	n := s.listLimit
	if limit != nil {
		if err := s.validate.Var(*limit, "min=1,max=1000"); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "limit must be between 1 and 1000")
			return
		}
		n = *limit
	}

	list, err := s.saved.List(r.Context(), gochi.URLParam(r, "view"), n)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]SavedSearchResponse, len(list))
	for i, item := range list {
		items[i] = savedToResponse(item)
	}
	writeJSON(w, http.StatusOK, SavedSearchListResponse{Items: items})
}

// GetSaved handles GET /api/v1/views/{view}/saved/{name}.
func (s *Server) GetSaved(w http.ResponseWriter, r *http.Request) {
	if !s.savedEnabled(w) {
		return
	}

	found, err := s.saved.Get(r.Context(), gochi.URLParam(r, "view"), gochi.URLParam(r, "name"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, savedToResponse(found))
}

// PutSaved handles PUT /api/v1/views/{view}/saved/{name}.
func (s *Server) PutSaved(w http.ResponseWriter, r *http.Request) {
	if !s.savedEnabled(w) {
		return
	}

	var req SaveRequest
	if !s.decode(w, r, &req) {
		return
	}

	stored, created, err := s.saved.Save(r.Context(), gochi.URLParam(r, "view"), gochi.URLParam(r, "name"), req.Search)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, savedToResponse(stored))
}

// DeleteSaved handles DELETE /api/v1/views/{view}/saved/{name}.
func (s *Server) DeleteSaved(w http.ResponseWriter, r *http.Request) {
	if !s.savedEnabled(w) {
		return
	}

	if err := s.saved.Delete(r.Context(), gochi.URLParam(r, "view"), gochi.URLParam(r, "name")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}

func (s *Server) writeSnapshot(w http.ResponseWriter, snap queryuc.Snapshot, err error) {
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotToResponse(snap))
}

func (s *Server) savedEnabled(w http.ResponseWriter) bool {
	if s.saved == nil {
		writeError(w, http.StatusNotImplemented, ErrorCodeNotImplemented, "saved searches are disabled")
		return false
	}
	return true
}

// decode reads a JSON body into dst and validates it. On failure it
// writes a 400 and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, len(ve))
	for i, fe := range ve {
		parts[i] = fe.Field() + " failed " + fe.Tag()
	}
	return strings.Join(parts, "; ")
}
