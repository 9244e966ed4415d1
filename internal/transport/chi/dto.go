package chi

import (
	"time"

	domsaved "github.com/kailas-cloud/querystate/internal/domain/saved"
	"github.com/kailas-cloud/querystate/internal/domain/search/filter"
	"github.com/kailas-cloud/querystate/internal/domain/search/result"
	"github.com/kailas-cloud/querystate/internal/domain/view"
	queryuc "github.com/kailas-cloud/querystate/internal/usecase/query"
)

// --- requests ---

// RowRequest is one result row as the client saw it.
type RowRequest struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// NextPageRequest is the body of POST .../query/next.
type NextPageRequest struct {
	Search     string       `json:"search"`
	Rows       []RowRequest `json:"rows" validate:"omitempty,max=1000"`
	ExecutedAt *time.Time   `json:"executed_at"`
}

// EditRequest is the body of POST .../query/edit.
type EditRequest struct {
	Search   string              `json:"search"`
	Set      map[string]string   `json:"set" validate:"omitempty,dive,keys,required,endkeys"`
	Add      map[string][]string `json:"add" validate:"omitempty,dive,keys,required,endkeys"`
	Remove   map[string][]string `json:"remove" validate:"omitempty,dive,keys,required,endkeys"`
	Delete   []string            `json:"delete" validate:"omitempty,dive,required"`
	AddFq    []string            `json:"add_fq"`
	RemoveFq []string            `json:"remove_fq"`
	GroupBy  *string             `json:"group_by"`
}

// RowQueryRequest is the body of POST .../query/action and .../query/focus.
type RowQueryRequest struct {
	Search string      `json:"search"`
	Row    *RowRequest `json:"row" validate:"required"`
}

// SaveRequest is the body of PUT .../saved/{name}.
type SaveRequest struct {
	Search string `json:"search"`
}

// --- responses ---

// FilterResponse describes one parsed fq value.
type FilterResponse struct {
	Raw    string   `json:"raw"`
	Kind   string   `json:"kind"`
	Field  string   `json:"field,omitempty"`
	Values []string `json:"values,omitempty"`
}

// QueryResponse is the JSON form of a query snapshot.
type QueryResponse struct {
	View      string              `json:"view"`
	URL       string              `json:"url"`
	API       string              `json:"api"`
	APIParams map[string]any      `json:"api_params"`
	State     map[string][]string `json:"state"`
	Offset    int                 `json:"offset"`
	Rows      int                 `json:"rows"`
	GroupBy   string              `json:"group_by,omitempty"`
	TcStart   string              `json:"tc_start,omitempty"`
	Filters   []FilterResponse    `json:"filters"`
}

// ViewResponse describes a configured view.
type ViewResponse struct {
	Name        string            `json:"name"`
	Template    string            `json:"template"`
	Enforced    []string          `json:"enforced,omitempty"`
	APIParams   map[string]string `json:"api_params,omitempty"`
	IDField     string            `json:"id_field"`
	AnchorField string            `json:"anchor_field"`
}

// SavedSearchResponse is a stored search.
type SavedSearchResponse struct {
	ID        string `json:"id"`
	View      string `json:"view"`
	Name      string `json:"name"`
	Query     string `json:"query"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// SavedSearchListResponse lists stored searches of a view.
type SavedSearchListResponse struct {
	Items []SavedSearchResponse `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

// --- converters ---

func (r RowRequest) toDomain() result.Row {
	return result.New(r.ID, r.Fields)
}

func rowsFromRequest(rows []RowRequest) []result.Row {
	out := make([]result.Row, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out
}

func (r EditRequest) toDomain() queryuc.Edit {
	return queryuc.Edit{
		Set:      r.Set,
		Add:      r.Add,
		Remove:   r.Remove,
		Delete:   r.Delete,
		AddFq:    r.AddFq,
		RemoveFq: r.RemoveFq,
		GroupBy:  r.GroupBy,
	}
}

func snapshotToResponse(s queryuc.Snapshot) QueryResponse {
	return QueryResponse{
		View:      s.View,
		URL:       s.URL,
		API:       s.API,
		APIParams: s.APIParams,
		State:     s.State,
		Offset:    s.Offset,
		Rows:      s.Rows,
		GroupBy:   s.GroupBy,
		TcStart:   s.TcStart,
		Filters:   filtersToResponse(s.Filters),
	}
}

func filtersToResponse(fs []filter.Filter) []FilterResponse {
	out := make([]FilterResponse, len(fs))
	for i, f := range fs {
		out[i] = FilterResponse{
			Raw:    f.String(),
			Kind:   f.Kind().String(),
			Field:  f.Field(),
			Values: f.Values(),
		}
	}
	return out
}

func viewToResponse(v view.View) ViewResponse {
	return ViewResponse{
		Name:        v.Name(),
		Template:    v.Template(),
		Enforced:    v.Enforced(),
		APIParams:   v.APIParams(),
		IDField:     v.IDField(),
		AnchorField: v.AnchorField(),
	}
}

func savedToResponse(s domsaved.Search) SavedSearchResponse {
	return SavedSearchResponse{
		ID:        s.ID(),
		View:      s.View(),
		Name:      s.Name(),
		Query:     s.Query(),
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
	}
}
