package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/leapjoin/pkg/core"
	"github.com/leapstack-labs/leapjoin/pkg/query"
)

type countResponse struct {
	Total int64 `json:"total"`
}

type itemsResponse struct {
	Offset int             `json:"offset"`
	Limit  int             `json:"limit"`
	Items  []*query.Record `json:"items"`
}

type sqlResponse struct {
	Select string `json:"select"`
	Args   []any  `json:"args"`
	Count  string `json:"count"`
	Window string `json:"window"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSQL(w http.ResponseWriter, r *http.Request) {
	q, err := s.newQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	spec, err := q.Select()
	if err != nil {
		s.writeError(w, err)
		return
	}
	selectSQL, args, err := spec.ToSql()
	if err != nil {
		s.writeError(w, err)
		return
	}
	countSQL, _, err := spec.CountBuilder().ToSql()
	if err != nil {
		s.writeError(w, err)
		return
	}
	windowSQL, _, err := spec.WindowBuilder(0, uint64(s.pageSize)).ToSql()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if args == nil {
		args = []any{}
	}
	writeJSON(w, http.StatusOK, sqlResponse{Select: selectSQL, Args: args, Count: countSQL, Window: windowSQL})
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	p, err := s.newPaginator(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	total, err := p.Count(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Total: total})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := intParam(r, "limit", s.pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}

	p, err := s.newPaginator(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	items, err := p.Items(r.Context(), offset, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Offset: offset, Limit: limit, Items: items})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		s.writeError(w, core.NewValidationError("page", "page number must be an integer"))
		return
	}
	size, err := intParam(r, "size", s.pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}

	p, err := s.newPaginator(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	page, err := p.Page(r.Context(), number, size)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewValidationError(name, "%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case core.IsValidationError(err), core.IsReferenceError(err):
		return http.StatusBadRequest
	case core.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
