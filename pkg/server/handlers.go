package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/shipyard/pkg/buildinfo"
	"github.com/matzehuels/shipyard/pkg/catalog"
	"github.com/matzehuels/shipyard/pkg/errors"
	"github.com/matzehuels/shipyard/pkg/export"
	"github.com/matzehuels/shipyard/pkg/plan"
	"github.com/matzehuels/shipyard/pkg/sde"
)

var startTime = time.Now()

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Types   int    `json:"types"`
}

// TypeResponse is the body of /api/types/{id}.
type TypeResponse struct {
	catalog.Entry
	Blueprint *export.Blueprint `json:"blueprint,omitempty"`
}

// SearchResponse is the body of /api/search.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []catalog.Entry `json:"results"`
}

// PlanResponse is the body of /api/plan/{id}.
type PlanResponse struct {
	*plan.Plan
	Names map[sde.TypeID]string `json:"names"`
}

type errorResponse struct {
	Error   errors.Code `json:"error"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: buildinfo.Version,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Types:   len(s.catalog.Export().TypeIDs),
	})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if err := errors.ValidateFilename(name); err != nil {
		writeError(w, err)
		return
	}
	data, ok := s.files[name]
	if !ok {
		writeError(w, errNotFound(name))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleType(w http.ResponseWriter, r *http.Request) {
	entry, err := s.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := TypeResponse{Entry: entry}
	if bp, ok := s.catalog.Export().Blueprints[entry.ID]; ok {
		resp.Blueprint = &bp
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", raw))
			return
		}
		limit = n
	}

	results, err := s.catalog.Search(q, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: q, Results: results})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	entry, err := s.lookup(r)
	if err != nil {
		writeError(w, err)
		return
	}
	qty, err := errors.ParseQuantity(r.URL.Query().Get("qty"))
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := plan.Build(s.catalog.Export().Blueprints, entry.ID, qty)
	if err != nil {
		writeError(w, err)
		return
	}

	names := make(map[sde.TypeID]string)
	p.Walk(func(n *plan.Node, _ int) {
		names[n.TypeID] = s.catalog.Name(n.TypeID)
		if n.Recipe != 0 {
			names[n.Recipe] = s.catalog.Name(n.Recipe)
		}
	})
	writeJSON(w, http.StatusOK, PlanResponse{Plan: p, Names: names})
}

// lookup resolves the {id} path parameter, which may also be a type name.
func (s *Server) lookup(r *http.Request) (catalog.Entry, error) {
	raw := chi.URLParam(r, "id")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	return s.catalog.Lookup(raw)
}

func errNotFound(what string) error {
	return errors.New(errors.ErrCodeNotFound, "%s not found", what)
}

// statusFor maps error codes to HTTP status codes.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeNameNotFound, errors.ErrCodeRootNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(err), errorResponse{Error: code, Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
